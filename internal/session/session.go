// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures server-side sessions backed by SQLite.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// UserIDKey is the session key under which the signed-in user's
// internal id is stored.
const UserIDKey = "user_id"

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only

	return sm
}

// RevokeUser destroys every session belonging to the given user except
// keepToken. Pass an empty keepToken to revoke all of them. Used after
// password resets so stolen sessions die with the old password.
func RevokeUser(ctx context.Context, sm *scs.SessionManager, userID int64, keepToken string) error {
	err := sm.Iterate(ctx, func(c context.Context) error {
		if sm.GetInt64(c, UserIDKey) != userID {
			return nil
		}
		if keepToken != "" && sm.Token(c) == keepToken {
			return nil
		}
		return sm.Destroy(c)
	})
	if err != nil {
		return fmt.Errorf("revoking sessions for user %d: %w", userID, err)
	}
	return nil
}
