// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Create sessions table required by sqlite3store
	_, err = db.Exec(`
		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX sessions_expiry_idx ON sessions(expiry);
	`)
	if err != nil {
		t.Fatalf("failed to create sessions table: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_DevMode(t *testing.T) {
	db := setupTestDB(t)

	sm := New(db, true)

	if sm.Cookie.Secure {
		t.Error("dev mode should not set Secure cookies")
	}
	if !sm.Cookie.HttpOnly {
		t.Error("cookies must be HttpOnly")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", sm.Cookie.SameSite)
	}
}

func TestNew_ProdMode(t *testing.T) {
	db := setupTestDB(t)

	sm := New(db, false)

	if !sm.Cookie.Secure {
		t.Error("production mode must set Secure cookies")
	}
}

// startSession creates a committed session carrying the given user id
// and returns its token.
func startSession(t *testing.T, sm *scs.SessionManager, userID int64) string {
	t.Helper()

	var token string
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), UserIDKey, userID)
		token = sm.Token(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if token == "" {
		t.Fatal("no session token issued")
	}
	return token
}

func countSessions(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
		t.Fatalf("counting sessions: %v", err)
	}
	return n
}

func TestRevokeUser_AllSessions(t *testing.T) {
	db := setupTestDB(t)
	sm := New(db, true)

	startSession(t, sm, 1)
	startSession(t, sm, 1)
	startSession(t, sm, 2)

	if n := countSessions(t, db); n != 3 {
		t.Fatalf("session count = %d, want 3", n)
	}

	if err := RevokeUser(context.Background(), sm, 1, ""); err != nil {
		t.Fatalf("RevokeUser: %v", err)
	}

	if n := countSessions(t, db); n != 1 {
		t.Errorf("session count after revoke = %d, want 1", n)
	}
}

func TestRevokeUser_KeepsCurrentToken(t *testing.T) {
	db := setupTestDB(t)
	sm := New(db, true)

	startSession(t, sm, 1)
	keep := startSession(t, sm, 1)

	if err := RevokeUser(context.Background(), sm, 1, keep); err != nil {
		t.Fatalf("RevokeUser: %v", err)
	}

	if n := countSessions(t, db); n != 1 {
		t.Fatalf("session count after revoke = %d, want 1", n)
	}

	var token string
	if err := db.QueryRow("SELECT token FROM sessions").Scan(&token); err != nil {
		t.Fatalf("reading surviving token: %v", err)
	}
	if token != keep {
		t.Errorf("surviving token = %q, want %q", token, keep)
	}
}

func TestRevokeUser_OtherUsersUntouched(t *testing.T) {
	db := setupTestDB(t)
	sm := New(db, true)

	startSession(t, sm, 1)
	startSession(t, sm, 2)

	if err := RevokeUser(context.Background(), sm, 3, ""); err != nil {
		t.Fatalf("RevokeUser: %v", err)
	}

	if n := countSessions(t, db); n != 2 {
		t.Errorf("session count = %d, want 2", n)
	}
}
