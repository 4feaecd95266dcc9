// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User is an account row. PublicID is the identifier exposed through
// the API; the integer primary key never leaves the server.
type User struct {
	ID                     int64
	PublicID               string
	Email                  string
	PasswordHash           string
	Name                   string
	Role                   string
	RequiresPasswordChange bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
	LastLoginAt            sql.NullTime
}

// Page is a content page. Body holds raw Markdown; rendering happens
// at read time.
type Page struct {
	ID          int64
	PublicID    string
	Slug        string
	Title       string
	Body        string
	Status      string
	AuthorID    sql.NullInt64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt sql.NullTime
}

// Event is an audit log row. Metadata holds a JSON object.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	IP        string
	Metadata  string
	CreatedAt time.Time
}
