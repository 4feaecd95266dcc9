package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/inkwell-cms/inkwell/internal/auth"
	"github.com/inkwell-cms/inkwell/internal/store"
)

// testDB creates an in-memory SQLite database with the required schema for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// A second connection would see an empty in-memory database.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			public_id TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			requires_password_change INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at DATETIME
		);
		CREATE UNIQUE INDEX idx_users_email ON users (email COLLATE NOCASE);
		CREATE INDEX idx_users_role ON users (role);

		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX idx_sessions_expiry ON sessions (expiry);

		CREATE TABLE pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			public_id TEXT NOT NULL UNIQUE,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'draft',
			author_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			published_at DATETIME
		);
		CREATE INDEX idx_pages_status ON pages (status);

		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL DEFAULT 'info',
			category TEXT NOT NULL DEFAULT 'system',
			message TEXT NOT NULL,
			user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
			ip TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX idx_events_created_at ON events (created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// testSessionManager creates a session manager backed by the default
// in-memory store.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// brokenIterationStore delegates lookups and writes to a working
// session store but fails any attempt to enumerate sessions, so
// revocation sweeps error out while existing sessions keep working.
type brokenIterationStore struct {
	scs.Store
}

func (s brokenIterationStore) All() (map[string][]byte, error) {
	return nil, errors.New("session store unavailable")
}

// testUser describes a user to create in the test database.
type testUser struct {
	Email                  string
	Name                   string
	Role                   string
	Password               string
	RequiresPasswordChange bool
}

// createTestUser creates a test user and returns the stored row.
func createTestUser(t *testing.T, db *sql.DB, user testUser) store.User {
	t.Helper()

	if user.Password == "" {
		user.Password = "Password1"
	}
	if user.Role == "" {
		user.Role = "user"
	}
	hash, err := auth.HashPassword(user.Password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	now := time.Now()
	created, err := store.New(db).CreateUser(t.Context(), store.CreateUserParams{
		PublicID:               uuid.NewString(),
		Email:                  user.Email,
		PasswordHash:           hash,
		Name:                   user.Name,
		Role:                   user.Role,
		RequiresPasswordChange: user.RequiresPasswordChange,
		CreatedAt:              now,
		UpdatedAt:              now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return created
}

// testClient drives handlers through the session middleware, carrying
// cookies between requests like a browser would.
type testClient struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newTestClient(t *testing.T, sm *scs.SessionManager, mux http.Handler) *testClient {
	t.Helper()
	return &testClient{t: t, handler: sm.LoadAndSave(mux)}
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()

	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		c.setCookie(cookie)
	}
	return rec
}

func (c *testClient) setCookie(cookie *http.Cookie) {
	for i, existing := range c.cookies {
		if existing.Name == cookie.Name {
			if cookie.MaxAge < 0 || cookie.Value == "" {
				c.cookies = append(c.cookies[:i], c.cookies[i+1:]...)
			} else {
				c.cookies[i] = cookie
			}
			return
		}
	}
	if cookie.MaxAge >= 0 && cookie.Value != "" {
		c.cookies = append(c.cookies, cookie)
	}
}
