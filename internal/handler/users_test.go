// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/inkwell-cms/inkwell/internal/middleware"
	"github.com/inkwell-cms/inkwell/internal/store"
)

// newAdminClient wires the full admin surface behind the same
// middleware chain the application uses and signs in as a fresh admin.
func newAdminClient(t *testing.T) (*testClient, *sql.DB, store.User, *scs.SessionManager) {
	t.Helper()

	db := testDB(t)
	sm := testSessionManager(t)
	authHandler := NewAuthHandler(db, sm, nil)
	usersHandler := NewUsersHandler(db, sm)
	eventsHandler := NewEventsHandler(db)

	r := chi.NewRouter()
	r.Post("/auth/sign-in", authHandler.SignIn)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(sm))
		r.Use(middleware.LoadUser(sm, db))
		r.Use(middleware.RequireAdmin())
		r.Use(middleware.RequirePasswordCurrent())

		r.Get("/users", usersHandler.List)
		r.Post("/users", usersHandler.Create)
		r.Post("/users/reset-password", usersHandler.ResetPassword)
		r.Post("/users/delete", usersHandler.Delete)
		r.Get("/events", eventsHandler.List)
	})

	admin := createTestUser(t, db, testUser{
		Email:    "admin@example.com",
		Name:     "Admin",
		Role:     "admin",
		Password: "Admin1Password",
	})

	c := newTestClient(t, sm, r)
	rec := postJSON(t, c, "/auth/sign-in", map[string]any{
		"email":    "admin@example.com",
		"password": "Admin1Password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin sign-in = %d: %s", rec.Code, rec.Body.String())
	}
	return c, db, admin, sm
}

func TestAdminUsers_Forbidden(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	authHandler := NewAuthHandler(db, sm, nil)
	usersHandler := NewUsersHandler(db, sm)

	r := chi.NewRouter()
	r.Post("/auth/sign-in", authHandler.SignIn)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(sm))
		r.Use(middleware.LoadUser(sm, db))
		r.Use(middleware.RequireAdmin())
		r.Get("/users", usersHandler.List)
	})

	createTestUser(t, db, testUser{Email: "plain@example.com", Password: "Plain1Password"})

	// Anonymous
	anon := newTestClient(t, sm, r)
	anonRec := anon.do(httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	if anonRec.Code != http.StatusForbidden {
		t.Fatalf("anonymous = %d, want 403", anonRec.Code)
	}

	// Signed-in non-admin
	user := newTestClient(t, sm, r)
	postJSON(t, user, "/auth/sign-in", map[string]any{
		"email":    "plain@example.com",
		"password": "Plain1Password",
	})
	userRec := user.do(httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	if userRec.Code != http.StatusForbidden {
		t.Fatalf("non-admin = %d, want 403", userRec.Code)
	}

	// Responses must be indistinguishable
	if anonRec.Body.String() != userRec.Body.String() {
		t.Errorf("403 bodies differ:\n%s\n%s", anonRec.Body.String(), userRec.Body.String())
	}
}

func TestAdminUsers_List(t *testing.T) {
	c, db, _, _ := newAdminClient(t)
	createTestUser(t, db, testUser{Email: "one@example.com"})
	createTestUser(t, db, testUser{Email: "two@example.com"})

	rec := c.do(httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data []map[string]any `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Meta.Total != 3 {
		t.Errorf("total = %d, want 3", envelope.Meta.Total)
	}
	for _, u := range envelope.Data {
		if _, leaked := u["password_hash"]; leaked {
			t.Error("listing leaks password_hash")
		}
	}
}

func TestAdminUsers_CreateWithGeneratedPassword(t *testing.T) {
	c, db, _, _ := newAdminClient(t)

	rec := postJSON(t, c, "/admin/users", map[string]any{
		"name":  "New Person",
		"email": "new@example.com",
		"role":  "user",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	data := decodeData(t, rec)
	temp, _ := data["temp_password"].(string)
	if len(temp) != 12 {
		t.Fatalf("temp password length = %d, want 12", len(temp))
	}
	var hasUpper, hasDigit bool
	for _, r := range temp {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	if !hasUpper || !hasDigit {
		t.Errorf("temp password %q does not satisfy the policy", temp)
	}

	user, ok := data["user"].(map[string]any)
	if !ok {
		t.Fatalf("missing user in response: %v", data)
	}
	if user["requires_password_change"] != true {
		t.Errorf("requires_password_change = %v, want true", user["requires_password_change"])
	}

	// The plaintext is never persisted
	stored, err := store.New(db).GetUserByEmail(t.Context(), "new@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if stored.PasswordHash == temp {
		t.Error("temp password stored in plaintext")
	}
	if !stored.RequiresPasswordChange {
		t.Error("requires_password_change not set in store")
	}
}

func TestAdminUsers_CreateWithSuppliedPassword(t *testing.T) {
	c, _, _, _ := newAdminClient(t)

	rec := postJSON(t, c, "/admin/users", map[string]any{
		"email":         "supplied@example.com",
		"role":          "admin",
		"temp_password": "Chosen1Password",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if data["temp_password"] != "Chosen1Password" {
		t.Errorf("temp_password = %v, want the supplied one", data["temp_password"])
	}

	// A weak supplied password is rejected
	rec = postJSON(t, c, "/admin/users", map[string]any{
		"email":         "weak@example.com",
		"temp_password": "weak",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("weak supplied password = %d, want 400", rec.Code)
	}
}

func TestAdminUsers_CreateInvalidRole(t *testing.T) {
	c, _, _, _ := newAdminClient(t)

	rec := postJSON(t, c, "/admin/users", map[string]any{
		"email": "roley@example.com",
		"role":  "superuser",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAdminUsers_ResetPassword(t *testing.T) {
	c, db, _, _ := newAdminClient(t)
	target := createTestUser(t, db, testUser{Email: "reset@example.com", Password: "Old1Password"})

	rec := postJSON(t, c, "/admin/users/reset-password", map[string]any{
		"user_id":      target.PublicID,
		"new_password": "Fresh1Password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	stored, err := store.New(db).GetUserByID(t.Context(), target.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !stored.RequiresPasswordChange {
		t.Error("requires_password_change not set after reset")
	}

	// Repeating the call is not an error and leaves the same end state
	rec = postJSON(t, c, "/admin/users/reset-password", map[string]any{
		"user_id":      target.PublicID,
		"new_password": "Fresh1Password",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("repeat status = %d, want 200", rec.Code)
	}
}

func TestAdminUsers_ResetPasswordNotFound(t *testing.T) {
	c, _, _, _ := newAdminClient(t)

	rec := postJSON(t, c, "/admin/users/reset-password", map[string]any{
		"user_id":      "00000000-0000-0000-0000-000000000000",
		"new_password": "Fresh1Password",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAdminUsers_ResetPasswordRevocationFailure(t *testing.T) {
	c, db, _, sm := newAdminClient(t)
	target := createTestUser(t, db, testUser{Email: "reset@example.com", Password: "Old1Password"})

	// The admin session keeps resolving but the revocation sweep fails.
	sm.Store = brokenIterationStore{sm.Store}

	rec := postJSON(t, c, "/admin/users/reset-password", map[string]any{
		"user_id":      target.PublicID,
		"new_password": "Fresh1Password",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "internal_error") {
		t.Errorf("body = %s, want internal_error code", rec.Body.String())
	}
}

func TestAdminUsers_Delete(t *testing.T) {
	c, db, _, _ := newAdminClient(t)
	target := createTestUser(t, db, testUser{Email: "doomed@example.com"})

	rec := postJSON(t, c, "/admin/users/delete", map[string]any{
		"user_id": target.PublicID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	if _, err := store.New(db).GetUserByID(t.Context(), target.ID); err != sql.ErrNoRows {
		t.Errorf("GetUserByID after delete = %v, want sql.ErrNoRows", err)
	}
}

func TestAdminUsers_DeleteGuards(t *testing.T) {
	c, db, admin, _ := newAdminClient(t)

	// Cannot delete yourself
	rec := postJSON(t, c, "/admin/users/delete", map[string]any{
		"user_id": admin.PublicID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self-delete = %d, want 400", rec.Code)
	}

	// Cannot delete the last admin
	other := createTestUser(t, db, testUser{Email: "other-admin@example.com", Role: "admin"})
	rec = postJSON(t, c, "/admin/users/delete", map[string]any{
		"user_id": other.PublicID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("deleting second admin = %d, want 200", rec.Code)
	}
	// admin is now the last one standing
	rec = postJSON(t, c, "/admin/users/delete", map[string]any{
		"user_id": admin.PublicID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("deleting last admin = %d, want 400", rec.Code)
	}

	// Unknown target
	rec = postJSON(t, c, "/admin/users/delete", map[string]any{
		"user_id": "00000000-0000-0000-0000-000000000000",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown target = %d, want 404", rec.Code)
	}
}

func TestAdminUsers_RequirePasswordCurrentBlocks(t *testing.T) {
	c, db, admin, _ := newAdminClient(t)

	// Flag the signed-in admin for a password change mid-session
	q := store.New(db)
	if err := q.UpdateUserPassword(t.Context(), store.UpdateUserPasswordParams{
		PasswordHash:           admin.PasswordHash,
		RequiresPasswordChange: true,
		UpdatedAt:              admin.UpdatedAt,
		ID:                     admin.ID,
	}); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	rec := c.do(httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("flagged admin = %d, want 403", rec.Code)
	}
}

func TestAdminEvents_List(t *testing.T) {
	c, _, _, _ := newAdminClient(t)

	// Sign-in above already produced audit events
	rec := c.do(httptest.NewRequest(http.MethodGet, "/admin/events", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data []map[string]any `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Meta.Total == 0 {
		t.Error("expected at least one event after sign-in")
	}
}
