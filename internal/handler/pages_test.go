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

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-cms/inkwell/internal/middleware"
)

// newPagesClient mounts the public and admin page surfaces and signs
// in as an admin.
func newPagesClient(t *testing.T) (*testClient, *sql.DB) {
	t.Helper()

	db := testDB(t)
	sm := testSessionManager(t)
	authHandler := NewAuthHandler(db, sm, nil)
	pagesHandler := NewPagesHandler(db)

	r := chi.NewRouter()
	r.Post("/auth/sign-in", authHandler.SignIn)
	r.Route("/api/v1/pages", func(r chi.Router) {
		r.Get("/", pagesHandler.ListPublished)
		r.Get("/{slug}", pagesHandler.GetPublished)
	})
	r.Route("/admin/pages", func(r chi.Router) {
		r.Use(middleware.Auth(sm))
		r.Use(middleware.LoadUser(sm, db))
		r.Use(middleware.RequireAdmin())

		r.Get("/", pagesHandler.AdminList)
		r.Post("/", pagesHandler.AdminCreate)
		r.Get("/{id}", pagesHandler.AdminGet)
		r.Put("/{id}", pagesHandler.AdminUpdate)
		r.Delete("/{id}", pagesHandler.AdminDelete)
		r.Post("/{id}/publish", pagesHandler.AdminPublish)
		r.Post("/{id}/unpublish", pagesHandler.AdminUnpublish)
	})

	createTestUser(t, db, testUser{Email: "admin@example.com", Role: "admin", Password: "Admin1Password"})

	c := newTestClient(t, sm, r)
	rec := postJSON(t, c, "/auth/sign-in", map[string]any{
		"email":    "admin@example.com",
		"password": "Admin1Password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin sign-in = %d: %s", rec.Code, rec.Body.String())
	}
	return c, db
}

func createPage(t *testing.T, c *testClient, title, slug, body string) string {
	t.Helper()
	rec := postJSON(t, c, "/admin/pages", map[string]any{
		"title": title,
		"slug":  slug,
		"body":  body,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create page = %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	id, _ := data["id"].(string)
	if id == "" {
		t.Fatal("created page has no id")
	}
	return id
}

func TestPages_DraftInvisiblePublicly(t *testing.T) {
	c, _ := newPagesClient(t)
	createPage(t, c, "Hidden Draft", "hidden-draft", "secret")

	rec := c.do(httptest.NewRequest(http.MethodGet, "/api/v1/pages/hidden-draft", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("draft fetch = %d, want 404", rec.Code)
	}

	rec = c.do(httptest.NewRequest(http.MethodGet, "/api/v1/pages", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 0 {
		t.Errorf("public listing contains %d pages, want 0", len(envelope.Data))
	}
}

func TestPages_PublishLifecycle(t *testing.T) {
	c, _ := newPagesClient(t)
	id := createPage(t, c, "About Us", "about", "# Hello\n\nSome **markdown**.")

	rec := postJSON(t, c, "/admin/pages/"+id+"/publish", map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("publish = %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if data["status"] != "published" {
		t.Errorf("status = %v, want published", data["status"])
	}
	if data["published_at"] == nil {
		t.Error("published_at not set")
	}
	firstPublishedAt := data["published_at"]

	// Re-publishing keeps the original timestamp
	rec = postJSON(t, c, "/admin/pages/"+id+"/publish", map[string]any{})
	if got := decodeData(t, rec)["published_at"]; got != firstPublishedAt {
		t.Errorf("published_at changed on re-publish: %v -> %v", firstPublishedAt, got)
	}

	// Now visible publicly with rendered HTML
	pub := c.do(httptest.NewRequest(http.MethodGet, "/api/v1/pages/about", nil))
	if pub.Code != http.StatusOK {
		t.Fatalf("public fetch = %d: %s", pub.Code, pub.Body.String())
	}
	pubData := decodeData(t, pub)
	html, _ := pubData["html"].(string)
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<strong>markdown</strong>") {
		t.Errorf("html not rendered: %q", html)
	}

	// Unpublish hides it again
	rec = postJSON(t, c, "/admin/pages/"+id+"/unpublish", map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("unpublish = %d", rec.Code)
	}
	pub = c.do(httptest.NewRequest(http.MethodGet, "/api/v1/pages/about", nil))
	if pub.Code != http.StatusNotFound {
		t.Errorf("fetch after unpublish = %d, want 404", pub.Code)
	}
}

func TestPages_HTMLSanitized(t *testing.T) {
	c, _ := newPagesClient(t)
	id := createPage(t, c, "Evil", "evil", "hello <script>alert(1)</script> <img src=x onerror=alert(1)>")

	postJSON(t, c, "/admin/pages/"+id+"/publish", map[string]any{})

	rec := c.do(httptest.NewRequest(http.MethodGet, "/api/v1/pages/evil", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("fetch = %d", rec.Code)
	}
	html, _ := decodeData(t, rec)["html"].(string)
	if strings.Contains(html, "<script") || strings.Contains(html, "onerror") {
		t.Errorf("html not sanitized: %q", html)
	}
}

func TestPages_SlugGeneratedFromTitle(t *testing.T) {
	c, _ := newPagesClient(t)

	rec := postJSON(t, c, "/admin/pages", map[string]any{
		"title": "Héllo, Wörld!",
		"body":  "x",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	if slug := decodeData(t, rec)["slug"]; slug != "hello-world" {
		t.Errorf("slug = %v, want hello-world", slug)
	}
}

func TestPages_DuplicateSlug(t *testing.T) {
	c, _ := newPagesClient(t)
	createPage(t, c, "First", "taken", "x")

	rec := postJSON(t, c, "/admin/pages", map[string]any{
		"title": "Second",
		"slug":  "taken",
		"body":  "y",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate slug = %d, want 400", rec.Code)
	}
}

func TestPages_Update(t *testing.T) {
	c, _ := newPagesClient(t)
	id := createPage(t, c, "Old Title", "old-title", "old body")

	payload, _ := json.Marshal(map[string]any{
		"title": "New Title",
		"slug":  "new-title",
		"body":  "new body",
	})
	req := httptest.NewRequest(http.MethodPut, "/admin/pages/"+id, strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	rec := c.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if data["title"] != "New Title" || data["slug"] != "new-title" || data["body"] != "new body" {
		t.Errorf("update not applied: %v", data)
	}
}

func TestPages_Delete(t *testing.T) {
	c, _ := newPagesClient(t)
	id := createPage(t, c, "Ephemeral", "ephemeral", "x")

	req := httptest.NewRequest(http.MethodDelete, "/admin/pages/"+id, nil)
	rec := c.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete = %d: %s", rec.Code, rec.Body.String())
	}

	get := c.do(httptest.NewRequest(http.MethodGet, "/admin/pages/"+id, nil))
	if get.Code != http.StatusNotFound {
		t.Errorf("fetch after delete = %d, want 404", get.Code)
	}
}
