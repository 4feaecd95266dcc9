// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkwell-cms/inkwell/internal/handler/api"
	"github.com/inkwell-cms/inkwell/internal/markdown"
	"github.com/inkwell-cms/inkwell/internal/middleware"
	"github.com/inkwell-cms/inkwell/internal/model"
	"github.com/inkwell-cms/inkwell/internal/service"
	"github.com/inkwell-cms/inkwell/internal/store"
	"github.com/inkwell-cms/inkwell/internal/util"
)

// PagesHandler handles the public page surface and admin page CRUD.
type PagesHandler struct {
	queries      *store.Queries
	eventService *service.EventService
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(db *sql.DB) *PagesHandler {
	return &PagesHandler{
		queries:      store.New(db),
		eventService: service.NewEventService(db),
	}
}

// ListPublished handles GET /api/v1/pages. Only published pages are
// visible and bodies are omitted from the listing.
func (h *PagesHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	page, perPage, limit, offset := parsePagination(r)

	total, err := h.queries.CountPublishedPages(r.Context())
	if err != nil {
		slog.Error("failed to count pages", "error", err)
		api.WriteInternalError(w, "Failed to list pages")
		return
	}

	pages, err := h.queries.ListPublishedPages(r.Context(), store.ListPublishedPagesParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		slog.Error("failed to list pages", "error", err)
		api.WriteInternalError(w, "Failed to list pages")
		return
	}

	views := make([]PageView, 0, len(pages))
	for _, p := range pages {
		views = append(views, pageView(p, false))
	}

	api.WriteSuccess(w, views, &api.Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   pageCount(total, perPage),
	})
}

// GetPublished handles GET /api/v1/pages/{slug}. The markdown body is
// rendered and sanitized on read.
func (h *PagesHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	p, err := h.queries.GetPublishedPageBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			api.WriteNotFound(w, "Page not found")
			return
		}
		slog.Error("failed to load page", "error", err, "slug", slug)
		api.WriteInternalError(w, "Failed to load page")
		return
	}

	html, err := markdown.Render(p.Body)
	if err != nil {
		slog.Error("markdown render failed", "error", err, "slug", slug)
		api.WriteInternalError(w, "Failed to load page")
		return
	}

	v := pageView(p, false)
	v.HTML = html
	api.WriteSuccess(w, v, nil)
}

// AdminList handles GET /admin/pages. Drafts are included.
func (h *PagesHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, perPage, limit, offset := parsePagination(r)

	total, err := h.queries.CountPages(r.Context())
	if err != nil {
		slog.Error("failed to count pages", "error", err)
		api.WriteInternalError(w, "Failed to list pages")
		return
	}

	pages, err := h.queries.ListPages(r.Context(), store.ListPagesParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		slog.Error("failed to list pages", "error", err)
		api.WriteInternalError(w, "Failed to list pages")
		return
	}

	views := make([]PageView, 0, len(pages))
	for _, p := range pages {
		views = append(views, pageView(p, false))
	}

	api.WriteSuccess(w, views, &api.Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   pageCount(total, perPage),
	})
}

// AdminGet handles GET /admin/pages/{id}. Returns the raw markdown
// body for editing.
func (h *PagesHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.loadPage(w, r)
	if err != nil {
		return
	}
	api.WriteSuccess(w, pageView(p, true), nil)
}

type pageRequest struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Body  string `json:"body"`
}

func (h *PagesHandler) validatePageRequest(req *pageRequest) map[string]string {
	req.Title = strings.TrimSpace(req.Title)
	req.Slug = strings.TrimSpace(req.Slug)

	if req.Title == "" {
		return map[string]string{"title": "Title is required"}
	}
	if req.Slug == "" {
		req.Slug = util.Slugify(req.Title)
	}
	if !util.IsValidSlug(req.Slug) {
		return map[string]string{"slug": "Slug may contain lowercase letters, numbers and hyphens"}
	}
	return nil
}

// AdminCreate handles POST /admin/pages. New pages start as drafts.
func (h *PagesHandler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if details := h.validatePageRequest(&req); details != nil {
		api.WriteValidationError(w, details)
		return
	}

	actor := middleware.GetUser(r)
	now := time.Now()
	p, err := h.queries.CreatePage(r.Context(), store.CreatePageParams{
		PublicID:  uuid.NewString(),
		Slug:      req.Slug,
		Title:     req.Title,
		Body:      req.Body,
		Status:    model.PageStatusDraft,
		AuthorID:  sql.NullInt64{Int64: actor.ID, Valid: true},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			api.WriteValidationError(w, map[string]string{"slug": "A page with this slug already exists"})
			return
		}
		slog.Error("failed to create page", "error", err)
		api.WriteInternalError(w, "Failed to create page")
		return
	}

	_ = h.eventService.LogPageEvent(r.Context(), model.EventLevelInfo, "Page created", &actor.ID, clientIP(r), map[string]any{"page_id": p.PublicID, "slug": p.Slug})
	api.WriteCreated(w, pageView(p, true))
}

// AdminUpdate handles PUT /admin/pages/{id}.
func (h *PagesHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	p, err := h.loadPage(w, r)
	if err != nil {
		return
	}

	var req pageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if details := h.validatePageRequest(&req); details != nil {
		api.WriteValidationError(w, details)
		return
	}

	if err := h.queries.UpdatePage(r.Context(), store.UpdatePageParams{
		Slug:      req.Slug,
		Title:     req.Title,
		Body:      req.Body,
		UpdatedAt: time.Now(),
		ID:        p.ID,
	}); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			api.WriteValidationError(w, map[string]string{"slug": "A page with this slug already exists"})
			return
		}
		slog.Error("failed to update page", "error", err, "page_id", p.ID)
		api.WriteInternalError(w, "Failed to update page")
		return
	}

	p, err = h.queries.GetPageByPublicID(r.Context(), p.PublicID)
	if err != nil {
		slog.Error("failed to reload page", "error", err)
		api.WriteInternalError(w, "Failed to update page")
		return
	}

	actor := middleware.GetUser(r)
	_ = h.eventService.LogPageEvent(r.Context(), model.EventLevelInfo, "Page updated", &actor.ID, clientIP(r), map[string]any{"page_id": p.PublicID, "slug": p.Slug})
	api.WriteSuccess(w, pageView(p, true), nil)
}

// AdminPublish handles POST /admin/pages/{id}/publish. Publishing an
// already-published page keeps the original published_at.
func (h *PagesHandler) AdminPublish(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.PageStatusPublished)
}

// AdminUnpublish handles POST /admin/pages/{id}/unpublish.
func (h *PagesHandler) AdminUnpublish(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.PageStatusDraft)
}

func (h *PagesHandler) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	p, err := h.loadPage(w, r)
	if err != nil {
		return
	}

	publishedAt := p.PublishedAt
	if status == model.PageStatusPublished && !publishedAt.Valid {
		publishedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}

	if err := h.queries.UpdatePageStatus(r.Context(), store.UpdatePageStatusParams{
		Status:      status,
		PublishedAt: publishedAt,
		UpdatedAt:   time.Now(),
		ID:          p.ID,
	}); err != nil {
		slog.Error("failed to update page status", "error", err, "page_id", p.ID)
		api.WriteInternalError(w, "Failed to update page")
		return
	}

	p, err = h.queries.GetPageByPublicID(r.Context(), p.PublicID)
	if err != nil {
		slog.Error("failed to reload page", "error", err)
		api.WriteInternalError(w, "Failed to update page")
		return
	}

	actor := middleware.GetUser(r)
	_ = h.eventService.LogPageEvent(r.Context(), model.EventLevelInfo, "Page status changed", &actor.ID, clientIP(r), map[string]any{"page_id": p.PublicID, "status": status})
	api.WriteSuccess(w, pageView(p, true), nil)
}

// AdminDelete handles DELETE /admin/pages/{id}.
func (h *PagesHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	p, err := h.loadPage(w, r)
	if err != nil {
		return
	}

	if err := h.queries.DeletePage(r.Context(), p.ID); err != nil {
		slog.Error("failed to delete page", "error", err, "page_id", p.ID)
		api.WriteInternalError(w, "Failed to delete page")
		return
	}

	actor := middleware.GetUser(r)
	_ = h.eventService.LogPageEvent(r.Context(), model.EventLevelInfo, "Page deleted", &actor.ID, clientIP(r), map[string]any{"page_id": p.PublicID, "slug": p.Slug})
	api.WriteSuccess(w, map[string]bool{"deleted": true}, nil)
}

// loadPage resolves {id} to a page, writing the error response itself
// on failure.
func (h *PagesHandler) loadPage(w http.ResponseWriter, r *http.Request) (store.Page, error) {
	id := chi.URLParam(r, "id")
	p, err := h.queries.GetPageByPublicID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			api.WriteNotFound(w, "Page not found")
			return store.Page{}, err
		}
		slog.Error("failed to load page", "error", err, "page_id", id)
		api.WriteInternalError(w, "Failed to load page")
		return store.Page{}, err
	}
	return p, nil
}
