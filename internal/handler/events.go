// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/inkwell-cms/inkwell/internal/handler/api"
	"github.com/inkwell-cms/inkwell/internal/store"
)

// EventsHandler exposes the audit log to administrators.
type EventsHandler struct {
	queries *store.Queries
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(db *sql.DB) *EventsHandler {
	return &EventsHandler{queries: store.New(db)}
}

// List handles GET /admin/events, newest first.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage, limit, offset := parsePagination(r)

	total, err := h.queries.CountEvents(r.Context())
	if err != nil {
		slog.Error("failed to count events", "error", err)
		api.WriteInternalError(w, "Failed to list events")
		return
	}

	events, err := h.queries.ListEvents(r.Context(), store.ListEventsParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		slog.Error("failed to list events", "error", err)
		api.WriteInternalError(w, "Failed to list events")
		return
	}

	views := make([]EventView, 0, len(events))
	for _, e := range events {
		views = append(views, eventView(e))
	}

	api.WriteSuccess(w, views, &api.Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   pageCount(total, perPage),
	})
}
