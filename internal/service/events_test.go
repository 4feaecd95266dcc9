// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/inkwell-cms/inkwell/internal/model"
	"github.com/inkwell-cms/inkwell/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "inkwell-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return db
}

func TestLogAuthEvent(t *testing.T) {
	db := testDB(t)
	svc := NewEventService(db)
	ctx := context.Background()

	q := store.New(db)
	now := time.Now()
	user, err := q.CreateUser(ctx, store.CreateUserParams{
		PublicID:     "u-test",
		Email:        "test@example.com",
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	err = svc.LogAuthEvent(ctx, model.EventLevelInfo, "user signed in", &user.ID, "192.0.2.1", map[string]any{
		"email": user.Email,
	})
	if err != nil {
		t.Fatalf("LogAuthEvent: %v", err)
	}

	events, err := q.ListEvents(ctx, store.ListEventsParams{Limit: 10, Offset: 0})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("ListEvents returned %d events, want 1", len(events))
	}
	latest := events[0]
	if latest.Category != model.EventCategoryAuth {
		t.Errorf("Category = %q, want %q", latest.Category, model.EventCategoryAuth)
	}
	if latest.IP != "192.0.2.1" {
		t.Errorf("IP = %q, want %q", latest.IP, "192.0.2.1")
	}
	if !latest.UserID.Valid || latest.UserID.Int64 != user.ID {
		t.Errorf("UserID = %v, want %d", latest.UserID, user.ID)
	}
}

func TestLogEvent_MetadataJSON(t *testing.T) {
	db := testDB(t)
	svc := NewEventService(db)
	ctx := context.Background()

	err := svc.LogUserEvent(ctx, model.EventLevelWarning, "user deleted", nil, "", map[string]any{
		"target": "u-123",
	})
	if err != nil {
		t.Fatalf("LogUserEvent: %v", err)
	}

	q := store.New(db)
	events, err := q.ListEvents(ctx, store.ListEventsParams{Limit: 1, Offset: 0})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if events[0].Metadata != `{"target":"u-123"}` {
		t.Errorf("Metadata = %q", events[0].Metadata)
	}
}

func TestDeleteOldEvents(t *testing.T) {
	db := testDB(t)
	svc := NewEventService(db)
	ctx := context.Background()

	q := store.New(db)
	_, err := q.CreateEvent(ctx, store.CreateEventParams{
		Level:     model.EventLevelInfo,
		Category:  model.EventCategorySystem,
		Message:   "old event",
		Metadata:  "{}",
		CreatedAt: time.Now().AddDate(0, 0, -100),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	if err := svc.LogSystemEvent(ctx, model.EventLevelInfo, "fresh event", nil, "", nil); err != nil {
		t.Fatalf("LogSystemEvent: %v", err)
	}

	purged, err := svc.DeleteOldEvents(ctx, 90*24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
}
