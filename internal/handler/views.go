// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"time"

	"github.com/inkwell-cms/inkwell/internal/store"
)

// UserView is the serialized form of a user. The password hash and the
// internal integer id never appear here.
type UserView struct {
	ID                     string     `json:"id"`
	Email                  string     `json:"email"`
	Name                   string     `json:"name"`
	Role                   string     `json:"role"`
	RequiresPasswordChange bool       `json:"requires_password_change"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
	LastLoginAt            *time.Time `json:"last_login_at,omitempty"`
}

func userView(u store.User) UserView {
	v := UserView{
		ID:                     u.PublicID,
		Email:                  u.Email,
		Name:                   u.Name,
		Role:                   u.Role,
		RequiresPasswordChange: u.RequiresPasswordChange,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
	if u.LastLoginAt.Valid {
		t := u.LastLoginAt.Time
		v.LastLoginAt = &t
	}
	return v
}

// PageView is the serialized form of a page. HTML is present only on
// single-page reads where the body has been rendered.
type PageView struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Body        string     `json:"body,omitempty"`
	HTML        string     `json:"html,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func pageView(p store.Page, includeBody bool) PageView {
	v := PageView{
		ID:        p.PublicID,
		Slug:      p.Slug,
		Title:     p.Title,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if includeBody {
		v.Body = p.Body
	}
	if p.PublishedAt.Valid {
		t := p.PublishedAt.Time
		v.PublishedAt = &t
	}
	return v
}

// EventView is the serialized form of an audit event.
type EventView struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	IP        string    `json:"ip,omitempty"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

func eventView(e store.Event) EventView {
	return EventView{
		ID:        e.ID,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		IP:        e.IP,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}
