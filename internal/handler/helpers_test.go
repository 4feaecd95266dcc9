// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"first.last+tag@sub.example.org", true},
		{"", false},
		{"not-an-email", false},
		{"user@", false},
		{"@example.com", false},
		{"User Name <user@example.com>", false},
		{"user@example.com ", false},
		{strings.Repeat("a", 250) + "@b.co", false},
	}

	for _, tt := range tests {
		if got := validEmail(tt.email); got != tt.want {
			t.Errorf("validEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query      string
		wantPage   int
		wantPer    int
		wantOffset int64
	}{
		{"", 1, 20, 0},
		{"?page=3", 3, 20, 40},
		{"?page=2&per_page=50", 2, 50, 50},
		{"?per_page=1000", 1, 100, 0},
		{"?page=-1&per_page=0", 1, 20, 0},
		{"?page=abc", 1, 20, 0},
	}

	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/list"+tt.query, nil)
		page, perPage, limit, offset := parsePagination(r)
		if page != tt.wantPage || perPage != tt.wantPer {
			t.Errorf("parsePagination(%q) page=%d per=%d, want %d/%d", tt.query, page, perPage, tt.wantPage, tt.wantPer)
		}
		if limit != int64(tt.wantPer) || offset != tt.wantOffset {
			t.Errorf("parsePagination(%q) limit=%d offset=%d, want %d/%d", tt.query, limit, offset, tt.wantPer, tt.wantOffset)
		}
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		total   int64
		perPage int
		want    int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 100, 1},
	}

	for _, tt := range tests {
		if got := pageCount(tt.total, tt.perPage); got != tt.want {
			t.Errorf("pageCount(%d, %d) = %d, want %d", tt.total, tt.perPage, got, tt.want)
		}
	}
}

func TestDecodeJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"garbage", "{not json"},
		{"trailing", `{"a":1} extra`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/x", strings.NewReader(tt.body))
			var dst map[string]any
			if decodeJSON(rec, req, &dst) {
				t.Error("decodeJSON accepted invalid body")
			}
			if rec.Code != 400 {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
