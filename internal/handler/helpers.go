// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the HTTP endpoints: authentication,
// admin user management, pages, events, and health checks.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/inkwell-cms/inkwell/internal/handler/api"
)

// decodeJSON reads a JSON request body into dst. It rejects bodies over
// maxBodyBytes and trailing garbage after the JSON value. On failure a
// 400 response has already been written and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		api.WriteValidationError(w, map[string]string{"body": "Invalid JSON"})
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		api.WriteValidationError(w, map[string]string{"body": "Invalid JSON"})
		return false
	}
	return true
}

// validEmail reports whether s looks like a single RFC 5322 address.
func validEmail(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// clientIP extracts the client IP, preferring reverse proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// Take the first hop
		if i := strings.IndexByte(ip, ','); i >= 0 {
			ip = ip[:i]
		}
		return strings.TrimSpace(ip)
	}
	return r.RemoteAddr
}

// Pagination defaults and bounds for list endpoints.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// parsePagination reads page/per_page query parameters and returns the
// page number, page size, and the corresponding LIMIT/OFFSET values.
func parsePagination(r *http.Request) (page, perPage int, limit, offset int64) {
	page = 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	perPage = DefaultPerPage
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			perPage = n
		}
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	return page, perPage, int64(perPage), int64(page-1) * int64(perPage)
}

// pageCount returns the number of pages needed for total items.
func pageCount(total int64, perPage int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
