// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON response envelope and error codes
// shared by all HTTP handlers and middleware.
package api

import (
	"encoding/json"
	"net/http"
)

// Error codes returned in the error envelope. Clients match on these,
// so they are part of the API contract.
const (
	CodeValidationError    = "validation_error"
	CodeWeakPassword       = "weak_password"
	CodeDuplicateEmail     = "duplicate_email"
	CodeInvalidCredentials = "invalid_credentials"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeRateLimited        = "rate_limited"
	CodeInternalError      = "internal_error"
)

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination and other metadata.
type Meta struct {
	Total   int64 `json:"total,omitempty"`
	Page    int   `json:"page,omitempty"`
	PerPage int   `json:"per_page,omitempty"`
	Pages   int   `json:"pages,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteValidationError writes a 400 Bad Request response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, "Validation failed", fieldErrors)
}

// WriteWeakPassword writes a 400 Bad Request response carrying the
// password policy message.
func WriteWeakPassword(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeWeakPassword, message, nil)
}

// WriteDuplicateEmail writes a 409 Conflict response.
func WriteDuplicateEmail(w http.ResponseWriter) {
	WriteError(w, http.StatusConflict, CodeDuplicateEmail, "Email address is already registered", nil)
}

// WriteInvalidCredentials writes a 401 Unauthorized response. The
// message never distinguishes unknown email from wrong password.
func WriteInvalidCredentials(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password", nil)
}

// WriteForbidden writes a 403 Forbidden response. The same message is
// used for missing sessions and insufficient roles so callers cannot
// map which admin routes exist.
func WriteForbidden(w http.ResponseWriter) {
	WriteError(w, http.StatusForbidden, CodeForbidden, "Forbidden", nil)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message, nil)
}

// WriteRateLimited writes a 429 Too Many Requests response.
func WriteRateLimited(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, CodeRateLimited, message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message, nil)
}
