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

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"

	"github.com/inkwell-cms/inkwell/internal/auth"
	"github.com/inkwell-cms/inkwell/internal/handler/api"
	"github.com/inkwell-cms/inkwell/internal/middleware"
	"github.com/inkwell-cms/inkwell/internal/model"
	"github.com/inkwell-cms/inkwell/internal/service"
	"github.com/inkwell-cms/inkwell/internal/session"
	"github.com/inkwell-cms/inkwell/internal/store"
)

// UsersHandler handles admin user management routes.
type UsersHandler struct {
	queries        *store.Queries
	sessionManager *scs.SessionManager
	eventService   *service.EventService
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(db *sql.DB, sm *scs.SessionManager) *UsersHandler {
	return &UsersHandler{
		queries:        store.New(db),
		sessionManager: sm,
		eventService:   service.NewEventService(db),
	}
}

// List handles GET /admin/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage, limit, offset := parsePagination(r)

	total, err := h.queries.CountUsers(r.Context())
	if err != nil {
		slog.Error("failed to count users", "error", err)
		api.WriteInternalError(w, "Failed to list users")
		return
	}

	users, err := h.queries.ListUsers(r.Context(), store.ListUsersParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		slog.Error("failed to list users", "error", err)
		api.WriteInternalError(w, "Failed to list users")
		return
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, userView(u))
	}

	api.WriteSuccess(w, views, &api.Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   pageCount(total, perPage),
	})
}

type createUserRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TempPassword string `json:"temp_password"`
}

// CreateUserResponse returns the created user and the plaintext
// temporary password. The plaintext appears here exactly once and is
// never stored or logged.
type CreateUserResponse struct {
	User         UserView `json:"user"`
	TempPassword string   `json:"temp_password"`
}

// Create handles POST /admin/users. The account always starts with
// requires_password_change set so the temporary password cannot become
// permanent.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if !validEmail(req.Email) {
		api.WriteValidationError(w, map[string]string{"email": "A valid email address is required"})
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if !model.IsValidRole(req.Role) {
		api.WriteValidationError(w, map[string]string{"role": "Role must be user or admin"})
		return
	}

	tempPassword := req.TempPassword
	if tempPassword == "" {
		var err error
		tempPassword, err = auth.GenerateTempPassword()
		if err != nil {
			slog.Error("temp password generation failed", "error", err)
			api.WriteInternalError(w, "Failed to create user")
			return
		}
	}
	// Generated passwords satisfy the policy by construction, but the
	// check is authoritative for admin-supplied ones too.
	if msg := auth.ValidatePassword(tempPassword); msg != "" {
		api.WriteWeakPassword(w, msg)
		return
	}

	if _, err := h.queries.GetUserByEmail(r.Context(), req.Email); err == nil {
		api.WriteDuplicateEmail(w)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		slog.Error("database error during user creation", "error", err)
		api.WriteInternalError(w, "Failed to create user")
		return
	}

	passwordHash, err := auth.HashPassword(tempPassword)
	if err != nil {
		slog.Error("password hashing failed", "error", err)
		api.WriteInternalError(w, "Failed to create user")
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		PublicID:               uuid.NewString(),
		Email:                  req.Email,
		PasswordHash:           passwordHash,
		Name:                   req.Name,
		Role:                   req.Role,
		RequiresPasswordChange: true,
		CreatedAt:              now,
		UpdatedAt:              now,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			api.WriteDuplicateEmail(w)
			return
		}
		slog.Error("failed to create user", "error", err)
		api.WriteInternalError(w, "Failed to create user")
		return
	}

	actor := middleware.GetUser(r)
	slog.Info("user created by admin", "user_id", user.PublicID, "email", user.Email, "role", user.Role, "admin_id", actor.PublicID)
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo, "User created by admin", &actor.ID, clientIP(r), map[string]any{
		"target_user_id": user.PublicID,
		"role":           user.Role,
	})

	api.WriteCreated(w, CreateUserResponse{User: userView(user), TempPassword: tempPassword})
}

type resetPasswordRequest struct {
	UserID      string `json:"user_id"`
	NewPassword string `json:"new_password"`
}

// ResetPassword handles POST /admin/users/reset-password. Repeating the
// call with the same password yields the same end state.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.UserID == "" {
		api.WriteValidationError(w, map[string]string{"user_id": "User ID is required"})
		return
	}
	if msg := auth.ValidatePassword(req.NewPassword); msg != "" {
		api.WriteWeakPassword(w, msg)
		return
	}

	user, err := h.queries.GetUserByPublicID(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			api.WriteNotFound(w, "User not found")
			return
		}
		slog.Error("database error during password reset", "error", err)
		api.WriteInternalError(w, "Failed to reset password")
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		slog.Error("password hashing failed", "error", err)
		api.WriteInternalError(w, "Failed to reset password")
		return
	}

	if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
		PasswordHash:           passwordHash,
		RequiresPasswordChange: true,
		UpdatedAt:              time.Now(),
		ID:                     user.ID,
	}); err != nil {
		slog.Error("failed to reset password", "error", err, "user_id", user.ID)
		api.WriteInternalError(w, "Failed to reset password")
		return
	}

	if err := session.RevokeUser(r.Context(), h.sessionManager, user.ID, ""); err != nil {
		slog.Error("failed to revoke sessions", "error", err, "user_id", user.ID)
		_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelWarning, "Password reset but session revocation failed", &user.ID, clientIP(r), nil)
		api.WriteInternalError(w, "Failed to reset password")
		return
	}

	actor := middleware.GetUser(r)
	slog.Info("password reset by admin", "user_id", user.PublicID, "admin_id", actor.PublicID)
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo, "Password reset by admin", &actor.ID, clientIP(r), map[string]any{
		"target_user_id": user.PublicID,
	})

	user, err = h.queries.GetUserByID(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to reload user", "error", err)
		api.WriteInternalError(w, "Failed to reset password")
		return
	}

	api.WriteSuccess(w, userView(user), nil)
}

type deleteUserRequest struct {
	UserID string `json:"user_id"`
}

// Delete handles POST /admin/users/delete. Hard delete; any remaining
// sessions for the user die on the next authenticated request.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.UserID == "" {
		api.WriteValidationError(w, map[string]string{"user_id": "User ID is required"})
		return
	}

	user, err := h.queries.GetUserByPublicID(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			api.WriteNotFound(w, "User not found")
			return
		}
		slog.Error("database error during user deletion", "error", err)
		api.WriteInternalError(w, "Failed to delete user")
		return
	}

	actor := middleware.GetUser(r)
	if actor.ID == user.ID {
		api.WriteValidationError(w, map[string]string{"user_id": "You cannot delete your own account"})
		return
	}

	if user.Role == model.RoleAdmin {
		adminCount, err := h.queries.CountUsersByRole(r.Context(), model.RoleAdmin)
		if err != nil {
			slog.Error("failed to count admins", "error", err)
			api.WriteInternalError(w, "Failed to delete user")
			return
		}
		if adminCount <= 1 {
			api.WriteValidationError(w, map[string]string{"user_id": "Cannot delete the last administrator"})
			return
		}
	}

	if err := h.queries.DeleteUser(r.Context(), user.ID); err != nil {
		slog.Error("failed to delete user", "error", err, "user_id", user.ID)
		api.WriteInternalError(w, "Failed to delete user")
		return
	}

	if err := session.RevokeUser(r.Context(), h.sessionManager, user.ID, ""); err != nil {
		slog.Error("failed to revoke sessions", "error", err, "user_id", user.ID)
	}

	slog.Info("user deleted by admin", "user_id", user.PublicID, "admin_id", actor.PublicID)
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo, "User deleted by admin", &actor.ID, clientIP(r), map[string]any{
		"target_user_id": user.PublicID,
		"target_email":   user.Email,
	})

	api.WriteSuccess(w, map[string]bool{"deleted": true}, nil)
}
