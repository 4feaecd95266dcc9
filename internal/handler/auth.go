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

// SessionKeyUserID is the session key for storing the authenticated user ID.
const SessionKeyUserID = session.UserIDKey

// AuthHandler handles authentication routes.
type AuthHandler struct {
	queries         *store.Queries
	sessionManager  *scs.SessionManager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		sessionManager:  sm,
		eventService:    service.NewEventService(db),
		loginProtection: lp,
	}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SignUp handles POST /auth/sign-up. New accounts always get the
// regular user role regardless of request contents.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if !validEmail(req.Email) {
		api.WriteValidationError(w, map[string]string{"email": "A valid email address is required"})
		return
	}

	if msg := auth.ValidatePassword(req.Password); msg != "" {
		api.WriteWeakPassword(w, msg)
		return
	}

	if _, err := h.queries.GetUserByEmail(r.Context(), req.Email); err == nil {
		api.WriteDuplicateEmail(w)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		slog.Error("database error during sign-up", "error", err)
		api.WriteInternalError(w, "Failed to create account")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("password hashing failed", "error", err)
		api.WriteInternalError(w, "Failed to create account")
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		PublicID:     uuid.NewString(),
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// Concurrent sign-up for the same email loses the race here.
		if strings.Contains(err.Error(), "UNIQUE") {
			api.WriteDuplicateEmail(w)
			return
		}
		slog.Error("failed to create user", "error", err)
		api.WriteInternalError(w, "Failed to create account")
		return
	}

	slog.Info("user signed up", "user_id", user.PublicID, "email", user.Email)
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User signed up", &user.ID, clientIP(r), map[string]any{"email": user.Email})

	api.WriteCreated(w, userView(user))
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResponse carries the signed-in user. When
// requires_password_change is true no usable session accompanies it.
type SignInResponse struct {
	User UserView `json:"user"`
}

// SignIn handles POST /auth/sign-in. The 401 response is identical for
// unknown emails and wrong passwords.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ip := clientIP(r)

	if req.Email == "" || req.Password == "" {
		api.WriteInvalidCredentials(w)
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(req.Email); locked {
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Sign-in attempt on locked account", nil, ip, map[string]any{"email": req.Email})
			api.WriteRateLimited(w, "Account temporarily locked. Try again in "+remaining.Round(time.Second).String()+".")
			return
		}
	}

	user, err := h.queries.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("database error during sign-in", "error", err)
			api.WriteInternalError(w, "Failed to sign in")
			return
		}
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Sign-in failed: user not found", nil, ip, map[string]any{"email": req.Email})
		// Record a failed attempt even for unknown emails so account
		// enumeration costs the same as password guessing.
		h.recordFailure(w, req.Email)
		return
	}

	valid, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err, "user_id", user.ID)
		api.WriteInvalidCredentials(w)
		return
	}
	if !valid {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Sign-in failed: invalid password", &user.ID, ip, map[string]any{"email": req.Email})
		h.recordFailure(w, req.Email)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(req.Email)
	}

	// Re-hash if the stored hash uses outdated parameters.
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(req.Password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
				PasswordHash:           newHash,
				RequiresPasswordChange: user.RequiresPasswordChange,
				UpdatedAt:              time.Now(),
				ID:                     user.ID,
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), store.UpdateUserLastLoginParams{
		LastLoginAt: time.Now(),
		ID:          user.ID,
	}); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("session renewal error", "error", err)
		api.WriteInternalError(w, "Failed to sign in")
		return
	}
	h.sessionManager.Put(r.Context(), SessionKeyUserID, user.ID)

	// A user pending a forced password change authenticates but gets no
	// usable session: the one just created is destroyed before the
	// response leaves, and the client must go through change-password.
	if user.RequiresPasswordChange {
		if err := h.sessionManager.Destroy(r.Context()); err != nil {
			slog.Error("failed to destroy provisional session", "error", err, "user_id", user.ID)
			api.WriteInternalError(w, "Failed to sign in")
			return
		}
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "Sign-in pending password change", &user.ID, ip, map[string]any{"email": user.Email})
		api.WriteSuccess(w, SignInResponse{User: userView(user)}, nil)
		return
	}

	slog.Info("user signed in", "user_id", user.PublicID, "email", user.Email)
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User signed in", &user.ID, ip, map[string]any{"email": user.Email})

	api.WriteSuccess(w, SignInResponse{User: userView(user)}, nil)
}

// recordFailure tracks a failed sign-in and writes either a lockout 429
// or the uniform 401.
func (h *AuthHandler) recordFailure(w http.ResponseWriter, email string) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
			api.WriteRateLimited(w, "Account temporarily locked. Try again in "+lockDuration.Round(time.Second).String()+".")
			return
		}
	}
	api.WriteInvalidCredentials(w)
}

// SignOut handles POST /auth/sign-out.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), SessionKeyUserID)
	if userID == 0 {
		api.WriteForbidden(w)
		return
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("failed to destroy session", "error", err, "user_id", userID)
		api.WriteInternalError(w, "Failed to sign out")
		return
	}

	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User signed out", &userID, clientIP(r), nil)
	api.WriteNoContent(w)
}

type changePasswordRequest struct {
	Email               string `json:"email"`
	CurrentPassword     string `json:"current_password"`
	NewPassword         string `json:"new_password"`
	ConfirmPassword     string `json:"confirm_password"`
	RevokeOtherSessions *bool  `json:"revoke_other_sessions"`
}

// ChangePassword handles POST /auth/change-password in two modes. With
// a valid session the session user changes their own password. Without
// one, email plus current_password re-authenticate internally; this is
// how accounts pending a forced change get back in. The order is fixed:
// authorize, validate, mutate, revoke.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ip := clientIP(r)

	var user store.User
	var err error
	sessionUserID := h.sessionManager.GetInt64(r.Context(), SessionKeyUserID)
	forcedFlow := sessionUserID == 0

	if forcedFlow {
		if req.Email == "" || req.CurrentPassword == "" {
			api.WriteInvalidCredentials(w)
			return
		}
		user, err = h.queries.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				slog.Error("database error during password change", "error", err)
				api.WriteInternalError(w, "Failed to change password")
				return
			}
			api.WriteInvalidCredentials(w)
			return
		}
	} else {
		user, err = h.queries.GetUserByID(r.Context(), sessionUserID)
		if err != nil {
			_ = h.sessionManager.Destroy(r.Context())
			api.WriteForbidden(w)
			return
		}
	}

	valid, err := auth.CheckPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil || !valid {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Password change failed: invalid current password", &user.ID, ip, nil)
		api.WriteInvalidCredentials(w)
		return
	}

	if msg := auth.ValidatePassword(req.NewPassword); msg != "" {
		api.WriteWeakPassword(w, msg)
		return
	}
	if req.NewPassword == req.CurrentPassword {
		api.WriteValidationError(w, map[string]string{"new_password": "New password must differ from the current password"})
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.NewPassword {
		api.WriteValidationError(w, map[string]string{"confirm_password": "Passwords do not match"})
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		slog.Error("password hashing failed", "error", err)
		api.WriteInternalError(w, "Failed to change password")
		return
	}

	if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
		PasswordHash:           newHash,
		RequiresPasswordChange: false,
		UpdatedAt:              time.Now(),
		ID:                     user.ID,
	}); err != nil {
		slog.Error("failed to update password", "error", err, "user_id", user.ID)
		api.WriteInternalError(w, "Failed to change password")
		return
	}

	// Revocation runs after the mutation so stolen sessions die with
	// the old password.
	if forcedFlow {
		if err := session.RevokeUser(r.Context(), h.sessionManager, user.ID, ""); err != nil {
			slog.Error("failed to revoke sessions", "error", err, "user_id", user.ID)
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Password changed but session revocation failed", &user.ID, ip, nil)
			api.WriteInternalError(w, "Failed to change password")
			return
		}
		// Issue a fresh session so the user is signed in with the new
		// password.
		if err := h.sessionManager.RenewToken(r.Context()); err != nil {
			slog.Error("session renewal error", "error", err)
			api.WriteInternalError(w, "Failed to change password")
			return
		}
		h.sessionManager.Put(r.Context(), SessionKeyUserID, user.ID)
	} else if req.RevokeOtherSessions == nil || *req.RevokeOtherSessions {
		keep := h.sessionManager.Token(r.Context())
		if err := session.RevokeUser(r.Context(), h.sessionManager, user.ID, keep); err != nil {
			slog.Error("failed to revoke sessions", "error", err, "user_id", user.ID)
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Password changed but session revocation failed", &user.ID, ip, nil)
			api.WriteInternalError(w, "Failed to change password")
			return
		}
	}

	user, err = h.queries.GetUserByID(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to reload user", "error", err)
		api.WriteInternalError(w, "Failed to change password")
		return
	}

	slog.Info("password changed", "user_id", user.PublicID)
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "Password changed", &user.ID, ip, map[string]any{"forced_flow": forcedFlow})

	api.WriteSuccess(w, SignInResponse{User: userView(user)}, nil)
}
