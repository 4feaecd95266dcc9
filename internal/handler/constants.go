// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamSlug is the slug parameter pattern.
	RouteParamSlug = "/{slug}"

	// RouteSignUp is the sign-up route.
	RouteSignUp = "/sign-up"
	// RouteSignIn is the sign-in route.
	RouteSignIn = "/sign-in"
	// RouteSignOut is the sign-out route.
	RouteSignOut = "/sign-out"
	// RouteChangePassword is the change-password route.
	RouteChangePassword = "/change-password"

	// RouteResetPassword is the admin password-reset route.
	RouteResetPassword = "/reset-password"
	// RouteDelete is the admin delete route.
	RouteDelete = "/delete"
	// RoutePublish is the page publish route.
	RoutePublish = "/{id}/publish"
	// RouteUnpublish is the page unpublish route.
	RouteUnpublish = "/{id}/unpublish"
)

// maxBodyBytes caps the size of accepted JSON request bodies.
const maxBodyBytes = 1 << 20 // 1MB
