// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

// MinPasswordLength is the minimum number of characters accepted
// by the password policy.
const MinPasswordLength = 8

// Password policy messages. Returned verbatim to API clients so they
// must stay stable.
const (
	MsgPasswordRequired  = "Password is required"
	MsgPasswordTooShort  = "Password must be at least 8 characters"
	MsgPasswordTooSimple = "Password must contain at least one uppercase letter and one number"
)

// ValidatePassword checks a candidate password against the policy:
// at least MinPasswordLength characters, at least one ASCII uppercase
// letter and at least one ASCII digit. Returns an empty string when the
// password is acceptable, otherwise the first applicable policy message.
// Checks run in a fixed order so the caller always gets a deterministic
// message.
func ValidatePassword(password string) string {
	if password == "" {
		return MsgPasswordRequired
	}
	if len([]rune(password)) < MinPasswordLength {
		return MsgPasswordTooShort
	}

	// Only A-Z and 0-9 satisfy the complexity classes. Uppercase or
	// digit runes outside ASCII do not count.
	var hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		}
		if hasUpper && hasDigit {
			return ""
		}
	}
	return MsgPasswordTooSimple
}
