// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const createUser = `
INSERT INTO users (public_id, email, password_hash, name, role, requires_password_change, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, public_id, email, password_hash, name, role, requires_password_change, created_at, updated_at, last_login_at
`

// CreateUserParams holds the fields for CreateUser.
type CreateUserParams struct {
	PublicID               string
	Email                  string
	PasswordHash           string
	Name                   string
	Role                   string
	RequiresPasswordChange bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// CreateUser inserts a user and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.PublicID,
		arg.Email,
		arg.PasswordHash,
		arg.Name,
		arg.Role,
		arg.RequiresPasswordChange,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var u User
	err := row.Scan(
		&u.ID,
		&u.PublicID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.RequiresPasswordChange,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	return u, err
}

const getUserByID = `
SELECT id, public_id, email, password_hash, name, role, requires_password_change, created_at, updated_at, last_login_at
FROM users WHERE id = ?
`

// GetUserByID returns the user with the given internal id.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var u User
	err := row.Scan(
		&u.ID,
		&u.PublicID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.RequiresPasswordChange,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	return u, err
}

const getUserByPublicID = `
SELECT id, public_id, email, password_hash, name, role, requires_password_change, created_at, updated_at, last_login_at
FROM users WHERE public_id = ?
`

// GetUserByPublicID returns the user with the given public identifier.
func (q *Queries) GetUserByPublicID(ctx context.Context, publicID string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByPublicID, publicID)
	var u User
	err := row.Scan(
		&u.ID,
		&u.PublicID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.RequiresPasswordChange,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	return u, err
}

const getUserByEmail = `
SELECT id, public_id, email, password_hash, name, role, requires_password_change, created_at, updated_at, last_login_at
FROM users WHERE email = ? COLLATE NOCASE
`

// GetUserByEmail returns the user with the given email. The lookup is
// case-insensitive; the stored email keeps its original casing.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(
		&u.ID,
		&u.PublicID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.RequiresPasswordChange,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	return u, err
}

const listUsers = `
SELECT id, public_id, email, password_hash, name, role, requires_password_change, created_at, updated_at, last_login_at
FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?
`

// ListUsersParams holds pagination bounds for ListUsers.
type ListUsersParams struct {
	Limit  int64
	Offset int64
}

// ListUsers returns a page of users, newest first.
func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID,
			&u.PublicID,
			&u.Email,
			&u.PasswordHash,
			&u.Name,
			&u.Role,
			&u.RequiresPasswordChange,
			&u.CreatedAt,
			&u.UpdatedAt,
			&u.LastLoginAt,
		); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countUsers = `SELECT COUNT(*) FROM users`

// CountUsers returns the total number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsers)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countUsersByRole = `SELECT COUNT(*) FROM users WHERE role = ?`

// CountUsersByRole returns the number of users with the given role.
func (q *Queries) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsersByRole, role)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateUserPassword = `
UPDATE users SET password_hash = ?, requires_password_change = ?, updated_at = ? WHERE id = ?
`

// UpdateUserPasswordParams holds the fields for UpdateUserPassword.
type UpdateUserPasswordParams struct {
	PasswordHash           string
	RequiresPasswordChange bool
	UpdatedAt              time.Time
	ID                     int64
}

// UpdateUserPassword replaces the password hash and sets the
// forced-change flag.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword,
		arg.PasswordHash,
		arg.RequiresPasswordChange,
		arg.UpdatedAt,
		arg.ID,
	)
	return err
}

const updateUserLastLogin = `UPDATE users SET last_login_at = ? WHERE id = ?`

// UpdateUserLastLoginParams holds the fields for UpdateUserLastLogin.
type UpdateUserLastLoginParams struct {
	LastLoginAt time.Time
	ID          int64
}

// UpdateUserLastLogin records a successful sign-in time.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, arg UpdateUserLastLoginParams) error {
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, arg.LastLoginAt, arg.ID)
	return err
}

const updateUserRole = `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`

// UpdateUserRoleParams holds the fields for UpdateUserRole.
type UpdateUserRoleParams struct {
	Role      string
	UpdatedAt time.Time
	ID        int64
}

// UpdateUserRole changes a user's role.
func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) error {
	_, err := q.db.ExecContext(ctx, updateUserRole, arg.Role, arg.UpdatedAt, arg.ID)
	return err
}

const deleteUser = `DELETE FROM users WHERE id = ?`

// DeleteUser removes a user row.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}
