// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const createPage = `
INSERT INTO pages (public_id, slug, title, body, status, author_id, created_at, updated_at, published_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, public_id, slug, title, body, status, author_id, created_at, updated_at, published_at
`

// CreatePageParams holds the fields for CreatePage.
type CreatePageParams struct {
	PublicID    string
	Slug        string
	Title       string
	Body        string
	Status      string
	AuthorID    sql.NullInt64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt sql.NullTime
}

// CreatePage inserts a page and returns the stored row.
func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, createPage,
		arg.PublicID,
		arg.Slug,
		arg.Title,
		arg.Body,
		arg.Status,
		arg.AuthorID,
		arg.CreatedAt,
		arg.UpdatedAt,
		arg.PublishedAt,
	)
	var p Page
	err := row.Scan(
		&p.ID,
		&p.PublicID,
		&p.Slug,
		&p.Title,
		&p.Body,
		&p.Status,
		&p.AuthorID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.PublishedAt,
	)
	return p, err
}

const getPageByPublicID = `
SELECT id, public_id, slug, title, body, status, author_id, created_at, updated_at, published_at
FROM pages WHERE public_id = ?
`

// GetPageByPublicID returns the page with the given public identifier.
func (q *Queries) GetPageByPublicID(ctx context.Context, publicID string) (Page, error) {
	row := q.db.QueryRowContext(ctx, getPageByPublicID, publicID)
	var p Page
	err := row.Scan(
		&p.ID,
		&p.PublicID,
		&p.Slug,
		&p.Title,
		&p.Body,
		&p.Status,
		&p.AuthorID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.PublishedAt,
	)
	return p, err
}

const getPageBySlug = `
SELECT id, public_id, slug, title, body, status, author_id, created_at, updated_at, published_at
FROM pages WHERE slug = ?
`

// GetPageBySlug returns the page with the given slug.
func (q *Queries) GetPageBySlug(ctx context.Context, slug string) (Page, error) {
	row := q.db.QueryRowContext(ctx, getPageBySlug, slug)
	var p Page
	err := row.Scan(
		&p.ID,
		&p.PublicID,
		&p.Slug,
		&p.Title,
		&p.Body,
		&p.Status,
		&p.AuthorID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.PublishedAt,
	)
	return p, err
}

const getPublishedPageBySlug = `
SELECT id, public_id, slug, title, body, status, author_id, created_at, updated_at, published_at
FROM pages WHERE slug = ? AND status = 'published'
`

// GetPublishedPageBySlug returns the page with the given slug only if
// it is published.
func (q *Queries) GetPublishedPageBySlug(ctx context.Context, slug string) (Page, error) {
	row := q.db.QueryRowContext(ctx, getPublishedPageBySlug, slug)
	var p Page
	err := row.Scan(
		&p.ID,
		&p.PublicID,
		&p.Slug,
		&p.Title,
		&p.Body,
		&p.Status,
		&p.AuthorID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.PublishedAt,
	)
	return p, err
}

const listPages = `
SELECT id, public_id, slug, title, body, status, author_id, created_at, updated_at, published_at
FROM pages ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?
`

// ListPagesParams holds pagination bounds for ListPages.
type ListPagesParams struct {
	Limit  int64
	Offset int64
}

// ListPages returns a page of pages regardless of status, most recently
// updated first.
func (q *Queries) ListPages(ctx context.Context, arg ListPagesParams) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx, listPages, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPages(rows)
}

const listPublishedPages = `
SELECT id, public_id, slug, title, body, status, author_id, created_at, updated_at, published_at
FROM pages WHERE status = 'published' ORDER BY published_at DESC, id DESC LIMIT ? OFFSET ?
`

// ListPublishedPagesParams holds pagination bounds for ListPublishedPages.
type ListPublishedPagesParams struct {
	Limit  int64
	Offset int64
}

// ListPublishedPages returns a page of published pages, newest first.
func (q *Queries) ListPublishedPages(ctx context.Context, arg ListPublishedPagesParams) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx, listPublishedPages, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPages(rows)
}

func scanPages(rows *sql.Rows) ([]Page, error) {
	var items []Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(
			&p.ID,
			&p.PublicID,
			&p.Slug,
			&p.Title,
			&p.Body,
			&p.Status,
			&p.AuthorID,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.PublishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countPages = `SELECT COUNT(*) FROM pages`

// CountPages returns the total number of pages.
func (q *Queries) CountPages(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPages)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countPublishedPages = `SELECT COUNT(*) FROM pages WHERE status = 'published'`

// CountPublishedPages returns the number of published pages.
func (q *Queries) CountPublishedPages(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPublishedPages)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updatePage = `
UPDATE pages SET slug = ?, title = ?, body = ?, updated_at = ? WHERE id = ?
`

// UpdatePageParams holds the fields for UpdatePage.
type UpdatePageParams struct {
	Slug      string
	Title     string
	Body      string
	UpdatedAt time.Time
	ID        int64
}

// UpdatePage replaces a page's editable fields.
func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) error {
	_, err := q.db.ExecContext(ctx, updatePage,
		arg.Slug,
		arg.Title,
		arg.Body,
		arg.UpdatedAt,
		arg.ID,
	)
	return err
}

const updatePageStatus = `
UPDATE pages SET status = ?, published_at = ?, updated_at = ? WHERE id = ?
`

// UpdatePageStatusParams holds the fields for UpdatePageStatus.
type UpdatePageStatusParams struct {
	Status      string
	PublishedAt sql.NullTime
	UpdatedAt   time.Time
	ID          int64
}

// UpdatePageStatus moves a page between draft and published.
func (q *Queries) UpdatePageStatus(ctx context.Context, arg UpdatePageStatusParams) error {
	_, err := q.db.ExecContext(ctx, updatePageStatus,
		arg.Status,
		arg.PublishedAt,
		arg.UpdatedAt,
		arg.ID,
	)
	return err
}

const deletePage = `DELETE FROM pages WHERE id = ?`

// DeletePage removes a page row.
func (q *Queries) DeletePage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePage, id)
	return err
}
