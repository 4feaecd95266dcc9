// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markdown renders Markdown to sanitized HTML for API output.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// htmlSanitizer strips dangerous elements like <script> and event
// handlers from rendered output. Page bodies are author-supplied, so
// everything goes through it.
var htmlSanitizer = bluemonday.UGCPolicy()

var renderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Render converts Markdown source to sanitized HTML.
func Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}
