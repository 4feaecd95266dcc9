// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Basic(t *testing.T) {
	html, err := Render("# Title\n\nSome **bold** text.")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<strong>bold</strong>")
}

func TestRender_StripsScript(t *testing.T) {
	html, err := Render("Hello <script>alert('xss')</script> world")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script")
}

func TestRender_StripsEventHandlers(t *testing.T) {
	html, err := Render(`<img src="x" onerror="alert(1)">`)
	require.NoError(t, err)
	assert.NotContains(t, html, "onerror")
}

func TestRender_KeepsSafeFormatting(t *testing.T) {
	html, err := Render("[link](https://example.com) and `code`")
	require.NoError(t, err)
	assert.Contains(t, html, `<a href="https://example.com"`)
	assert.Contains(t, html, "<code>code</code>")
}

func TestRender_GFMTable(t *testing.T) {
	html, err := Render("| a | b |\n|---|---|\n| 1 | 2 |")
	require.NoError(t, err)
	assert.Contains(t, html, "<table")
}
