// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// DefaultWrap is the word wrap width for rendered markdown.
const DefaultWrap = 80

// Plain shows markdown as is.
type Plain struct{}

// Render returns text unchanged.
func (Plain) Render(text string) string { return text }

// Markdown renders markdown with glamour. It is safe for concurrent use.
type Markdown struct {
	mu sync.Mutex
	r  *glamour.TermRenderer
}

// NewMarkdown creates a markdown renderer. style is a glamour standard style
// name ("dark", "light", "notty") or "auto" to detect the terminal.
func NewMarkdown(style string, wrap int) (*Markdown, error) {
	if wrap <= 0 {
		wrap = DefaultWrap
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wrap)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return &Markdown{r: r}, nil
}

// Render renders text, falling back to the raw text if glamour fails.
// Surrounding blank lines added by glamour are removed.
func (m *Markdown) Render(text string) string {
	if text == "" {
		return ""
	}
	m.mu.Lock()
	out, err := m.r.Render(text)
	m.mu.Unlock()
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
