// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styles used by the chat, upload and notification views.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// CHAT
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	Body           lipgloss.Style

	// Footer shows the server's metrics block under a reply
	Footer lipgloss.Style

	// Interrupted shows the annotation of a cancelled reply
	Interrupted lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style

	// ==========================================================================
	// LISTS AND STATUS
	// ==========================================================================

	Title     lipgloss.Style
	Badge     lipgloss.Style
	Unread    lipgloss.Style
	Separator lipgloss.Style
	Prompt    lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	return NewThemeWithProfile(termenv.ColorProfile(), termenv.HasDarkBackground())
}

// DetectProfile resolves a color setting ("auto", "always" or "never") to
// the profile used for output written to w. "auto" honours NO_COLOR and
// falls back to Ascii when w is not a terminal.
func DetectProfile(color string, w io.Writer) termenv.Profile {
	switch color {
	case "never":
		return termenv.Ascii
	case "always":
		if p := termenv.EnvColorProfile(); p != termenv.Ascii {
			return p
		}
		return termenv.ANSI256
	}
	return termenv.NewOutput(w).EnvColorProfile()
}

// NewThemeWithProfile creates a theme for an explicit color profile. With
// termenv.Ascii every style renders plain text.
func NewThemeWithProfile(profile termenv.Profile, isDark bool) *Theme {
	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// Plain reports whether the theme produces no escape sequences.
func (t *Theme) Plain() bool {
	return t.ColorProfile == termenv.Ascii
}

func (t *Theme) initStyles() {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(t.ColorProfile)
	r.SetHasDarkBackground(t.IsDark)
	s := r.NewStyle

	t.UserLabel = s().Bold(true).Foreground(Cyan)
	t.AssistantLabel = s().Bold(true).Foreground(Purple)
	t.Body = s().Foreground(TextPrimary)

	t.Footer = s().
		Foreground(TextMuted).
		Italic(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.Interrupted = s().Foreground(Amber).Italic(true)

	t.Error = s().Foreground(Rose).Bold(true)
	t.Success = s().Foreground(Emerald)
	t.Warning = s().Foreground(Amber)
	t.Info = s().Foreground(Cyan)
	t.Muted = s().Foreground(TextMuted)

	t.Title = s().Bold(true).Foreground(Purple)
	t.Badge = s().Bold(true).Foreground(Amber)
	t.Unread = s().Bold(true).Foreground(TextPrimary)
	t.Separator = s().Foreground(Overlay)
	t.Prompt = s().Bold(true).Foreground(Cyan)
}
