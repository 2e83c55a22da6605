// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"strings"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/chat"
	"github.com/jeranaias/docchat/internal/model"
	"github.com/jeranaias/docchat/internal/ui/styles"
	"github.com/jeranaias/docchat/internal/upload"
	"github.com/jeranaias/docchat/internal/util"
)

// progressWidth is the bar width used in notification and upload lines.
const progressWidth = 20

// Formatter styles the blocks around chat replies and status lines.
type Formatter struct {
	Theme *styles.Theme
}

// NewFormatter creates a formatter for theme. A nil theme is detected from
// the terminal.
func NewFormatter(theme *styles.Theme) *Formatter {
	if theme == nil {
		theme = styles.NewTheme()
	}
	return &Formatter{Theme: theme}
}

// =============================================================================
// CHAT
// =============================================================================

// Label returns the styled speaker label for role.
func (f *Formatter) Label(role model.Role) string {
	if role == model.RoleUser {
		return f.Theme.UserLabel.Render(role.DisplayName() + ":")
	}
	return f.Theme.AssistantLabel.Render(role.DisplayName() + ":")
}

// Footer returns the metrics footer block, or "" if there is none.
func (f *Formatter) Footer(footer string) string {
	footer = strings.TrimSpace(footer)
	if footer == "" {
		return ""
	}
	return f.Theme.Footer.Render(footer)
}

// Annotation returns the styled interruption note.
func (f *Formatter) Annotation(note string) string {
	if note == "" {
		return ""
	}
	return f.Theme.Interrupted.Render(note)
}

// Error returns a styled error line.
func (f *Formatter) Error(err error) string {
	return f.Theme.Error.Render("Error: " + err.Error())
}

// Tail returns what follows a streamed reply body once the session has
// terminated: the footer for a completed reply, the note for an aborted one
// and the error for a failed one.
func (f *Formatter) Tail(u chat.Update) string {
	var parts []string
	switch u.Status {
	case chat.StatusCompleted:
		if u.HasFooter {
			parts = append(parts, f.Footer(u.Footer))
		}
	case chat.StatusAborted:
		parts = append(parts, f.Annotation(u.Annotation))
	case chat.StatusFailed:
		if u.Err != nil {
			parts = append(parts, f.Error(u.Err))
		}
	}

	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

// Reply renders a whole terminal update: the body followed by its tail.
func (f *Formatter) Reply(u chat.Update) string {
	tail := f.Tail(u)
	switch {
	case u.Body == "":
		return tail
	case tail == "":
		return u.Body
	default:
		return u.Body + "\n\n" + tail
	}
}

// Message renders a stored transcript message with its label.
func (f *Formatter) Message(m model.Message, r chat.Renderer) string {
	body := m.Content
	if r != nil {
		body = r.Render(body)
	}
	out := f.Label(m.Role) + "\n" + body
	if m.Annotation != "" {
		out += "\n\n" + f.Annotation(m.Annotation)
	}
	return out
}

// =============================================================================
// UPLOADS AND NOTIFICATIONS
// =============================================================================

// UploadStatus renders one upload update as a status line.
func (f *Formatter) UploadStatus(u upload.Update) string {
	switch u.Kind {
	case upload.UpdateCompleted:
		return f.Theme.Success.Render(u.Text)
	case upload.UpdateError:
		return f.Theme.Error.Render(u.Text)
	}
	if u.Progress.Valid {
		return fmt.Sprintf("%s %s", f.Theme.Muted.Render("["+styles.RenderProgressBar(progressWidth, u.Progress.Percent)+"]"), u.Text)
	}
	return u.Text
}

// Notification renders one notification as a list line.
func (f *Formatter) Notification(n api.Notification) string {
	marker := "  "
	msg := n.Message
	if !n.IsRead {
		marker = f.Theme.Badge.Render("* ")
		msg = f.Theme.Unread.Render(msg)
	}

	line := fmt.Sprintf("%s%s %s", marker, f.Theme.Muted.Render(fmt.Sprintf("#%-4d", n.ID)), msg)
	switch {
	case n.IsProcessing():
		line += " " + f.Theme.Warning.Render(fmt.Sprintf("[%s] %d%%",
			styles.RenderProgressBar(progressWidth, float64(n.Progress)), n.Progress))
	case n.Status == api.NotificationFailed:
		line += " " + f.Theme.Error.Render("failed")
	}
	if ts := n.Time(); !ts.IsZero() {
		line += " " + f.Theme.Muted.Render(ts.Format("Jan 2 15:04"))
	}
	return line
}

// SessionLine renders one history entry.
func (f *Formatter) SessionLine(s api.SessionInfo, width int) string {
	title := s.Title
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf("%s %s %s",
		f.Theme.Muted.Render(fmt.Sprintf("%5d", s.ID)),
		util.PadRight(title, width),
		f.Theme.Muted.Render(s.CreatedAt))
}
