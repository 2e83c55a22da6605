// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jeranaias/docchat/internal/model"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the lifecycle state of a Session.
type Status int

const (
	StatusActive Status = iota
	StatusCompleted
	StatusAborted
	StatusFailed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusAborted:
		return "aborted"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the session has finished.
func (s Status) IsTerminal() bool {
	return s != StatusActive
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// State is a point-in-time snapshot of a session.
type State struct {
	Raw         string
	VisibleBody string
	Footer      string
	HasFooter   bool
	Status      Status
	Chunks      int
}

// Update is delivered to the view on every chunk and once on termination.
// It always describes the whole reply; the view replaces what it showed.
type Update struct {
	// Text is the visible body before rendering. While Active each Text is a
	// prefix of the next one.
	Text string

	// Body is Text passed through the renderer.
	Body string

	Footer     string
	HasFooter  bool
	Status     Status
	Annotation string
	Err        error
	Chunks     int
	Elapsed    time.Duration
}

// Result is the outcome of a finished session.
type Result struct {
	Status    Status
	Body      string
	Footer    string
	HasFooter bool
	Elapsed   time.Duration
	Chunks    int
	Err       error

	// Message is the assistant message appended to the transcript, if any.
	Message *model.Message
}

// =============================================================================
// HELPERS
// =============================================================================

// InterruptionNote is the annotation attached to an aborted reply.
func InterruptionNote(elapsed time.Duration, chunks int) string {
	return fmt.Sprintf("Stopped due to user interruption\nTime: %.2fs | Tokens: ~%d", elapsed.Seconds(), chunks)
}

// trimIncompleteRune drops a trailing, not yet complete UTF-8 sequence.
// Invalid bytes that can never become valid are kept.
func trimIncompleteRune(s string) string {
	// A UTF-8 sequence is at most 4 bytes, so only the last 3 can be pending.
	for i := 1; i <= 3 && i <= len(s); i++ {
		b := s[len(s)-i]
		if b < utf8.RuneSelf {
			return s
		}
		if utf8.RuneStart(b) {
			if !utf8.FullRuneInString(s[len(s)-i:]) {
				return s[:len(s)-i]
			}
			return s
		}
	}
	return s
}
