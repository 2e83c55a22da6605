// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package footer separates an assistant reply from the metrics footer the
// server appends after a sentinel.
//
// The server ends a chat reply with "\n\n[METRICS]" followed by a free-form
// metrics line. This package is the only place that knows about the marker;
// everything else works with the split Body and Footer.
package footer

import "strings"

// Sentinel marks the start of the metrics footer in a reply.
const Sentinel = "\n\n[METRICS]"

// Result is a reply split into its visible body and optional footer.
type Result struct {
	Body      string
	Footer    string
	HasFooter bool
}

// Split separates text at the last occurrence of sentinel.
// Without an occurrence (or with an empty sentinel) Body is text unchanged.
func Split(text, sentinel string) Result {
	if sentinel == "" {
		return Result{Body: text}
	}
	idx := strings.LastIndex(text, sentinel)
	if idx < 0 {
		return Result{Body: text}
	}
	return Result{
		Body:      text[:idx],
		Footer:    text[idx+len(sentinel):],
		HasFooter: true,
	}
}

// SplitDefault is Split with the server's Sentinel.
func SplitDefault(text string) Result {
	return Split(text, Sentinel)
}

// TrimPartial drops a trailing proper prefix of sentinel from text.
// "answer\n\n[MET" becomes "answer"; text that does not end in a prefix of
// the sentinel is returned as is.
func TrimPartial(text, sentinel string) string {
	n := len(sentinel) - 1
	if n > len(text) {
		n = len(text)
	}
	for ; n > 0; n-- {
		if strings.HasSuffix(text, sentinel[:n]) {
			return text[:len(text)-n]
		}
	}
	return text
}

// Join is the inverse of Split.
func Join(r Result, sentinel string) string {
	if !r.HasFooter {
		return r.Body
	}
	return r.Body + sentinel + r.Footer
}
