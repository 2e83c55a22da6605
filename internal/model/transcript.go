// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"

	"github.com/jeranaias/docchat/internal/api"
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the ordered message list of the current conversation.
//
// It is append-only while a conversation is open. Loading another session
// replaces it wholesale. The mutex makes readers (renderers, exporters) safe
// while the single writer, the active chat stream, appends.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// NewTranscript creates a transcript holding msgs.
func NewTranscript(msgs ...Message) *Transcript {
	t := &Transcript{}
	t.messages = append(t.messages, msgs...)
	return t
}

// Append adds a message at the end.
func (t *Transcript) Append(msg Message) {
	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
}

// Replace swaps the whole message list.
func (t *Transcript) Replace(msgs []Message) {
	cp := make([]Message, len(msgs))
	copy(cp, msgs)

	t.mu.Lock()
	t.messages = cp
	t.mu.Unlock()
}

// Reset empties the transcript.
func (t *Transcript) Reset() {
	t.Replace(nil)
}

// Messages returns a copy of the messages.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the most recent message.
func (t *Transcript) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// APIMessages returns the transcript in wire form, oldest first.
func (t *Transcript) APIMessages() []api.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]api.Message, len(t.messages))
	for i, m := range t.messages {
		out[i] = m.ToAPI()
	}
	return out
}

// Title returns a short title derived from the first user message.
func (t *Transcript) Title(max int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, m := range t.messages {
		if m.Role != RoleUser {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) <= max {
			return m.Content
		}
		return string(runes[:max]) + "..."
	}
	return "New Chat"
}

// FromAPIMessages builds transcript entries from server messages.
func FromAPIMessages(msgs []api.Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = FromAPI(m)
	}
	return out
}
