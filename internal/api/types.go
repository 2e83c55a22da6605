// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"io"
	"time"
)

// =============================================================================
// CHAT TYPES
// =============================================================================

// Message is one chat message as exchanged with the server.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// ChatRequest is the body of POST /api/chat.
// A nil SessionID sends the message without persisting it server side.
// An empty Collection is sent as null.
type ChatRequest struct {
	SessionID  *int      `json:"session_id"`
	Messages   []Message `json:"messages"`
	Collection *string   `json:"collection_name"`
	Stream     bool      `json:"stream"`
}

// =============================================================================
// UPLOAD TYPES
// =============================================================================

// UploadFile is one file part of a multipart upload.
// Content is read if set; otherwise Path is opened when the part is written.
type UploadFile struct {
	Name    string
	Path    string
	Content io.Reader
}

// UploadRequest is the body of POST /api/upload.
type UploadRequest struct {
	Collection string
	Summarize  bool
	Files      []UploadFile
}

// =============================================================================
// NOTIFICATION TYPES
// =============================================================================

// Notification statuses reported by the server.
const (
	NotificationProcessing = "processing"
	NotificationCompleted  = "completed"
	NotificationFailed     = "failed"
)

// Notification is a server-side record of a background task.
type Notification struct {
	ID        int    `json:"id"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	TaskID    string `json:"task_id,omitempty"`
	Progress  int    `json:"progress"`
	Status    string `json:"status"`
	IsRead    bool   `json:"is_read"`
	Timestamp string `json:"timestamp"`
}

// IsProcessing reports whether the background task is still running.
func (n Notification) IsProcessing() bool {
	return n.Status == NotificationProcessing
}

// Time parses Timestamp. The server writes SQLite CURRENT_TIMESTAMP values,
// so both that layout and RFC 3339 are accepted. Zero on failure.
func (n Notification) Time() time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, n.Timestamp); err == nil {
			return t
		}
	}
	return time.Time{}
}

// NotificationList is the body of GET /api/notifications.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
}

// =============================================================================
// SESSION TYPES
// =============================================================================

// SessionInfo is one row of the session history.
type SessionInfo struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at,omitempty"`
}

// SessionUpdate is the body of PATCH /api/sessions/{id}. Nil fields are
// left unchanged.
type SessionUpdate struct {
	Title   *string `json:"title,omitempty"`
	Archive *bool   `json:"archive,omitempty"`
}

// StatusResponse is the generic {"status": "..."} acknowledgement.
type StatusResponse struct {
	Status string `json:"status"`
	Name   string `json:"name,omitempty"`
}

// =============================================================================
// COLLECTION TYPES
// =============================================================================

// Collection is a named document collection.
type Collection struct {
	Name string `json:"name"`
}

// DocumentSummary is the stored summary of one uploaded document.
type DocumentSummary struct {
	Filename string `json:"filename"`
	Summary  string `json:"summary"`
}

// CollectionSummary lists the document summaries of a collection.
type CollectionSummary struct {
	Name      string            `json:"name"`
	Documents []DocumentSummary `json:"documents"`
}

// =============================================================================
// PROFILE TYPES
// =============================================================================

// ProfileStats is the body of GET /api/profile/stats.
type ProfileStats struct {
	Username      string `json:"username"`
	Account       string `json:"account"`
	TotalChats    int    `json:"total_chats"`
	ArchivedChats int    `json:"archived_chats"`
	FilesUploaded int    `json:"files_uploaded"`
	Collections   int    `json:"collections"`
}
