// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Notifications fetches the current notification set, newest first.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var list NotificationList
	if err := c.doJSON(ctx, http.MethodGet, "/api/notifications", "list notifications", nil, &list); err != nil {
		return nil, err
	}
	if list.Notifications == nil {
		list.Notifications = []Notification{}
	}
	return list.Notifications, nil
}

// MarkNotificationRead acknowledges one notification.
func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	path := "/api/notifications/" + strconv.Itoa(id) + "/read"
	return c.doJSON(ctx, http.MethodPost, path, "mark notification read", nil, nil)
}

// ClearNotifications deletes read notifications whose task has finished.
func (c *Client) ClearNotifications(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/notifications/clear", "clear notifications", nil, nil)
}

// =============================================================================
// SESSIONS
// =============================================================================

// History lists active (non-archived) sessions, newest first. A non-empty
// search filters by title.
func (c *Client) History(ctx context.Context, search string) ([]SessionInfo, error) {
	path := "/api/history"
	if search != "" {
		path += "?" + url.Values{"search": {search}}.Encode()
	}
	var sessions []SessionInfo
	if err := c.doJSON(ctx, http.MethodGet, path, "list sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SessionMessages returns the stored messages of a session in order.
func (c *Client) SessionMessages(ctx context.Context, id int) ([]Message, error) {
	var msgs []Message
	if err := c.doJSON(ctx, http.MethodGet, "/api/history/"+strconv.Itoa(id), "load session", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// CreateSession creates a session. An empty title uses the server default.
func (c *Client) CreateSession(ctx context.Context, title string) (SessionInfo, error) {
	path := "/api/sessions"
	if title != "" {
		path += "?" + url.Values{"title": {title}}.Encode()
	}
	var info SessionInfo
	err := c.doJSON(ctx, http.MethodPost, path, "create session", nil, &info)
	return info, err
}

// DeleteSession deletes a session and its messages.
func (c *Client) DeleteSession(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/sessions/"+strconv.Itoa(id), "delete session", nil, nil)
}

// UpdateSession applies a partial update to a session.
func (c *Client) UpdateSession(ctx context.Context, id int, update SessionUpdate) error {
	return c.doJSON(ctx, http.MethodPatch, "/api/sessions/"+strconv.Itoa(id), "update session", update, nil)
}

// RenameSession sets a session's title.
func (c *Client) RenameSession(ctx context.Context, id int, title string) error {
	return c.UpdateSession(ctx, id, SessionUpdate{Title: &title})
}

// ArchiveSession archives (or with archive=false restores) a session.
func (c *Client) ArchiveSession(ctx context.Context, id int, archive bool) error {
	return c.UpdateSession(ctx, id, SessionUpdate{Archive: &archive})
}

// ArchivedSessions lists archived sessions, newest first.
func (c *Client) ArchivedSessions(ctx context.Context) ([]SessionInfo, error) {
	var sessions []SessionInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/sessions/archived", "list archived sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// =============================================================================
// COLLECTIONS
// =============================================================================

// Collections lists the document collections.
func (c *Client) Collections(ctx context.Context) ([]Collection, error) {
	var cols []Collection
	if err := c.doJSON(ctx, http.MethodGet, "/api/collections", "list collections", nil, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

// CreateCollection creates a collection and returns the name the server
// stored it under (the server sanitizes names).
func (c *Client) CreateCollection(ctx context.Context, name string) (string, error) {
	var resp StatusResponse
	in := Collection{Name: name}
	if err := c.doJSON(ctx, http.MethodPost, "/api/collections", "create collection", in, &resp); err != nil {
		return "", err
	}
	if resp.Name == "" {
		return name, nil
	}
	return resp.Name, nil
}

// DeleteCollection deletes a collection.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/collections/"+url.PathEscape(name), "delete collection", nil, nil)
}

// CollectionSummary returns the per-document summaries of a collection.
func (c *Client) CollectionSummary(ctx context.Context, name string) (CollectionSummary, error) {
	var sum CollectionSummary
	path := "/api/collections/" + url.PathEscape(name) + "/summary"
	err := c.doJSON(ctx, http.MethodGet, path, "collection summary", nil, &sum)
	return sum, err
}

// =============================================================================
// PROFILE
// =============================================================================

// ProfileStats returns usage counters.
func (c *Client) ProfileStats(ctx context.Context) (ProfileStats, error) {
	var stats ProfileStats
	err := c.doJSON(ctx, http.MethodGet, "/api/profile/stats", "profile stats", nil, &stats)
	return stats, err
}
