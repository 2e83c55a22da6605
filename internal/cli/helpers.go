// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - List printing shared by the commands and the chat REPL.

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/util"
)

// titleWidth is the column width of session titles in lists.
const titleWidth = 48

func printSessions(app *App, sessions []api.SessionInfo) {
	if len(sessions) == 0 {
		fmt.Fprintln(app.Out, app.Theme.Muted.Render("No sessions."))
		return
	}
	for _, s := range sessions {
		s.Title = util.TruncateWidth(util.FirstLine(s.Title), titleWidth)
		fmt.Fprintln(app.Out, app.Format.SessionLine(s, titleWidth))
	}
}

func printCollections(app *App, cols []api.Collection, selected string) {
	if len(cols) == 0 {
		fmt.Fprintln(app.Out, app.Theme.Muted.Render("No collections."))
		return
	}
	for _, c := range cols {
		marker := "  "
		if c.Name == selected {
			marker = app.Theme.Badge.Render("* ")
		}
		fmt.Fprintln(app.Out, marker+c.Name)
	}
}

func printNotifications(app *App, items []api.Notification) {
	if len(items) == 0 {
		fmt.Fprintln(app.Out, app.Theme.Muted.Render("No notifications."))
		return
	}
	for _, n := range items {
		fmt.Fprintln(app.Out, app.Format.Notification(n))
	}
}

// requestContext bounds a single API call made by a command.
func requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, requestTimeout)
}
