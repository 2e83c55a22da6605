// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions_cmd.go - Stored chat session management.
//
// Command: sessions
// Aliases: session, history
//
// Subcommands:
//   list [--search TEXT]           List active sessions, newest first
//   archived                       List archived sessions
//   show <id> [--format FMT] [-o DIR]
//                                  Print a session, or export it
//   rename <id> <title...>         Rename a session
//   archive <id>, unarchive <id>   Move a session in or out of the archive
//   delete <id>                    Delete a session and its messages

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/export"
	"github.com/jeranaias/docchat/internal/model"
)

func newSessionsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session", "history"},
		Short:   "Browse and manage stored chat sessions",
	}
	cmd.AddCommand(
		newSessionsListCommand(app),
		newSessionsArchivedCommand(app),
		newSessionsShowCommand(app),
		newSessionsRenameCommand(app),
		newSessionsArchiveCommand(app, true),
		newSessionsArchiveCommand(app, false),
		newSessionsDeleteCommand(app),
	)
	return cmd
}

func newSessionsListCommand(app *App) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.output("sessions list", func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				sessions, err := app.Client.History(ctx, search)
				if err != nil {
					return nil, err
				}
				if sessions == nil {
					sessions = []api.SessionInfo{}
				}
				if !app.jsonOut {
					printSessions(app, sessions)
				}
				return sessions, nil
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only sessions whose title contains this text")
	return cmd
}

func newSessionsArchivedCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "archived",
		Short: "List archived sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.output("sessions archived", func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				sessions, err := app.Client.ArchivedSessions(ctx)
				if err != nil {
					return nil, err
				}
				if sessions == nil {
					sessions = []api.SessionInfo{}
				}
				if !app.jsonOut {
					printSessions(app, sessions)
				}
				return sessions, nil
			})
		},
	}
}

func newSessionsShowCommand(app *App) *cobra.Command {
	var (
		format    string
		outputDir string
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print or export a stored session",
		Long: `Print a stored session.

With --format the session is converted with the named exporter (md, json or
yaml) and printed; with --output it is written to a file in that directory
instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd.Context())
			defer cancel()

			msgs, err := app.Client.SessionMessages(ctx, id)
			if err != nil {
				return NewCommandError("sessions", "show", err)
			}
			transcript := model.NewTranscript(model.FromAPIMessages(msgs)...)

			meta := export.Meta{SessionID: id}
			if sessions, err := app.Client.History(ctx, ""); err == nil {
				for _, s := range sessions {
					if s.ID == id {
						meta.Title = s.Title
					}
				}
			}
			conv := export.FromTranscript(transcript, meta)

			if format == "" && outputDir == "" {
				return app.output("sessions show", func() (any, error) {
					if !app.jsonOut {
						printTranscript(app, transcript)
					}
					return conv, nil
				})
			}

			if format == "" {
				format = "md"
			}
			opts := export.DefaultOptions()
			exp, err := export.ForFormat(format, opts)
			if err != nil {
				return NewValidationError("format", format, strings.Join(export.Formats, ", "))
			}
			if outputDir != "" {
				opts.OutputDir = outputDir
				path, err := export.ToFile(conv, exp, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Exported to %s\n", path)
				return nil
			}
			data, err := exp.Export(conv)
			if err != nil {
				return err
			}
			_, err = app.Out.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format: md, json or yaml")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Write the export to a file in this directory")
	return cmd
}

func printTranscript(app *App, t *model.Transcript) {
	if t.Len() == 0 {
		fmt.Fprintln(app.Out, app.Theme.Muted.Render("No messages."))
		return
	}
	renderer := app.renderer(app.Config)
	for i, m := range t.Messages() {
		if i > 0 {
			fmt.Fprintln(app.Out)
		}
		fmt.Fprintln(app.Out, app.Format.Message(m, renderer))
	}
}

func newSessionsRenameCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title...>",
		Short: "Rename a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			title := strings.TrimSpace(strings.Join(args[1:], " "))
			if title == "" {
				return NewValidationError("title", "", "must not be empty")
			}
			return app.output("sessions rename", func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				if err := app.Client.RenameSession(ctx, id, title); err != nil {
					return nil, NewCommandError("sessions", "rename", err)
				}
				if !app.jsonOut {
					fmt.Fprintf(app.Out, "Session %d renamed to %q.\n", id, title)
				}
				return api.SessionInfo{ID: id, Title: title}, nil
			})
		},
	}
}

func newSessionsArchiveCommand(app *App, archive bool) *cobra.Command {
	use, short, done := "archive", "Archive a session", "archived"
	if !archive {
		use, short, done = "unarchive", "Restore an archived session", "restored"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.output("sessions "+use, func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				if err := app.Client.ArchiveSession(ctx, id, archive); err != nil {
					return nil, NewCommandError("sessions", use, err)
				}
				if !app.jsonOut {
					fmt.Fprintf(app.Out, "Session %d %s.\n", id, done)
				}
				return map[string]any{"id": id, "archived": archive}, nil
			})
		},
	}
}

func newSessionsDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.output("sessions delete", func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				if err := app.Client.DeleteSession(ctx, id); err != nil {
					return nil, NewCommandError("sessions", "delete", err)
				}
				if !app.jsonOut {
					fmt.Fprintf(app.Out, "Session %d deleted.\n", id)
				}
				return map[string]int{"id": id}, nil
			})
		},
	}
}
