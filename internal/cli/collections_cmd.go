// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// collections_cmd.go - Document collection management and profile stats.
//
// Command: collections
// Aliases: collection, col
//
// Subcommands:
//   list              List collections
//   create <name>     Create a collection (the name is sanitized)
//   delete <name>     Delete a collection and its documents
//   summary <name>    Show the stored document summaries
//
// Command: stats
// Short:   Show profile counters

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/util"
)

func newCollectionsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "col"},
		Short:   "Manage document collections",
	}
	cmd.AddCommand(
		newCollectionsListCommand(app),
		newCollectionsCreateCommand(app),
		newCollectionsDeleteCommand(app),
		newCollectionsSummaryCommand(app),
	)
	return cmd
}

func newCollectionsListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.output("collections list", func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				cols, err := app.Client.Collections(ctx)
				if err != nil {
					return nil, err
				}
				if cols == nil {
					cols = []api.Collection{}
				}
				if !app.jsonOut {
					printCollections(app, cols, app.Config.Chat.Collection)
				}
				return cols, nil
			})
		},
	}
}

// collectionArg sanitizes a collection name given on the command line.
func collectionArg(raw string) (string, error) {
	name := util.SanitizeCollectionName(raw)
	if name == "" {
		return "", NewValidationError("collection", raw, "name has no usable characters")
	}
	return name, nil
}

func newCollectionsCreateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := collectionArg(args[0])
			if err != nil {
				return err
			}
			return app.output("collections create", func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				stored, err := app.Client.CreateCollection(ctx, name)
				if err != nil {
					return nil, NewCommandError("collections", "create", err)
				}
				if !app.jsonOut {
					fmt.Fprintf(app.Out, "Collection %s created.\n", stored)
				}
				return api.Collection{Name: stored}, nil
			})
		},
	}
}

func newCollectionsDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a collection and its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := collectionArg(args[0])
			if err != nil {
				return err
			}
			return app.output("collections delete", func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				if err := app.Client.DeleteCollection(ctx, name); err != nil {
					return nil, NewCommandError("collections", "delete", err)
				}
				if !app.jsonOut {
					fmt.Fprintf(app.Out, "Collection %s deleted.\n", name)
				}
				return api.Collection{Name: name}, nil
			})
		},
	}
}

func newCollectionsSummaryCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <name>",
		Short: "Show the document summaries of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := collectionArg(args[0])
			if err != nil {
				return err
			}
			return app.output("collections summary", func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				sum, err := app.Client.CollectionSummary(ctx, name)
				if err != nil {
					return nil, NewCommandError("collections", "summary", err)
				}
				if !app.jsonOut {
					printSummary(app, sum)
				}
				return sum, nil
			})
		},
	}
}

func printSummary(app *App, sum api.CollectionSummary) {
	fmt.Fprintln(app.Out, app.Theme.Title.Render(sum.Name))
	if len(sum.Documents) == 0 {
		fmt.Fprintln(app.Out, app.Theme.Muted.Render("No summaries yet."))
		return
	}
	renderer := app.renderer(app.Config)
	for _, d := range sum.Documents {
		fmt.Fprintln(app.Out)
		fmt.Fprintln(app.Out, app.Theme.AssistantLabel.Render(d.Filename))
		fmt.Fprintln(app.Out, strings.TrimSpace(renderer.Render(d.Summary)))
	}
}

// =============================================================================
// STATS
// =============================================================================

func newStatsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show profile counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.output("stats", func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				stats, err := app.Client.ProfileStats(ctx)
				if err != nil {
					return nil, err
				}
				if !app.jsonOut {
					printStats(app, stats)
				}
				return stats, nil
			})
		},
	}
}

func printStats(app *App, s api.ProfileStats) {
	label := func(l string) string { return app.Theme.Muted.Render(util.PadRight(l, 16)) }
	if s.Username != "" {
		fmt.Fprintf(app.Out, "%s%s\n", label("User"), s.Username)
	}
	if s.Account != "" {
		fmt.Fprintf(app.Out, "%s%s\n", label("Account"), s.Account)
	}
	fmt.Fprintf(app.Out, "%s%d\n", label("Chats"), s.TotalChats)
	fmt.Fprintf(app.Out, "%s%d\n", label("Archived"), s.ArchivedChats)
	fmt.Fprintf(app.Out, "%s%d\n", label("Files uploaded"), s.FilesUploaded)
	fmt.Fprintf(app.Out, "%s%d\n", label("Collections"), s.Collections)
}
