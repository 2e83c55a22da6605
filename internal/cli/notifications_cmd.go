// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// notifications_cmd.go - Background task notifications.
//
// Command: notifications
// Aliases: notif, n
//
// Subcommands:
//   list [--unread]     List notifications
//   read <id>           Mark one notification as read
//   read-all            Mark every notification as read
//   clear               Delete read notifications
//   watch [--until-idle] Live view that polls while tasks are running

package cli

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/notify"
	"github.com/jeranaias/docchat/internal/ui/watch"
)

func newNotificationsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif", "n"},
		Short:   "List and manage background task notifications",
	}
	cmd.AddCommand(
		newNotificationsListCommand(app),
		newNotificationsReadCommand(app),
		newNotificationsReadAllCommand(app),
		newNotificationsClearCommand(app),
		newNotificationsWatchCommand(app),
	)
	return cmd
}

func (a *App) newPoller(onChange func(notify.Snapshot)) *notify.Poller {
	return notify.NewPoller(notify.Options{
		Client:   a.Client,
		Interval: a.Config.Notifications.PollInterval(),
		OnChange: onChange,
		Logger:   a.Log,
	})
}

func newNotificationsListCommand(app *App) *cobra.Command {
	var unread bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.output("notifications list", func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				items, err := app.Client.Notifications(ctx)
				if err != nil {
					return nil, err
				}
				if unread {
					filtered := items[:0]
					for _, n := range items {
						if !n.IsRead {
							filtered = append(filtered, n)
						}
					}
					items = filtered
				}
				if items == nil {
					items = []api.Notification{}
				}
				if !app.jsonOut {
					printNotifications(app, items)
				}
				return items, nil
			})
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "Only show unread notifications")
	return cmd
}

func newNotificationsReadCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.output("notifications read", func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				if err := app.Client.MarkNotificationRead(ctx, id); err != nil {
					return nil, NewCommandError("notifications", "read", err)
				}
				if !app.jsonOut {
					fmt.Fprintf(app.Out, "Notification %d marked as read.\n", id)
				}
				return map[string]int{"id": id}, nil
			})
		},
	}
}

func newNotificationsReadAllCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := app.newPoller(nil)
			defer p.Close()

			return app.output("notifications read-all", func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				if err := p.Refresh(ctx); err != nil {
					return nil, err
				}
				before := p.Unread()
				if err := p.MarkAllRead(ctx); err != nil {
					return nil, NewCommandError("notifications", "read-all", err)
				}
				if !app.jsonOut {
					fmt.Fprintf(app.Out, "Marked %d notifications as read.\n", before)
				}
				return map[string]int{"marked": before}, nil
			})
		},
	}
}

func newNotificationsClearCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete read notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.output("notifications clear", func() (any, error) {
				ctx, cancel := requestContext(cmd.Context())
				defer cancel()
				if err := app.Client.ClearNotifications(ctx); err != nil {
					return nil, NewCommandError("notifications", "clear", err)
				}
				if !app.jsonOut {
					fmt.Fprintln(app.Out, "Read notifications cleared.")
				}
				return map[string]bool{"cleared": true}, nil
			})
		},
	}
}

func newNotificationsWatchCommand(app *App) *cobra.Command {
	var untilIdle bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live view of notifications",
		Long: `Show notifications and keep them current.

The list is polled while any task is still processing and polling stops on
its own once every task has finished. Keys: r refresh, a mark all read,
q quit. With --until-idle the view exits when nothing is processing.

When stdout is not a terminal the list is printed once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !isTerminal(app.Out) {
				p := app.newPoller(nil)
				defer p.Close()
				rctx, cancel := requestContext(ctx)
				defer cancel()
				if err := p.Refresh(rctx); err != nil {
					return err
				}
				printNotifications(app, p.Snapshot().Items)
				return nil
			}
			return runWatch(ctx, app, untilIdle)
		},
	}
	cmd.Flags().BoolVar(&untilIdle, "until-idle", false, "Exit once no task is processing")
	return cmd
}

// runWatch runs the notification screen until the user quits.
func runWatch(ctx context.Context, app *App, untilIdle bool) error {
	var prog atomic.Pointer[tea.Program]
	poller := app.newPoller(func(s notify.Snapshot) {
		if p := prog.Load(); p != nil {
			p.Send(watch.SnapshotMsg(s))
		}
	})
	defer poller.Close()

	m := watch.New(poller, watch.Options{Theme: app.Theme, ExitWhenIdle: untilIdle})
	p := watch.NewProgram(ctx, m, watch.WithIO(app.In, app.Out)...)
	prog.Store(p)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
