// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// upload_cmd.go - Document upload command.
//
// Command: upload
// Short:   Upload documents into a collection
//
// Examples:
//   docchat upload report.pdf -c research
//   docchat upload *.pdf -c research --summarize
//   docchat upload a.pdf b.pdf c.pdf -c research --parallel 3

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/notify"
	"github.com/jeranaias/docchat/internal/session"
	"github.com/jeranaias/docchat/internal/upload"
)

// UploadData is the JSON output of the upload command.
type UploadData struct {
	Collection string               `json:"collection"`
	Jobs       []upload.JobSnapshot `json:"jobs"`
	Files      []upload.FileResult  `json:"files,omitempty"`
	Summaries  int                  `json:"summaries_started"`
}

func newUploadCommand(app *App) *cobra.Command {
	var (
		summarize bool
		parallel  int
	)

	cmd := &cobra.Command{
		Use:   "upload <file...>",
		Short: "Upload documents into a collection",
		Long: `Upload documents into a collection and follow the ingestion progress.

By default all files go in one request. With --parallel N each file is sent
as its own request, N at a time. With --summarize the server also writes a
summary of each document in the background; follow it with
"docchat notifications watch".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			if !cmd.Flags().Changed("summarize") {
				summarize = cfg.Upload.Summarize
			}
			if !cmd.Flags().Changed("parallel") {
				parallel = cfg.Upload.Parallel
			}
			if cfg.Chat.Collection == "" {
				return session.ErrNoCollection
			}

			poller := notify.NewPoller(notify.Options{Client: app.Client, Logger: app.Log})
			defer poller.Close()

			mgr := session.NewManager(app.Client, session.Config{
				Collection:      cfg.Chat.Collection,
				Refresher:       poller,
				Summarize:       summarize,
				CompletionDelay: cfg.Upload.CompletionDelay(),
				Logger:          app.Log,
			})
			defer mgr.Close()

			// Stage validates the paths: files only, no duplicates.
			if err := mgr.Stage(args...); err != nil {
				return err
			}

			onUpdate := func(u upload.Update) {
				if !app.jsonOut {
					fmt.Fprintln(app.Out, app.Format.UploadStatus(u))
				}
			}

			var results []upload.Result
			var err error
			if parallel <= 1 || len(args) == 1 {
				var res upload.Result
				res, err = mgr.Upload(cmd.Context(), onUpdate)
				results = []upload.Result{res}
			} else {
				req := api.UploadRequest{Collection: cfg.Chat.Collection, Summarize: summarize}
				for _, p := range mgr.Staged() {
					req.Files = append(req.Files, api.UploadFile{Path: p})
				}
				results, err = upload.RunEach(cmd.Context(), upload.Options{
					Uploader:        app.Client,
					Refresher:       poller,
					OnUpdate:        onUpdate,
					CompletionDelay: cfg.Upload.CompletionDelay(),
					Logger:          app.Log,
				}, req, parallel)
			}

			return app.output("upload", func() (any, error) {
				data := UploadData{Collection: cfg.Chat.Collection}
				for _, r := range results {
					data.Jobs = append(data.Jobs, r.Job)
					data.Files = append(data.Files, r.Files...)
					data.Summaries += r.Refreshes
				}
				if err != nil {
					return data, err
				}
				if !app.jsonOut {
					printUploadSummary(app, data)
				}
				app.Log.Info("upload command finished",
					zap.String("collection", data.Collection),
					zap.Int("jobs", len(data.Jobs)),
					zap.Int("summaries", data.Summaries))
				return data, nil
			})
		},
	}
	cmd.Flags().BoolVar(&summarize, "summarize", false, "Summarize each document in the background")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "Upload files as separate requests, this many at a time")
	return cmd
}

func printUploadSummary(app *App, data UploadData) {
	for _, f := range data.Files {
		switch {
		case f.Failed():
			fmt.Fprintf(app.Out, "  %s %s: %s\n", app.Theme.Error.Render("x"), f.File, f.Error)
		case f.Chunks > 0:
			fmt.Fprintf(app.Out, "  %s %s (%d chunks)\n", app.Theme.Success.Render("+"), f.File, f.Chunks)
		default:
			fmt.Fprintf(app.Out, "  %s %s\n", app.Theme.Success.Render("+"), f.File)
		}
	}
	if data.Summaries > 0 {
		fmt.Fprintln(app.Out, app.Theme.Muted.Render(fmt.Sprintf(
			"%d summaries running in the background. Follow them with: docchat notifications watch", data.Summaries)))
	}
}
