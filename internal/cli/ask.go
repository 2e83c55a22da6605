// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command.
//
// Command: ask
// Short:   Ask a single question
//
// Examples:
//   docchat ask "What does the contract say about renewal?" -c contracts
//   docchat ask --session 12 "And the termination clause?"
//   echo "Summarize chapter 2" | docchat ask -c book
//   docchat ask --json "List the authors" -c papers

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/chat"
	"github.com/jeranaias/docchat/internal/session"
)

// AskData is the JSON output of the ask command.
type AskData struct {
	Response   string `json:"response"`
	Footer     string `json:"footer,omitempty"`
	Status     string `json:"status"`
	Annotation string `json:"annotation,omitempty"`
	SessionID  *int   `json:"session_id,omitempty"`
	Collection string `json:"collection,omitempty"`
	Chunks     int    `json:"chunks"`
	DurationMs int64  `json:"duration_ms"`
}

func newAskCommand(app *App) *cobra.Command {
	var (
		sessionID  int
		noMarkdown bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Long: `Ask a single question and print the answer.

The question is read from stdin when no argument is given. Replies are
rendered as markdown on a terminal and streamed as plain text otherwise.
Ctrl+C stops the reply and keeps the partial answer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" && !isTerminal(app.In) {
				data, err := io.ReadAll(app.In)
				if err != nil {
					return err
				}
				question = strings.TrimSpace(string(data))
			}
			if question == "" {
				return NewValidationError("question", "", "nothing to ask")
			}

			ctx := cmd.Context()
			mgr := session.NewManager(app.Client, session.Config{
				Collection: app.Config.Chat.Collection,
				Logger:     app.Log,
			})
			defer mgr.Close()

			if sessionID > 0 {
				lctx, cancel := requestContext(ctx)
				err := mgr.Load(lctx, api.SessionInfo{ID: sessionID})
				cancel()
				if err != nil {
					return err
				}
			}

			cfg := app.Config
			if noMarkdown {
				cfg = cfg.Clone()
				cfg.Chat.Markdown = false
			}

			var onUpdate func(chat.Update)
			if !app.jsonOut {
				p := newReplyPrinter(app.Out, app.Format, app.renderer(cfg), !app.markdownEnabled(cfg))
				p.showErrors = false
				onUpdate = p.Update
			}

			s, err := mgr.Send(ctx, question, onUpdate)
			if err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					s.Cancel()
				case <-s.Done():
				}
			}()

			res := s.Wait()
			return app.output("ask", func() (any, error) {
				data := AskData{
					Response:   res.Body,
					Footer:     res.Footer,
					Status:     res.Status.String(),
					Collection: mgr.Collection(),
					Chunks:     res.Chunks,
					DurationMs: res.Elapsed.Milliseconds(),
				}
				if id, ok := mgr.SessionID(); ok {
					data.SessionID = &id
				}
				if res.Message != nil {
					data.Annotation = res.Message.Annotation
				}
				switch res.Status {
				case chat.StatusFailed:
					return data, replyError(res.Err)
				case chat.StatusAborted:
					return data, errInterrupted
				}
				return data, nil
			})
		},
	}
	cmd.Flags().IntVar(&sessionID, "session", 0, "Ask within the stored session with this id")
	cmd.Flags().BoolVar(&noMarkdown, "no-markdown", false, "Print the raw reply text")
	return cmd
}

// replyError adds context to a failed reply.
func replyError(err error) error {
	if err == nil || errors.Is(err, errInterrupted) {
		return err
	}
	return fmt.Errorf("reply failed: %w", err)
}
