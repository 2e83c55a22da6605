// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command.
//
// Command: chat
// Short:   Start an interactive chat session
//
// Examples:
//   docchat chat                          Chat without a collection
//   docchat chat -c research              Answer from the "research" collection
//   docchat chat --session 12             Continue a stored session
//
// Interactive Commands (during chat):
//   /help                 Show available commands
//   /new                  Start a new chat
//   /load <id>            Load a stored session
//   /history [search]     List stored sessions
//   /collection [name]    Show or select the collection
//   /collections          List collections
//   /stage <path...>      Add files to the upload list
//   /unstage <n>          Remove file n from the upload list
//   /staged               Show the upload list
//   /upload               Upload the staged files
//   /notifications        Show notifications
//   /read <id>, /readall  Mark notifications as read
//   /export [format]      Export the conversation (md, json, yaml)
//   /quit                 Exit chat
//   Ctrl+C                Cancel the streaming reply
//   Ctrl+D                Exit chat

package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/config"
	"github.com/jeranaias/docchat/internal/export"
	"github.com/jeranaias/docchat/internal/notify"
	"github.com/jeranaias/docchat/internal/session"
	"github.com/jeranaias/docchat/internal/upload"
	"github.com/jeranaias/docchat/internal/util"
)

// requestTimeout bounds the short API calls made by slash commands.
const requestTimeout = 30 * time.Second

// =============================================================================
// INPUT
// =============================================================================

// lineReader reads one line of user input per call.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// historyReader provides line editing and persistent history on a terminal.
type historyReader struct {
	line        *liner.State
	historyFile string
}

func newHistoryReader(historyFile string) *historyReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &historyReader{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *historyReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (r *historyReader) Close() error {
	var buf bytes.Buffer
	if _, err := r.line.WriteHistory(&buf); err == nil && r.historyFile != "" {
		_ = util.AtomicWriteFileWithDir(r.historyFile, buf.Bytes(), 0o600, 0o700)
	}
	return r.line.Close()
}

// scanReader reads lines from a pipe or a test buffer.
type scanReader struct {
	sc *bufio.Scanner
}

func newScanReader(r io.Reader) *scanReader {
	return &scanReader{sc: bufio.NewScanner(r)}
}

func (r *scanReader) Prompt(string) (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}
	if err := r.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scanReader) Close() error { return nil }

// =============================================================================
// COMMAND
// =============================================================================

func newChatCommand(app *App) *cobra.Command {
	var sessionID int

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Replies stream as they are generated. Press Ctrl+C to stop a reply; the
partial answer is kept with an interruption note. Type /help for the list
of slash commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in lineReader
			if isTerminal(app.In) && isTerminal(app.Out) {
				path, err := app.Config.HistoryPath()
				if err != nil {
					return err
				}
				in = newHistoryReader(path)
			} else {
				in = newScanReader(app.In)
			}

			r := newREPL(app, in)
			defer r.Close()

			ctx := cmd.Context()
			if sessionID > 0 {
				if err := r.load(ctx, sessionID); err != nil {
					return err
				}
			}
			return r.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&sessionID, "session", 0, "Continue the stored session with this id")
	return cmd
}

// =============================================================================
// REPL
// =============================================================================

// repl is one interactive chat session.
type repl struct {
	app    *App
	mgr    *session.Manager
	poller *notify.Poller
	in     lineReader
	log    *zap.Logger

	mu  sync.Mutex
	cfg *config.Config
}

func newREPL(app *App, in lineReader) *repl {
	cfg := app.Config
	poller := notify.NewPoller(notify.Options{
		Client:   app.Client,
		Interval: cfg.Notifications.PollInterval(),
		Logger:   app.Log,
	})
	mgr := session.NewManager(app.Client, session.Config{
		Collection:      cfg.Chat.Collection,
		Refresher:       poller,
		Summarize:       cfg.Upload.Summarize,
		CompletionDelay: cfg.Upload.CompletionDelay(),
		Logger:          app.Log,
	})
	return &repl{
		app:    app,
		mgr:    mgr,
		poller: poller,
		in:     in,
		log:    app.Log.With(zap.String("component", "repl")),
		cfg:    cfg,
	}
}

// Close stops any reply and polling, and saves the input history.
func (r *repl) Close() {
	r.mgr.Close()
	r.poller.Close()
	if err := r.in.Close(); err != nil {
		r.log.Debug("closing input failed", zap.Error(err))
	}
}

func (r *repl) config() *config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// applyConfig is called by the config watcher with each reloaded file.
func (r *repl) applyConfig(cfg *config.Config, err error) {
	if err != nil {
		r.log.Warn("ignoring invalid config change", zap.Error(err))
		return
	}
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
	config.SetGlobal(cfg)
	r.poller.SetInterval(cfg.Notifications.PollInterval())
	r.log.Info("configuration reloaded",
		zap.Bool("markdown", cfg.Chat.Markdown),
		zap.Duration("poll_interval", cfg.Notifications.PollInterval()))
}

// Run reads and handles input until /quit, EOF or ctx is done.
func (r *repl) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	refreshCtx, refreshCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := r.poller.Refresh(refreshCtx); err != nil {
		r.log.Debug("initial notification refresh failed", zap.Error(err))
	}
	refreshCancel()

	if path, err := r.configPath(); err == nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := config.Watch(ctx, path, r.applyConfig); err != nil {
				r.log.Debug("config watch unavailable", zap.String("path", path), zap.Error(err))
			}
		}()
	}

	// The first Ctrl+C during a reply cancels it. At the prompt the line
	// editor handles Ctrl+C itself.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				if r.mgr.Cancel() {
					fmt.Fprintln(r.app.Err, r.app.Theme.Warning.Render("[Cancelled]"))
				}
			}
		}
	}()

	r.printWelcome()

	for {
		input, err := r.in.Prompt(r.prompt())
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
				r.log.Warn("reading input failed", zap.Error(err))
			}
			r.printGoodbye()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			r.printGoodbye()
			return nil
		}

		var quit bool
		if strings.HasPrefix(input, "/") {
			quit, err = r.handleCommand(ctx, input)
		} else {
			err = r.send(ctx, input)
		}
		if err != nil {
			fmt.Fprintln(r.app.Err, r.app.Format.Error(err))
			if h := hint(err, r.config().Server.URL); h != "" {
				fmt.Fprintln(r.app.Err, h)
			}
		}
		if quit {
			r.printGoodbye()
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// configPath returns the file the running config was loaded from.
func (r *repl) configPath() (string, error) {
	if r.app.configPath != "" {
		return r.app.configPath, nil
	}
	return config.ActivePath()
}

func (r *repl) prompt() string {
	var b strings.Builder
	b.WriteString("docchat")
	if c := r.mgr.Collection(); c != "" {
		b.WriteString(" [" + c + "]")
	}
	if n := r.poller.Unread(); n > 0 {
		fmt.Fprintf(&b, " (%d)", n)
	}
	b.WriteString("> ")
	return b.String()
}

// send streams one reply to the output and waits for it to finish.
func (r *repl) send(ctx context.Context, message string) error {
	cfg := r.config()
	stream := !r.app.markdownEnabled(cfg)
	printer := newReplyPrinter(r.app.Out, r.app.Format, r.app.renderer(cfg), stream)

	fmt.Fprintln(r.app.Out)
	s, err := r.mgr.Send(ctx, message, printer.Update)
	if err != nil {
		return err
	}
	s.Wait()
	fmt.Fprintln(r.app.Out)
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const chatHelp = `Commands:
  /new                  Start a new chat
  /load <id>            Load a stored session
  /history [search]     List stored sessions
  /collection [name]    Show or select the collection
  /collections          List collections
  /stage <path...>      Add files to the upload list
  /unstage <n>          Remove file n from the upload list
  /staged               Show the upload list
  /upload               Upload the staged files
  /notifications        Show notifications
  /read <id>            Mark a notification as read
  /readall              Mark all notifications as read
  /export [format]      Export the conversation (md, json, yaml)
  /quit                 Exit chat
Ctrl+C stops a streaming reply.`

// handleCommand runs one slash command. It reports whether the REPL should
// exit.
func (r *repl) handleCommand(ctx context.Context, input string) (bool, error) {
	fields := strings.Fields(input)
	name, args := strings.ToLower(fields[0]), fields[1:]
	out := r.app.Out
	t := r.app.Theme

	switch name {
	case "/help", "/h", "/?":
		fmt.Fprintln(out, chatHelp)

	case "/quit", "/q", "/exit":
		return true, nil

	case "/new":
		r.mgr.NewChat()
		fmt.Fprintln(out, t.Success.Render("Started a new chat."))

	case "/load":
		if len(args) != 1 {
			return false, NewValidationError("session id", "", "usage: /load <id>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return false, err
		}
		return false, r.load(ctx, id)

	case "/history":
		return false, r.history(ctx, strings.Join(args, " "))

	case "/collection":
		if len(args) == 0 {
			if c := r.mgr.Collection(); c != "" {
				fmt.Fprintf(out, "Collection: %s\n", c)
			} else {
				fmt.Fprintln(out, t.Muted.Render("No collection selected."))
			}
			return false, nil
		}
		raw := strings.Join(args, " ")
		if raw == "-" || raw == "none" {
			r.mgr.SetCollection("")
			fmt.Fprintln(out, "Collection cleared.")
			return false, nil
		}
		c := util.SanitizeCollectionName(raw)
		if c == "" {
			return false, NewValidationError("collection", raw, "name has no usable characters")
		}
		r.mgr.SetCollection(c)
		fmt.Fprintf(out, "Collection: %s\n", c)

	case "/collections":
		return false, r.collections(ctx)

	case "/stage":
		if len(args) == 0 {
			return false, NewValidationError("path", "", "usage: /stage <path...>")
		}
		if err := r.mgr.Stage(args...); err != nil {
			return false, err
		}
		r.printStaged()

	case "/unstage":
		if len(args) != 1 {
			return false, NewValidationError("position", "", "usage: /unstage <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, NewValidationError("position", args[0], "must be a number")
		}
		if err := r.mgr.Unstage(n - 1); err != nil {
			return false, err
		}
		r.printStaged()

	case "/staged":
		r.printStaged()

	case "/upload":
		_, err := r.mgr.Upload(ctx, func(u upload.Update) {
			fmt.Fprintln(out, r.app.Format.UploadStatus(u))
		})
		return false, err

	case "/notifications", "/n":
		r.printNotifications()

	case "/read":
		if len(args) != 1 {
			return false, NewValidationError("notification id", "", "usage: /read <id>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return false, err
		}
		rctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return false, r.poller.MarkRead(rctx, id)

	case "/readall":
		rctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return false, r.poller.MarkAllRead(rctx)

	case "/export":
		format := "md"
		if len(args) > 0 {
			format = args[0]
		}
		return false, r.export(format)

	default:
		return false, NewValidationError("command", name, "unknown command, type /help")
	}
	return false, nil
}

// load replaces the conversation with a stored session and prints it.
func (r *repl) load(ctx context.Context, id int) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	info := api.SessionInfo{ID: id}
	if sessions, err := r.app.Client.History(ctx, ""); err == nil {
		for _, s := range sessions {
			if s.ID == id {
				info = s
				break
			}
		}
	}
	if err := r.mgr.Load(ctx, info); err != nil {
		return err
	}

	renderer := r.app.renderer(r.config())
	for _, m := range r.mgr.Transcript().Messages() {
		fmt.Fprintln(r.app.Out, r.app.Format.Message(m, renderer))
		fmt.Fprintln(r.app.Out)
	}
	fmt.Fprintln(r.app.Out, r.app.Theme.Success.Render(fmt.Sprintf("Loaded session %d: %s", id, r.mgr.Title())))
	return nil
}

func (r *repl) history(ctx context.Context, search string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	sessions, err := r.app.Client.History(ctx, search)
	if err != nil {
		return err
	}
	printSessions(r.app, sessions)
	return nil
}

func (r *repl) collections(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	cols, err := r.app.Client.Collections(ctx)
	if err != nil {
		return err
	}
	printCollections(r.app, cols, r.mgr.Collection())
	return nil
}

func (r *repl) export(format string) error {
	opts := export.DefaultOptions()
	exp, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}
	meta := export.Meta{Title: r.mgr.Title(), Collection: r.mgr.Collection()}
	if id, ok := r.mgr.SessionID(); ok {
		meta.SessionID = id
	}
	path, err := export.ToFile(export.FromTranscript(r.mgr.Transcript(), meta), exp, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.app.Out, "Exported to %s\n", path)
	return nil
}

func (r *repl) printStaged() {
	staged := r.mgr.Staged()
	if len(staged) == 0 {
		fmt.Fprintln(r.app.Out, r.app.Theme.Muted.Render("No files staged."))
		return
	}
	fmt.Fprintln(r.app.Out, "Staged files:")
	for i, p := range staged {
		size := ""
		if fi, err := os.Stat(p); err == nil {
			size = " " + r.app.Theme.Muted.Render("("+util.FormatBytes(fi.Size())+")")
		}
		fmt.Fprintf(r.app.Out, "  %d. %s%s\n", i+1, p, size)
	}
}

func (r *repl) printNotifications() {
	snap := r.poller.Snapshot()
	printNotifications(r.app, snap.Items)
}

func (r *repl) printWelcome() {
	t := r.app.Theme
	fmt.Fprintln(r.app.Out, t.Title.Render("docchat"))
	line := "Type a question, /help for commands, Ctrl+D to exit."
	if c := r.mgr.Collection(); c != "" {
		line = fmt.Sprintf("Collection: %s. %s", c, line)
	}
	fmt.Fprintln(r.app.Out, t.Muted.Render(line))
	fmt.Fprintln(r.app.Out)
}

func (r *repl) printGoodbye() {
	msgs := r.mgr.Transcript().Len()
	fmt.Fprintln(r.app.Out, r.app.Theme.Muted.Render(fmt.Sprintf("%d messages in %s.",
		msgs, util.FormatElapsed(r.mgr.Duration()))))
}

// parseID parses a positive integer id.
func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, NewValidationError("id", s, "must be a positive number")
	}
	return id, nil
}
