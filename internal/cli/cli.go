// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Root command, shared application state and Execute.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/chat"
	"github.com/jeranaias/docchat/internal/config"
	"github.com/jeranaias/docchat/internal/logging"
	"github.com/jeranaias/docchat/internal/render"
	"github.com/jeranaias/docchat/internal/ui/styles"
	"github.com/jeranaias/docchat/internal/util"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// annotationNoSetup marks commands that must run without a valid config.
const annotationNoSetup = "docchat/no-setup"

// =============================================================================
// APP
// =============================================================================

// App carries the state every command needs. It is filled in by the root
// command's pre-run hook.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	Config *config.Config
	Log    *zap.Logger
	Client *api.Client
	Theme  *styles.Theme
	Format *render.Formatter

	// Global flags
	configPath string
	serverURL  string
	collection string
	debug      bool
	jsonOut    bool

	// jsonWritten is set once a JSON response has been printed
	jsonWritten bool
}

// NewApp creates an App bound to the given streams.
func NewApp(in io.Reader, out, errOut io.Writer) *App {
	return &App{In: in, Out: out, Err: errOut}
}

// setup loads the configuration and builds the logger, client and theme.
func (a *App) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Server.URL = strings.TrimRight(a.serverURL, "/")
	}
	if flags.Changed("collection") {
		name := util.SanitizeCollectionName(a.collection)
		if name == "" {
			return NewValidationError("collection", a.collection, "name has no usable characters")
		}
		cfg.Chat.Collection = name
	}
	if a.debug {
		cfg.Logging.Level = "debug"
	}
	config.SetGlobal(cfg)
	a.Config = cfg

	if a.Log, err = logging.New(cfg); err != nil {
		return err
	}
	a.Log.Debug("command started", zap.String("command", cmd.CommandPath()), zap.String("server", cfg.Server.URL))

	a.Client = api.NewClientWithConfig(cfg.ClientConfig())

	profile := styles.DetectProfile(cfg.UI.Color, a.Out)
	dark := true
	if profile != termenv.Ascii && isTerminal(a.Out) {
		dark = termenv.HasDarkBackground()
	}
	a.Theme = styles.NewThemeWithProfile(profile, dark)
	a.Format = render.NewFormatter(a.Theme)
	return nil
}

func (a *App) teardown() {
	if a.Log != nil {
		_ = a.Log.Sync()
	}
}

// markdownEnabled reports whether replies are rendered with glamour for
// cfg. Piped output always gets the raw text.
func (a *App) markdownEnabled(cfg *config.Config) bool {
	return cfg.Chat.Markdown && isTerminal(a.Out) && !a.Theme.Plain()
}

// renderer returns the reply renderer for cfg.
func (a *App) renderer(cfg *config.Config) chat.Renderer {
	if !a.markdownEnabled(cfg) {
		return render.Plain{}
	}
	wrap := min(cfg.Chat.WordWrap, terminalWidth(a.Out)-2)
	md, err := render.NewMarkdown(cfg.Chat.MarkdownStyle, wrap)
	if err != nil {
		a.Log.Warn("markdown renderer unavailable", zap.String("style", cfg.Chat.MarkdownStyle), zap.Error(err))
		return render.Plain{}
	}
	return md
}

// printError displays err on the error stream with an optional hint.
func (a *App) printError(err error) {
	msg := "Error: " + err.Error()
	if a.Format != nil {
		msg = a.Format.Error(err)
	}
	fmt.Fprintln(a.Err, msg)

	server := api.DefaultConfig().BaseURL
	if a.Config != nil {
		server = a.Config.Server.URL
	}
	if h := hint(err, server); h != "" {
		fmt.Fprintln(a.Err, h)
	}
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the full command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "docchat",
		Short: "Chat with your documents from the terminal",
		Long: `docchat is a terminal client for a document chat server.

It streams answers grounded in your document collections, uploads files
with live progress, and follows background summaries as notifications.

Quick Start:
  docchat upload report.pdf --collection research
  docchat chat --collection research
  docchat ask "What are the key findings?" --collection research
  docchat notifications watch`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoSetup] == "true" {
				return nil
			}
			return app.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.teardown()
		},
	}
	root.SetVersionTemplate(`{{printf "docchat %s\n" .Version}}`)
	root.SetIn(app.In)
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&app.configPath, "config", "", "Config file (default ~/.docchat/config.toml)")
	pf.StringVar(&app.serverURL, "server", "", "Server URL (overrides server.url)")
	pf.StringVarP(&app.collection, "collection", "c", "", "Collection to use (overrides chat.collection)")
	pf.BoolVar(&app.debug, "debug", false, "Log at debug level")
	pf.BoolVar(&app.jsonOut, "json", false, "Print machine-readable JSON")

	root.AddCommand(
		newChatCommand(app),
		newAskCommand(app),
		newUploadCommand(app),
		newNotificationsCommand(app),
		newSessionsCommand(app),
		newCollectionsCommand(app),
		newStatsCommand(app),
		newConfigCommand(app),
	)
	return root
}

// Execute runs the command tree against the process streams and returns
// the exit code.
func Execute() int {
	return run(context.Background(), NewApp(os.Stdin, os.Stdout, os.Stderr), os.Args[1:])
}

func run(ctx context.Context, app *App, args []string) int {
	root := NewRootCommand(app)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
	case app.jsonOut && !app.jsonWritten:
		_ = NewJSONErrorResponse(root.Name(), err).Write(app.Out)
	case !app.jsonOut:
		app.printError(err)
	}
	return ExitCode(err)
}
