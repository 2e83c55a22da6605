// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration management command.
//
// Command: config
//
// Subcommands:
//   show               Print the effective configuration (file + env)
//   path               Print the config file path
//   init [--force]     Write a default config file
//   get <key>          Print one value, e.g. "server.url"
//   set <key> <value>  Change one value in the config file
//   keys               List every key

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/docchat/internal/config"
)

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit the configuration",
		Long: `Show and edit the configuration file.

The file is ~/.docchat/config.toml (or config.json). DOCCHAT_HOME moves the
directory. DOCCHAT_* environment variables override file values; "show"
prints the effective result, "get" and "set" work on the file.`,
	}
	cmd.AddCommand(
		newConfigShowCommand(app),
		newConfigPathCommand(app),
		newConfigInitCommand(app),
		newConfigGetCommand(app),
		newConfigSetCommand(app),
		newConfigKeysCommand(app),
	)
	return cmd
}

// noSetup marks cmd to run without loading the configuration, so a broken
// file can still be located and repaired.
func noSetup(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationNoSetup] = "true"
	return cmd
}

// filePath returns the config file the command operates on.
func (a *App) filePath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.ActivePath()
}

// loadFile reads the config file without environment overrides. A missing
// file yields the defaults.
func loadFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	var err error
	if strings.HasSuffix(path, ".json") {
		err = config.LoadJSON(cfg, path)
	} else {
		err = config.LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}
	return cfg, nil
}

func saveFile(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

func newConfigShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.output("config show", func() (any, error) {
				if !app.jsonOut {
					fmt.Fprint(app.Out, app.Config.String())
				}
				return app.Config, nil
			})
		},
	}
}

func newConfigPathCommand(app *App) *cobra.Command {
	return noSetup(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.filePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, path)
			return nil
		},
	})
}

func newConfigInitCommand(app *App) *cobra.Command {
	var force bool
	cmd := noSetup(&cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.filePath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := saveFile(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Wrote %s\n", path)
			return nil
		},
	})
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigGetCommand(app *App) *cobra.Command {
	return noSetup(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.filePath()
			if err != nil {
				return err
			}
			cfg, err := loadFile(path)
			if err != nil {
				return err
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return NewValidationError("key", args[0], err.Error())
			}
			fmt.Fprintln(app.Out, v)
			return nil
		},
	})
}

func newConfigSetCommand(app *App) *cobra.Command {
	return noSetup(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one value in the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.filePath()
			if err != nil {
				return err
			}
			cfg, err := loadFile(path)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return NewValidationError("key", args[0], err.Error())
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := saveFile(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "%s = %v\n", args[0], args[1])
			return nil
		},
	})
}

func newConfigKeysCommand(app *App) *cobra.Command {
	return noSetup(&cobra.Command{
		Use:   "keys",
		Short: "List every configuration key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range config.AllKeys() {
				fmt.Fprintln(app.Out, k)
			}
			return nil
		},
	})
}
