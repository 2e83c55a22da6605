// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for docchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation and live reload.
//
// # Key Types
//
//   - Config: main configuration structure
//   - ServerConfig: base URL, timeouts and request rate
//   - ChatConfig: default collection and markdown rendering
//   - UploadConfig: summarize flag, parallelism, completion delay
//   - NotificationsConfig: poll interval
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DOCCHAT_*)
//   - ~/.docchat/config.toml
//   - ~/.docchat/config.json
//   - Built-in defaults
//
// DOCCHAT_HOME moves the whole ~/.docchat directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := api.NewClientWithConfig(cfg.ClientConfig())
//
// Watch blocks and calls back with the reloaded config on every change:
//
//	go config.Watch(ctx, path, func(cfg *config.Config, err error) { ... })
package config
