// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the docchat command tree.
//
// The root command loads the configuration, builds the logger and the API
// client, and hands them to the subcommands through an App value.
//
// # Commands Overview
//
//   - chat: interactive REPL with streaming replies, staging and uploads
//   - ask: single question in a new session
//   - upload: upload files into a collection
//   - notifications: list, acknowledge, clear and watch background tasks
//   - sessions: browse, export, rename, archive and delete history
//   - collections: list, create, delete and summarize collections
//   - stats: profile counters
//   - config: show, initialize and edit the configuration file
//
// List commands accept --json for machine-readable output.
package cli
