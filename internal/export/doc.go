// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to files.
//
// Supported formats are Markdown (with YAML frontmatter), JSON and YAML.
// Annotations on interrupted replies are kept in exports as they are part
// of what the user saw, even though they are never sent back to the server.
//
// # Usage
//
//	conv := export.FromTranscript(mgr.Transcript(), export.Meta{Title: mgr.Title()})
//	exp, err := export.ForFormat("md", nil)
//	path, err := export.ToFile(conv, exp, export.DefaultOptions())
package export
