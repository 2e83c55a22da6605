// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns chat, upload and notification state into terminal
// text.
//
// Markdown wraps a glamour renderer and satisfies chat.Renderer. Plain is
// the identity renderer used when stdout is not a terminal. Formatter adds
// the styled blocks around a reply: the metrics footer, the interruption
// note and error lines.
package render
