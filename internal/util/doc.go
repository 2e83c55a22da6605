// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the docchat packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, PadRight, StringWidth: terminal column aware helpers
//   - SanitizeCollectionName: the name the server will store a collection as
//
// Formatting:
//   - FormatBytes, FormatElapsed: human readable sizes and durations
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.TruncateWidth(session.Title, 40)
//	name := util.SanitizeCollectionName("Q3 Reports") // "Q3_Reports"
//	err := util.AtomicWriteFile(path, data, 0600)
package util
