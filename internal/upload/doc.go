// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload sends documents to a collection and follows the server's
// progress stream.
//
// The server answers an upload with one JSON event per line. Run frames the
// stream with its own framing.Framer and turns each event into a view update,
// in arrival order:
//
//   - embedding: the event message, or "Embedding... N%"
//   - summary_started: one notification refresh per event
//   - completed: the message, if any, plus a deferred completion update
//     delivered once after the stream ends
//   - anything else: the message, if any
//
// Lines that are not JSON are logged and skipped. A transport failure is
// reported as an "Error: ..." update and returned; updates already delivered
// stay as they are.
//
// # Key Types
//
//   - Event: one progress record
//   - Progress: percent, accepting both numbers and "n/m" strings
//   - Job: bookkeeping for one upload request
//   - Update: what the view receives
package upload
