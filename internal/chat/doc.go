// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs one streamed assistant reply from request to transcript.
//
// A Session sends the conversation to the server, consumes the raw text
// reply as it arrives and keeps a display body that only ever grows: a
// trailing fragment that could still turn into the metrics marker, or an
// incomplete UTF-8 sequence, is held back until the next chunk decides it.
// The session ends in exactly one of three states:
//
//   - Completed: the stream ended; the trimmed body becomes one assistant message
//   - Aborted: Cancel was called; the partial body is kept with an interruption note
//   - Failed: the transport failed; nothing is appended
//
// # Usage
//
//	s := chat.Start(ctx, chat.Options{
//	    Sender:     client,
//	    Transcript: transcript,
//	    OnUpdate:   func(u chat.Update) { view.Replace(u.Body) },
//	}, chat.Request{Message: "Summarize the report"})
//
//	// from a signal handler:
//	s.Cancel()
//
//	res := s.Wait()
package chat
