// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package framing splits a chunked byte stream into newline-delimited records.
//
// The server streams upload progress as one JSON object per line, but the
// transport delivers bytes at arbitrary boundaries: a record may arrive in
// several reads, and one read may carry several records. Framer keeps the
// incomplete tail between reads so no record is ever split, dropped or
// duplicated.
//
// # Key Types
//
//   - Framer: carry-buffer line splitter (Feed / Finish)
//   - FramingError: a line that is not valid JSON
//
// # Usage
//
//	f := framing.NewFramer()
//	for _, line := range f.Feed(chunk) {
//	    var ev Event
//	    if err := framing.Decode(line, &ev); err != nil {
//	        continue // logged by caller, stream continues
//	    }
//	}
//	lines := f.Finish()
//
// Scan wraps the same loop around an io.Reader.
package framing
