// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package framing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DefaultReadSize is the buffer size Scan uses for each read.
const DefaultReadSize = 4096

// =============================================================================
// FRAMER
// =============================================================================

// Framer converts chunks delivered at arbitrary boundaries into complete lines.
// A Framer belongs to exactly one stream and is not safe for concurrent use.
type Framer struct {
	carry []byte
}

// NewFramer creates an empty framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Feed appends chunk to the carry buffer and returns every complete line found.
// Lines are trimmed of surrounding whitespace; blank lines are skipped.
// The trailing fragment after the last newline is kept for the next call.
func (f *Framer) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	f.carry = append(f.carry, chunk...)

	var lines []string
	for {
		idx := bytes.IndexByte(f.carry, '\n')
		if idx < 0 {
			break
		}
		if line := bytes.TrimSpace(f.carry[:idx]); len(line) > 0 {
			lines = append(lines, string(line))
		}
		f.carry = f.carry[idx+1:]
	}

	// Compact so the backing array doesn't grow with the stream.
	if len(f.carry) == 0 {
		f.carry = nil
	} else if cap(f.carry) > 2*len(f.carry)+DefaultReadSize {
		f.carry = append([]byte(nil), f.carry...)
	}
	return lines
}

// Finish flushes the carry buffer as a final line if it is non-empty and
// resets the framer.
func (f *Framer) Finish() []string {
	tail := bytes.TrimSpace(f.carry)
	f.carry = nil
	if len(tail) == 0 {
		return nil
	}
	return []string{string(tail)}
}

// Pending returns the number of buffered bytes not yet emitted as a line.
func (f *Framer) Pending() int {
	return len(f.carry)
}

// =============================================================================
// RECORD DECODING
// =============================================================================

// FramingError reports a line that could not be decoded as a JSON record.
// The raw line is kept so callers can log it; the stream is not aborted.
type FramingError struct {
	Line string
	Err  error
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("malformed record %q: %v", e.Line, e.Err)
}

func (e *FramingError) Unwrap() error {
	return e.Err
}

// Decode parses one line as a JSON record into v.
func Decode(line string, v any) error {
	if err := json.Unmarshal([]byte(line), v); err != nil {
		return &FramingError{Line: line, Err: err}
	}
	return nil
}

// IsFramingError reports whether err is (or wraps) a FramingError.
func IsFramingError(err error) bool {
	var fe *FramingError
	return errors.As(err, &fe)
}

// =============================================================================
// STREAM SCANNING
// =============================================================================

// LineFunc handles one complete line. Returning an error stops the scan.
type LineFunc func(line string) error

// Scan pulls r until EOF, feeding every read into a fresh Framer and calling
// fn for each line in arrival order. Context cancellation is checked between
// reads; closing r is how callers interrupt a read that is already blocked.
func Scan(ctx context.Context, r io.Reader, fn LineFunc) error {
	framer := NewFramer()
	buf := make([]byte, DefaultReadSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			for _, line := range framer.Feed(buf[:n]) {
				if err := fn(line); err != nil {
					return err
				}
			}
		}

		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if !errors.Is(readErr, io.EOF) {
				return readErr
			}
			for _, line := range framer.Finish() {
				if err := fn(line); err != nil {
					return err
				}
			}
			return nil
		}
	}
}
