// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Event statuses sent by the server.
const (
	StatusLoading        = "loading"
	StatusChunking       = "chunking"
	StatusEmbedding      = "embedding"
	StatusSaving         = "saving"
	StatusSummaryStarted = "summary_started"
	StatusCompleted      = "completed"
	StatusError          = "error"
	StatusAllCompleted   = "all_completed"
)

// =============================================================================
// EVENT
// =============================================================================

// Event is one line of the upload progress stream.
type Event struct {
	Status   string       `json:"status"`
	Message  string       `json:"message,omitempty"`
	Progress Progress     `json:"progress"`
	TaskID   string       `json:"task_id,omitempty"`
	Results  []FileResult `json:"results,omitempty"`
}

// FileResult is the per-file outcome carried by all_completed.
type FileResult struct {
	File   string `json:"file"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Chunks int    `json:"chunks,omitempty"`
}

// Failed reports whether the file was not ingested.
func (r FileResult) Failed() bool {
	return r.Status == "failed" || r.Error != ""
}

// =============================================================================
// PROGRESS
// =============================================================================

// Progress is an optional completion percentage. The server sends it either
// as a number (percent) or as a "done/total" string while embedding.
type Progress struct {
	Percent float64
	Done    int
	Total   int
	Valid   bool
}

// UnmarshalJSON accepts a number, a numeric string, a "n/m" string or null.
// Anything else leaves the progress absent rather than failing the event.
func (p *Progress) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Progress{}
		return nil
	}

	if data[0] != '"' {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			*p = Progress{}
			return nil
		}
		*p = Progress{Percent: clampPercent(f), Valid: true}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("progress: %w", err)
	}
	parsed, err := ParseProgress(s)
	if err != nil {
		parsed = Progress{}
	}
	*p = parsed
	return nil
}

// MarshalJSON writes the percent, or null when absent.
func (p Progress) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Percent)
}

// Int returns the percent rounded down.
func (p Progress) Int() int {
	return int(p.Percent)
}

// ParseProgress parses "40", "40%" or "3/10".
func ParseProgress(s string) (Progress, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Progress{}, nil
	}

	if done, total, ok := strings.Cut(s, "/"); ok {
		d, err1 := strconv.Atoi(strings.TrimSpace(done))
		t, err2 := strconv.Atoi(strings.TrimSpace(total))
		if err1 != nil || err2 != nil || t <= 0 {
			return Progress{}, fmt.Errorf("progress: invalid fraction %q", s)
		}
		return Progress{
			Percent: clampPercent(float64(d) * 100 / float64(t)),
			Done:    d,
			Total:   t,
			Valid:   true,
		}, nil
	}

	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return Progress{}, fmt.Errorf("progress: invalid value %q", s)
	}
	return Progress{Percent: clampPercent(f), Valid: true}, nil
}

func clampPercent(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return f
}
