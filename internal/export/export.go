// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/docchat/internal/model"
	"github.com/jeranaias/docchat/internal/util"
)

// ErrEmpty is returned when exporting a conversation with no messages.
var ErrEmpty = errors.New("conversation has no messages")

// =============================================================================
// CONVERSATION
// =============================================================================

// Meta describes where a conversation came from.
type Meta struct {
	Title      string `json:"title" yaml:"title"`
	SessionID  int    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
}

// Conversation is the exported form of a transcript.
type Conversation struct {
	Meta
	ExportedAt time.Time
	Messages   []model.Message
}

// exportedMessage carries the annotation, which model.Message keeps out of
// its own encodings.
type exportedMessage struct {
	Role       model.Role `json:"role" yaml:"role"`
	Content    string     `json:"content" yaml:"content"`
	Timestamp  time.Time  `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Annotation string     `json:"annotation,omitempty" yaml:"annotation,omitempty"`
}

func (c *Conversation) exportedMessages() []exportedMessage {
	out := make([]exportedMessage, len(c.Messages))
	for i, m := range c.Messages {
		out[i] = exportedMessage{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp, Annotation: m.Annotation}
	}
	return out
}

// FromTranscript snapshots a transcript for export.
func FromTranscript(t *model.Transcript, meta Meta) *Conversation {
	if meta.Title == "" {
		meta.Title = t.Title(50)
	}
	return &Conversation{
		Meta:       meta,
		ExportedAt: time.Now(),
		Messages:   t.Messages(),
	}
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export converts a conversation to the target format.
	Export(conv *Conversation) ([]byte, error)

	// FileExtension returns the file extension, e.g. ".md".
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	OutputDir string

	// IncludeMetadata adds frontmatter and a session section to Markdown.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message timestamps to Markdown.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: false,
	}
}

// Formats lists the accepted format names.
var Formats = []string{"md", "json", "yaml"}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "json":
		return JSONExporter{}, nil
	case "yaml", "yml":
		return YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// ToFile exports conv into opts.OutputDir and returns the file path.
func ToFile(conv *Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(conv.Title),
		conv.ExportedAt.Format("20060102_150405"),
		exporter.FileExtension(),
	)
	path := filepath.Join(opts.OutputDir, filename)
	if err := util.AtomicWriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in filenames on
// Windows or Unix.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(strings.TrimSpace(s), 50)

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "conversation"
	}
	return b.String()
}

func validate(conv *Conversation) error {
	if conv == nil {
		return errors.New("conversation is nil")
	}
	if len(conv.Messages) == 0 {
		return ErrEmpty
	}
	return nil
}
