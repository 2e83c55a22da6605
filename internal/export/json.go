// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// document is the structure written by the JSON and YAML exporters.
type document struct {
	Meta       `yaml:",inline"`
	ExportedAt string            `json:"exported_at" yaml:"exported_at"`
	Messages   []exportedMessage `json:"messages" yaml:"messages"`
}

func toDocument(conv *Conversation) document {
	return document{
		Meta:       conv.Meta,
		ExportedAt: conv.ExportedAt.Format("2006-01-02T15:04:05Z07:00"),
		Messages:   conv.exportedMessages(),
	}
}

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports conversations to indented JSON.
type JSONExporter struct{}

// Export converts a conversation to JSON format.
func (JSONExporter) Export(conv *Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}
	return json.MarshalIndent(toDocument(conv), "", "  ")
}

// FileExtension returns the file extension for JSON.
func (JSONExporter) FileExtension() string { return ".json" }

// MimeType returns the MIME type for JSON.
func (JSONExporter) MimeType() string { return "application/json" }

// =============================================================================
// YAML EXPORTER
// =============================================================================

// YAMLExporter exports conversations to YAML.
type YAMLExporter struct{}

// Export converts a conversation to YAML format.
func (YAMLExporter) Export(conv *Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}
	return yaml.Marshal(toDocument(conv))
}

// FileExtension returns the file extension for YAML.
func (YAMLExporter) FileExtension() string { return ".yaml" }

// MimeType returns the MIME type for YAML.
func (YAMLExporter) MimeType() string { return "application/yaml" }
