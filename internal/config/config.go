// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/util"
)

// CurrentVersion is the config file format version.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete docchat configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Server        ServerConfig        `toml:"server" json:"server"`
	Chat          ChatConfig          `toml:"chat" json:"chat"`
	Upload        UploadConfig        `toml:"upload" json:"upload"`
	Notifications NotificationsConfig `toml:"notifications" json:"notifications"`
	UI            UIConfig            `toml:"ui" json:"ui"`
	Logging       LoggingConfig       `toml:"logging" json:"logging"`
}

// ServerConfig describes how to reach the document chat server.
type ServerConfig struct {
	// URL is the server base URL, e.g. http://127.0.0.1:8000
	URL string `toml:"url" json:"url"`

	// TimeoutSecs bounds non-streaming requests
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// RequestsPerSecond limits outgoing requests (0 disables the limit)
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `toml:"burst" json:"burst"`
}

// ChatConfig contains chat settings.
type ChatConfig struct {
	// Collection is the collection queried by default (empty for none)
	Collection string `toml:"collection" json:"collection"`

	// Markdown renders replies with glamour when stdout is a terminal
	Markdown bool `toml:"markdown" json:"markdown"`

	// MarkdownStyle is a glamour style name or "auto"
	MarkdownStyle string `toml:"markdown_style" json:"markdown_style"`

	WordWrap int `toml:"word_wrap" json:"word_wrap"`

	// HistoryFile stores REPL input history (relative to the config dir)
	HistoryFile string `toml:"history_file" json:"history_file"`
}

// UploadConfig contains upload settings.
type UploadConfig struct {
	Summarize bool `toml:"summarize" json:"summarize"`

	// Parallel is the number of files uploaded at once by "docchat upload"
	Parallel int `toml:"parallel" json:"parallel"`

	// CompletionDelayMs is waited before the upload completion action
	CompletionDelayMs int `toml:"completion_delay_ms" json:"completion_delay_ms"`
}

// NotificationsConfig contains notification polling settings.
type NotificationsConfig struct {
	PollIntervalMs int `toml:"poll_interval_ms" json:"poll_interval_ms"`
}

// UIConfig contains terminal output settings.
type UIConfig struct {
	// Color is "auto", "always" or "never"
	Color string `toml:"color" json:"color"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `toml:"level" json:"level"`

	// Format is "console" or "json"
	Format string `toml:"format" json:"format"`

	// File is the log file path; "stderr" logs to the terminal and an empty
	// value uses docchat.log in the config dir.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			URL:               "http://127.0.0.1:8000",
			TimeoutSecs:       30,
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Chat: ChatConfig{
			Markdown:      true,
			MarkdownStyle: "auto",
			WordWrap:      80,
			HistoryFile:   "chat_history",
		},
		Upload: UploadConfig{
			Summarize:         false,
			Parallel:          1,
			CompletionDelayMs: 2000,
		},
		Notifications: NotificationsConfig{
			PollIntervalMs: 2000,
		},
		UI: UIConfig{
			Color: "auto",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// Timeout returns the request timeout.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// CompletionDelay returns the pause before the upload completion action.
func (u UploadConfig) CompletionDelay() time.Duration {
	return time.Duration(u.CompletionDelayMs) * time.Millisecond
}

// PollInterval returns the notification poll interval.
func (n NotificationsConfig) PollInterval() time.Duration {
	return time.Duration(n.PollIntervalMs) * time.Millisecond
}

// ClientConfig returns the API client settings.
func (c *Config) ClientConfig() *api.ClientConfig {
	cc := api.DefaultConfig()
	cc.BaseURL = c.Server.URL
	cc.Timeout = c.Server.Timeout()
	cc.RequestsPerSecond = c.Server.RequestsPerSecond
	cc.Burst = c.Server.Burst
	return cc
}

// HistoryPath returns the absolute REPL history path.
func (c *Config) HistoryPath() (string, error) {
	if filepath.IsAbs(c.Chat.HistoryFile) {
		return c.Chat.HistoryFile, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Chat.HistoryFile), nil
}

// LogPath returns the log file path, or "" when logging to stderr.
func (c *Config) LogPath() (string, error) {
	switch c.Logging.File {
	case "stderr":
		return "", nil
	case "":
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "docchat.log"), nil
	default:
		return c.Logging.File, nil
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the docchat configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("DOCCHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".docchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// ActivePath returns the config file Load would read, or the TOML path if
// neither file exists.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults. Environment
// overrides are applied last.
func Load() (*Config, error) {
	path, err := ActivePath()
	if err != nil {
		return finish(Default())
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file with full
// validation. Files ending in .json are read as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	if strings.HasSuffix(path, ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in values a file may have set to zero.
func fillDefaults(cfg *Config) {
	d := Default()

	if cfg.Version == "" {
		cfg.Version = d.Version
	}
	if cfg.Server.URL == "" {
		cfg.Server.URL = d.Server.URL
	}
	cfg.Server.URL = strings.TrimRight(cfg.Server.URL, "/")
	if cfg.Server.TimeoutSecs == 0 {
		cfg.Server.TimeoutSecs = d.Server.TimeoutSecs
	}
	if cfg.Chat.MarkdownStyle == "" {
		cfg.Chat.MarkdownStyle = d.Chat.MarkdownStyle
	}
	if cfg.Chat.WordWrap == 0 {
		cfg.Chat.WordWrap = d.Chat.WordWrap
	}
	if cfg.Chat.HistoryFile == "" {
		cfg.Chat.HistoryFile = d.Chat.HistoryFile
	}
	if cfg.Upload.Parallel == 0 {
		cfg.Upload.Parallel = d.Upload.Parallel
	}
	if cfg.Notifications.PollIntervalMs == 0 {
		cfg.Notifications.PollIntervalMs = d.Notifications.PollIntervalMs
	}
	if cfg.UI.Color == "" {
		cfg.UI.Color = d.UI.Color
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = d.Logging.Format
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# docchat configuration file\n")
	buf.WriteString("# Environment variables (DOCCHAT_*) override these values.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0o600, 0o700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0o600, 0o700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns ValidateErrors if
// anything is out of range.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.Server.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("server.url", "must be an http or https URL, got %q", c.Server.URL)
	}
	if c.Server.TimeoutSecs < 1 || c.Server.TimeoutSecs > 3600 {
		add("server.timeout_secs", "must be between 1 and 3600, got %d", c.Server.TimeoutSecs)
	}
	if c.Server.RequestsPerSecond < 0 {
		add("server.requests_per_second", "must not be negative")
	}
	if c.Server.Burst < 0 {
		add("server.burst", "must not be negative")
	}

	if c.Chat.Collection != "" {
		if clean := util.SanitizeCollectionName(c.Chat.Collection); clean != c.Chat.Collection {
			add("chat.collection", "%q is stored by the server as %q; use that name", c.Chat.Collection, clean)
		}
	}
	if c.Chat.WordWrap < 20 || c.Chat.WordWrap > 500 {
		add("chat.word_wrap", "must be between 20 and 500, got %d", c.Chat.WordWrap)
	}

	if c.Upload.Parallel < 1 || c.Upload.Parallel > 16 {
		add("upload.parallel", "must be between 1 and 16, got %d", c.Upload.Parallel)
	}
	if c.Upload.CompletionDelayMs < 0 {
		add("upload.completion_delay_ms", "must not be negative")
	}

	if c.Notifications.PollIntervalMs < 100 {
		add("notifications.poll_interval_ms", "must be at least 100, got %d", c.Notifications.PollIntervalMs)
	}

	switch c.UI.Color {
	case "auto", "always", "never":
	default:
		add("ui.color", "must be auto, always or never, got %q", c.UI.Color)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		add("logging.level", "must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		add("logging.format", "must be console or json, got %q", c.Logging.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - DOCCHAT_SERVER_URL: overrides server.url
//   - DOCCHAT_COLLECTION: overrides chat.collection
//   - DOCCHAT_LOG_LEVEL: overrides logging.level
//   - DOCCHAT_POLL_INTERVAL: overrides notifications.poll_interval_ms; a Go
//     duration ("500ms", "2s") or a number of milliseconds
//   - DOCCHAT_NO_MARKDOWN: "1" or "true" disables markdown rendering
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DOCCHAT_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("DOCCHAT_COLLECTION"); v != "" {
		c.Chat.Collection = v
	}
	if v := os.Getenv("DOCCHAT_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("DOCCHAT_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Notifications.PollIntervalMs = int(d / time.Millisecond)
		} else if ms, err := strconv.Atoi(v); err == nil {
			c.Notifications.PollIntervalMs = ms
		}
	}
	if v := os.Getenv("DOCCHAT_NO_MARKDOWN"); v == "1" || strings.EqualFold(v, "true") {
		c.Chat.Markdown = false
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the TOML form of the config.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. A broken config file yields defaults with a warning on stderr.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
