// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config dir at a temp dir and clears DOCCHAT_ overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DOCCHAT_HOME", dir)
	for _, k := range []string{"DOCCHAT_SERVER_URL", "DOCCHAT_COLLECTION", "DOCCHAT_LOG_LEVEL", "DOCCHAT_POLL_INTERVAL", "DOCCHAT_NO_MARKDOWN"} {
		t.Setenv(k, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// =============================================================================
// LOAD
// =============================================================================

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 2*time.Second, cfg.Notifications.PollInterval())
}

func TestLoad_TOMLOverDefaults(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[server]
url = "https://docs.example.com/"

[chat]
collection = "reports"
markdown = false
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com", cfg.Server.URL)
	assert.Equal(t, "reports", cfg.Chat.Collection)
	assert.False(t, cfg.Chat.Markdown)
	assert.Equal(t, 30, cfg.Server.TimeoutSecs, "unset keys keep defaults")
	assert.Equal(t, "auto", cfg.Chat.MarkdownStyle)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{"upload": {"parallel": 4, "summarize": true}}`)

	path, err := ActivePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.json"), path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Upload.Parallel)
	assert.True(t, cfg.Upload.Summarize)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[server\nurl=")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DOCCHAT_SERVER_URL", "http://10.0.0.5:9000")
	t.Setenv("DOCCHAT_COLLECTION", "legal")
	t.Setenv("DOCCHAT_LOG_LEVEL", "DEBUG")
	t.Setenv("DOCCHAT_POLL_INTERVAL", "500ms")
	t.Setenv("DOCCHAT_NO_MARKDOWN", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000", cfg.Server.URL)
	assert.Equal(t, "legal", cfg.Chat.Collection)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 500, cfg.Notifications.PollIntervalMs)
	assert.False(t, cfg.Chat.Markdown)

	t.Setenv("DOCCHAT_POLL_INTERVAL", "750")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 750, cfg.Notifications.PollIntervalMs)
}

// =============================================================================
// SAVE
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := Default()
	cfg.Chat.Collection = "reports"
	cfg.Upload.Parallel = 3
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveJSON_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.Logging.Format = "json"
	require.NoError(t, SaveJSON(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "json", loaded.Logging.Format)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.Server.URL = "localhost:8000" }, "server.url"},
		{"ftp url", func(c *Config) { c.Server.URL = "ftp://x" }, "server.url"},
		{"timeout", func(c *Config) { c.Server.TimeoutSecs = -1 }, "server.timeout_secs"},
		{"collection needs sanitizing", func(c *Config) { c.Chat.Collection = "Q3 Reports" }, "chat.collection"},
		{"parallel", func(c *Config) { c.Upload.Parallel = 100 }, "upload.parallel"},
		{"poll interval", func(c *Config) { c.Notifications.PollIntervalMs = 10 }, "notifications.poll_interval_ms"},
		{"color", func(c *Config) { c.UI.Color = "rainbow" }, "ui.color"},
		{"level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	require.NoError(t, Default().Validate())

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

func TestValidateErrors_Error(t *testing.T) {
	errs := ValidateErrors{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}
	assert.Equal(t, "a: bad; b: worse", errs.Error())
}

// =============================================================================
// KEYS
// =============================================================================

func TestGetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("server.url")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", v)

	require.NoError(t, cfg.Set("upload.parallel", "4"))
	require.NoError(t, cfg.Set("chat.markdown", "false"))
	require.NoError(t, cfg.Set("server.requests_per_second", "2.5"))
	require.NoError(t, cfg.Set("notifications.poll_interval_ms", 500))
	assert.Equal(t, 4, cfg.Upload.Parallel)
	assert.False(t, cfg.Chat.Markdown)
	assert.Equal(t, 2.5, cfg.Server.RequestsPerSecond)
	assert.Equal(t, 500, cfg.Notifications.PollIntervalMs)

	assert.Error(t, cfg.Set("upload.parallel", "many"))
	assert.Error(t, cfg.Set("chat.markdown", "perhaps"))
	assert.Error(t, cfg.Set("server", "x"))
	_, err = cfg.Get("server.nope")
	assert.Error(t, err)
	_, err = cfg.Get("server.url.deeper")
	assert.Error(t, err)
}

func TestAllKeys(t *testing.T) {
	keys := AllKeys()
	assert.Contains(t, keys, "version")
	assert.Contains(t, keys, "server.url")
	assert.Contains(t, keys, "notifications.poll_interval_ms")

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

// =============================================================================
// GLOBAL
// =============================================================================

func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	old := WatchDebounce
	WatchDebounce = 20 * time.Millisecond
	defer func() { WatchDebounce = old }()

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan *Config, 4)
	errs := make(chan error, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, path, func(cfg *Config, err error) {
			if err != nil {
				errs <- err
				return
			}
			changes <- cfg
		})
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	cfg := Default()
	cfg.Notifications.PollIntervalMs = 750
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case got := <-changes:
		assert.Equal(t, 750, got.Notifications.PollIntervalMs)
	case err := <-errs:
		t.Fatalf("unexpected reload error: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}
}
