// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/chat"
	"github.com/jeranaias/docchat/internal/config"
	"github.com/jeranaias/docchat/internal/render"
	"github.com/jeranaias/docchat/internal/session"
	"github.com/jeranaias/docchat/internal/ui/styles"

	"github.com/muesli/termenv"
)

// =============================================================================
// TEST SERVER
// =============================================================================

// fakeServer is a minimal document chat server.
type fakeServer struct {
	mu         sync.Mutex
	chats      []api.ChatRequest
	created    int
	reads      []int
	cleared    bool
	updates    []map[string]any
	deleted    []int
	collection string
	uploads    []string
	chatStatus int
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req api.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.chats = append(f.chats, req)
		status := f.chatStatus
		f.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			io.WriteString(w, `{"detail":"model offline"}`)
			return
		}
		fl := w.(http.Flusher)
		for _, chunk := range []string{"Hi ", "there", "\n\n[METRICS]", "Time: 1.2s"} {
			io.WriteString(w, chunk)
			fl.Flush()
		}
	})
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.created++
		f.mu.Unlock()
		io.WriteString(w, `{"id":7,"title":"New Chat"}`)
	})
	mux.HandleFunc("/api/sessions/7", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodPatch:
			var u map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&u))
			f.updates = append(f.updates, u)
		case http.MethodDelete:
			f.deleted = append(f.deleted, 7)
		}
		io.WriteString(w, `{"status":"success"}`)
	})
	mux.HandleFunc("/api/sessions/archived", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":3,"title":"Old notes","created_at":"2024-12-01"}]`)
	})
	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("search"); q != "" && q != "report" {
			io.WriteString(w, `[]`)
			return
		}
		io.WriteString(w, `[{"id":7,"title":"Report questions","created_at":"2025-01-02"}]`)
	})
	mux.HandleFunc("/api/history/7", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"role":"user","content":"What is in the report?"},{"role":"assistant","content":"Quarterly numbers."}]`)
	})
	mux.HandleFunc("/api/notifications", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"notifications":[`+
			`{"id":1,"message":"Summary ready: a.pdf","status":"completed","progress":100,"is_read":false},`+
			`{"id":2,"message":"Summary ready: b.pdf","status":"completed","progress":100,"is_read":true}]}`)
	})
	mux.HandleFunc("/api/notifications/1/read", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.reads = append(f.reads, 1)
		f.mu.Unlock()
		io.WriteString(w, `{"status":"success"}`)
	})
	mux.HandleFunc("/api/notifications/clear", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.cleared = true
		f.mu.Unlock()
		io.WriteString(w, `{"status":"success"}`)
	})
	mux.HandleFunc("/api/collections", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var in api.Collection
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			f.mu.Lock()
			f.collection = in.Name
			f.mu.Unlock()
			io.WriteString(w, `{"status":"success","name":"`+in.Name+`"}`)
			return
		}
		io.WriteString(w, `[{"name":"research"},{"name":"notes"}]`)
	})
	mux.HandleFunc("/api/collections/research/summary", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"name":"research","documents":[{"filename":"a.pdf","summary":"About A."}]}`)
	})
	mux.HandleFunc("/api/profile/stats", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"username":"test","total_chats":4,"archived_chats":1,"files_uploaded":12,"collections":2}`)
	})
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f.mu.Lock()
		for _, fh := range r.MultipartForm.File["files"] {
			f.uploads = append(f.uploads, fh.Filename)
		}
		f.mu.Unlock()
		io.WriteString(w, `{"status":"embedding","progress":"1/2"}`+"\n")
		io.WriteString(w, `{"status":"summary_started","task_id":"t1"}`+"\n")
		io.WriteString(w, `{"status":"completed","message":"Indexed a.txt"}`+"\n")
		io.WriteString(w, `{"status":"all_completed","results":[{"file":"a.txt","status":"success","chunks":3}]}`+"\n")
	})
	return mux
}

// =============================================================================
// HELPERS
// =============================================================================

type result struct {
	out  string
	err  string
	code int
}

// newHome points the config dir at a temp dir holding a config file with
// no upload completion delay.
func newHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("DOCCHAT_HOME", home)
	for _, k := range []string{"DOCCHAT_SERVER_URL", "DOCCHAT_COLLECTION", "DOCCHAT_LOG_LEVEL", "DOCCHAT_POLL_INTERVAL", "DOCCHAT_NO_MARKDOWN"} {
		t.Setenv(k, "")
	}
	cfg := "[upload]\ncompletion_delay_ms = 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(cfg), 0o600))

	config.ResetGlobalForTesting()
	t.Cleanup(config.ResetGlobalForTesting)
	return home
}

func startServer(t *testing.T) (*fakeServer, string) {
	t.Helper()
	fs := &fakeServer{}
	srv := httptest.NewServer(fs.handler(t))
	t.Cleanup(srv.Close)
	return fs, srv.URL
}

func runCLI(t *testing.T, url, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp(strings.NewReader(stdin), &out, &errOut)
	if url != "" {
		args = append(args, "--server", url)
	}
	code := run(context.Background(), app, args)
	return result{out: out.String(), err: errOut.String(), code: code}
}

func decodeJSON(t *testing.T, s string) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal([]byte(s), &resp), s)
	return resp
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_StreamsReplyWithFooter(t *testing.T) {
	newHome(t)
	fs, url := startServer(t)

	res := runCLI(t, url, "", "ask", "What", "is", "in", "the", "report?", "-c", "research")
	require.Equal(t, ExitSuccess, res.code, res.err)

	assert.Contains(t, res.out, "Hi there")
	assert.Contains(t, res.out, "Time: 1.2s")
	assert.NotContains(t, res.out, "[METRICS]")

	require.Len(t, fs.chats, 1)
	req := fs.chats[0]
	require.NotNil(t, req.SessionID)
	assert.Equal(t, 7, *req.SessionID)
	require.NotNil(t, req.Collection)
	assert.Equal(t, "research", *req.Collection)
	assert.Equal(t, []api.Message{{Role: "user", Content: "What is in the report?"}}, req.Messages)
}

func TestAsk_ReadsStdin(t *testing.T) {
	newHome(t)
	fs, url := startServer(t)

	res := runCLI(t, url, "Summarize chapter 2\n", "ask")
	require.Equal(t, ExitSuccess, res.code, res.err)
	require.Len(t, fs.chats, 1)
	assert.Equal(t, "Summarize chapter 2", fs.chats[0].Messages[0].Content)
	assert.Nil(t, fs.chats[0].Collection)
}

func TestAsk_JSON(t *testing.T) {
	newHome(t)
	_, url := startServer(t)

	res := runCLI(t, url, "", "ask", "hello", "--json")
	require.Equal(t, ExitSuccess, res.code, res.err)

	resp := decodeJSON(t, res.out)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "Hi there", data["response"])
	assert.Equal(t, "Time: 1.2s", data["footer"])
	assert.Equal(t, "completed", data["status"])
	assert.EqualValues(t, 7, data["session_id"])
}

func TestAsk_ServerError(t *testing.T) {
	newHome(t)
	fs, url := startServer(t)
	fs.chatStatus = http.StatusInternalServerError

	res := runCLI(t, url, "", "ask", "hello")
	assert.Equal(t, ExitGeneralError, res.code)
	assert.Contains(t, res.err, "model offline")
}

func TestAsk_Unreachable(t *testing.T) {
	newHome(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := runCLI(t, url, "", "ask", "hello")
	assert.Equal(t, ExitNetworkError, res.code)
	assert.Contains(t, res.err, "Is the server running")
}

func TestAsk_NothingToAsk(t *testing.T) {
	newHome(t)
	_, url := startServer(t)

	res := runCLI(t, url, "", "ask")
	assert.Equal(t, ExitUsageError, res.code)
}

// =============================================================================
// CHAT
// =============================================================================

func TestChat_REPL(t *testing.T) {
	newHome(t)
	fs, url := startServer(t)

	input := strings.Join([]string{
		"/collection My Research",
		"What is in the report?",
		"/staged",
		"/bogus",
		"/quit",
	}, "\n")
	res := runCLI(t, url, input, "chat")
	require.Equal(t, ExitSuccess, res.code, res.err)

	assert.Contains(t, res.out, "Collection: My_Research")
	assert.Contains(t, res.out, "Hi there")
	assert.Contains(t, res.out, "Time: 1.2s")
	assert.Contains(t, res.out, "No files staged.")
	assert.Contains(t, res.out, "2 messages")
	assert.Contains(t, res.err, "unknown command")

	require.Len(t, fs.chats, 1)
	assert.Equal(t, "My_Research", *fs.chats[0].Collection)
}

func TestChat_LoadAndContinue(t *testing.T) {
	newHome(t)
	fs, url := startServer(t)

	res := runCLI(t, url, "/load 7\nAnd the totals?\n", "chat")
	require.Equal(t, ExitSuccess, res.code, res.err)

	assert.Contains(t, res.out, "Loaded session 7: Report questions")
	assert.Contains(t, res.out, "Quarterly numbers.")

	require.Len(t, fs.chats, 1)
	req := fs.chats[0]
	assert.Equal(t, 7, *req.SessionID)
	assert.Len(t, req.Messages, 3, "history plus the new question")
	assert.Equal(t, 0, fs.created, "a loaded session is not created again")
}

func TestChat_StageAndUpload(t *testing.T) {
	newHome(t)
	fs, url := startServer(t)

	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("alpha"), 0o600))

	input := strings.Join([]string{
		"/upload",
		"/collection research",
		"/stage " + file,
		"/upload",
		"/staged",
	}, "\n")
	res := runCLI(t, url, input, "chat")
	require.Equal(t, ExitSuccess, res.code, res.err)

	assert.Contains(t, res.err, session.ErrNoCollection.Error())
	assert.Contains(t, res.out, "1. "+file)
	assert.Contains(t, res.out, "Indexed a.txt")
	assert.Contains(t, res.out, "Upload Complete")
	assert.Contains(t, res.out, "No files staged.", "completion clears the upload list")
	assert.Equal(t, []string{"a.txt"}, fs.uploads)
}

func TestChat_Export(t *testing.T) {
	newHome(t)
	_, url := startServer(t)

	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	res := runCLI(t, url, "hello\n/export json\n", "chat")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "Exported to ")

	matches, err := filepath.Glob(filepath.Join(dir, "conversation_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Hi there")
}

// =============================================================================
// UPLOAD
// =============================================================================

func TestUpload(t *testing.T) {
	newHome(t)
	fs, url := startServer(t)

	file := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("alpha"), 0o600))

	res := runCLI(t, url, "", "upload", file, "-c", "research")
	require.Equal(t, ExitSuccess, res.code, res.err)

	assert.Contains(t, res.out, "Embedding... 50%")
	assert.Contains(t, res.out, "Upload Complete")
	assert.Contains(t, res.out, "a.txt (3 chunks)")
	assert.Contains(t, res.out, "1 summaries running")
	assert.Equal(t, []string{"a.txt"}, fs.uploads)
}

func TestUpload_Parallel(t *testing.T) {
	newHome(t)
	fs, url := startServer(t)

	dir := t.TempDir()
	var files []string
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(name), 0o600))
		files = append(files, p)
	}

	args := append([]string{"upload"}, files...)
	args = append(args, "-c", "research", "--parallel", "2", "--json")
	res := runCLI(t, url, "", args...)
	require.Equal(t, ExitSuccess, res.code, res.err)

	resp := decodeJSON(t, res.out)
	data := resp.Data.(map[string]any)
	assert.Len(t, data["jobs"], 3)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt", "c.txt"}, fs.uploads)
}

func TestUpload_Preconditions(t *testing.T) {
	newHome(t)
	_, url := startServer(t)

	file := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("alpha"), 0o600))

	res := runCLI(t, url, "", "upload", file)
	assert.Equal(t, ExitUsageError, res.code)
	assert.Contains(t, res.err, "--collection")

	res = runCLI(t, url, "", "upload", t.TempDir(), "-c", "research")
	assert.Equal(t, ExitGeneralError, res.code)
	assert.Contains(t, res.err, "is a directory")
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func TestNotifications(t *testing.T) {
	newHome(t)
	fs, url := startServer(t)

	res := runCLI(t, url, "", "notifications", "list")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "Summary ready: a.pdf")
	assert.Contains(t, res.out, "Summary ready: b.pdf")

	res = runCLI(t, url, "", "notifications", "list", "--unread", "--json")
	require.Equal(t, ExitSuccess, res.code, res.err)
	items := decodeJSON(t, res.out).Data.([]any)
	assert.Len(t, items, 1)

	res = runCLI(t, url, "", "notifications", "read-all")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "Marked 1 notifications as read.")
	assert.Equal(t, []int{1}, fs.reads)

	res = runCLI(t, url, "", "notifications", "clear")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.True(t, fs.cleared)

	res = runCLI(t, url, "", "notifications", "read", "abc")
	assert.Equal(t, ExitUsageError, res.code)
}

func TestNotifications_WatchWithoutTerminal(t *testing.T) {
	newHome(t)
	_, url := startServer(t)

	res := runCLI(t, url, "", "notifications", "watch")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "Summary ready: a.pdf")
}

// =============================================================================
// SESSIONS AND COLLECTIONS
// =============================================================================

func TestSessions(t *testing.T) {
	newHome(t)
	fs, url := startServer(t)

	res := runCLI(t, url, "", "sessions", "list", "--search", "report")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "Report questions")

	res = runCLI(t, url, "", "sessions", "archived")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "Old notes")

	res = runCLI(t, url, "", "sessions", "show", "7")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "You:")
	assert.Contains(t, res.out, "Quarterly numbers.")

	res = runCLI(t, url, "", "sessions", "show", "7", "--format", "yaml")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "title: Report questions")

	res = runCLI(t, url, "", "sessions", "show", "99")
	assert.Equal(t, ExitNotFoundError, res.code)

	require.Equal(t, ExitSuccess, runCLI(t, url, "", "sessions", "rename", "7", "Q3", "report").code)
	require.Equal(t, ExitSuccess, runCLI(t, url, "", "sessions", "archive", "7").code)
	require.Equal(t, ExitSuccess, runCLI(t, url, "", "sessions", "unarchive", "7").code)
	require.Equal(t, ExitSuccess, runCLI(t, url, "", "sessions", "delete", "7").code)

	assert.Equal(t, []map[string]any{
		{"title": "Q3 report"},
		{"archive": true},
		{"archive": false},
	}, fs.updates)
	assert.Equal(t, []int{7}, fs.deleted)
}

func TestCollections(t *testing.T) {
	newHome(t)
	fs, url := startServer(t)

	res := runCLI(t, url, "", "collections", "list", "-c", "research")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "* research")
	assert.Contains(t, res.out, "  notes")

	res = runCLI(t, url, "", "collections", "create", "My Docs")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Equal(t, "My_Docs", fs.collection)

	res = runCLI(t, url, "", "collections", "summary", "research")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "a.pdf")
	assert.Contains(t, res.out, "About A.")

	res = runCLI(t, url, "", "collections", "create", "!!!")
	assert.Equal(t, ExitUsageError, res.code)
}

func TestStats(t *testing.T) {
	newHome(t)
	_, url := startServer(t)

	res := runCLI(t, url, "", "stats")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, "Files uploaded")
	assert.Contains(t, res.out, "12")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigCommands(t *testing.T) {
	home := newHome(t)

	res := runCLI(t, "", "", "config", "path")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Equal(t, filepath.Join(home, "config.toml"), strings.TrimSpace(res.out))

	res = runCLI(t, "", "", "config", "init")
	assert.NotEqual(t, ExitSuccess, res.code, "existing file is kept without --force")

	res = runCLI(t, "", "", "config", "set", "chat.collection", "notes")
	require.Equal(t, ExitSuccess, res.code, res.err)

	res = runCLI(t, "", "", "config", "get", "chat.collection")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Equal(t, "notes", strings.TrimSpace(res.out))

	res = runCLI(t, "", "", "config", "set", "chat.collection", "bad name")
	assert.Equal(t, ExitConfigError, res.code)

	res = runCLI(t, "", "", "config", "set", "no.such.key", "1")
	assert.Equal(t, ExitUsageError, res.code)

	res = runCLI(t, "", "", "config", "show")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Contains(t, res.out, `collection = "notes"`)

	res = runCLI(t, "", "", "config", "init", "--force")
	require.Equal(t, ExitSuccess, res.code, res.err)
	res = runCLI(t, "", "", "config", "get", "chat.collection")
	assert.Equal(t, "", strings.TrimSpace(res.out))
}

func TestVersionAndUnknownCommand(t *testing.T) {
	newHome(t)

	res := runCLI(t, "", "", "--version")
	require.Equal(t, ExitSuccess, res.code)
	assert.Contains(t, res.out, "docchat "+Version)

	res = runCLI(t, "", "", "frobnicate")
	assert.Equal(t, ExitUsageError, res.code)
}

// =============================================================================
// UNIT TESTS
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("id", "x", "must be a number"), ExitUsageError},
		{"interrupted", errInterrupted, ExitInterrupted},
		{"not found", &api.ClientError{Type: api.ErrTypeNotFound, Message: "gone"}, ExitNotFoundError},
		{"wrapped timeout", NewCommandError("sessions", "list", &api.ClientError{Type: api.ErrTypeTimeout}), ExitTimeoutError},
		{"connection", &api.ClientError{Type: api.ErrTypeConnection}, ExitNetworkError},
		{"no collection", session.ErrNoCollection, ExitUsageError},
		{"config", config.ValidateErrors{{Field: "chat.collection", Message: "bad"}}, ExitConfigError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReplyPrinter(t *testing.T) {
	format := render.NewFormatter(styles.NewThemeWithProfile(termenv.Ascii, true))
	updates := []chat.Update{
		{Text: "Hi ", Status: chat.StatusActive},
		{Text: "Hi there", Status: chat.StatusActive},
		{Text: "Hi there", Status: chat.StatusCompleted, Footer: "Time: 1.2s", HasFooter: true},
	}

	t.Run("stream", func(t *testing.T) {
		var buf bytes.Buffer
		p := newReplyPrinter(&buf, format, nil, true)
		for _, u := range updates {
			p.Update(u)
		}
		assert.True(t, strings.HasPrefix(buf.String(), "Hi there\n\n"))
		assert.Contains(t, buf.String(), "Time: 1.2s")
		assert.Equal(t, 1, strings.Count(buf.String(), "Hi there"))
	})

	t.Run("rendered", func(t *testing.T) {
		var buf bytes.Buffer
		p := newReplyPrinter(&buf, format, upper{}, false)
		p.Update(updates[0])
		assert.Empty(t, buf.String(), "nothing is printed before the reply ends")
		p.Update(updates[2])
		assert.True(t, strings.HasPrefix(buf.String(), "HI THERE"))
		assert.Equal(t, chat.StatusCompleted, p.Last().Status)
	})

	t.Run("errors hidden", func(t *testing.T) {
		var buf bytes.Buffer
		p := newReplyPrinter(&buf, format, nil, true)
		p.showErrors = false
		p.Update(chat.Update{Status: chat.StatusFailed, Err: errors.New("model offline")})
		assert.NotContains(t, buf.String(), "model offline")
	})
}

type upper struct{}

func (upper) Render(s string) string { return strings.ToUpper(s) }
