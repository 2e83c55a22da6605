// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/chat"
	"github.com/jeranaias/docchat/internal/upload"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeClient struct {
	mu sync.Mutex

	reply      string
	block      bool
	createErr  error
	nextID     int
	created    int
	chats      []api.ChatRequest
	uploads    []api.UploadRequest
	uploadBody string
	stored     map[int][]api.Message
}

func (f *fakeClient) ChatStream(ctx context.Context, req api.ChatRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	f.chats = append(f.chats, req)
	block := f.block
	reply := f.reply
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return io.NopCloser(strings.NewReader(reply)), nil
}

func (f *fakeClient) Upload(ctx context.Context, req api.UploadRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, req)
	return io.NopCloser(strings.NewReader(f.uploadBody)), nil
}

func (f *fakeClient) CreateSession(ctx context.Context, title string) (api.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	if f.createErr != nil {
		return api.SessionInfo{}, f.createErr
	}
	f.nextID++
	return api.SessionInfo{ID: f.nextID, Title: "New Chat"}, nil
}

func (f *fakeClient) SessionMessages(ctx context.Context, id int) ([]api.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs, ok := f.stored[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	return msgs, nil
}

func (f *fakeClient) lastChat() api.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chats[len(f.chats)-1]
}

func tempFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("content"), 0o600))
	return p
}

// =============================================================================
// SEND
// =============================================================================

func TestSend_CreatesSessionOnce(t *testing.T) {
	fc := &fakeClient{reply: "Hi there\n\n[METRICS]Time: 1.2s"}
	m := NewManager(fc, Config{Collection: "reports"})
	defer m.Close()

	_, ok := m.SessionID()
	assert.False(t, ok)

	s, err := m.Send(context.Background(), "Hello", nil)
	require.NoError(t, err)
	res := s.Wait()
	assert.Equal(t, chat.StatusCompleted, res.Status)
	assert.Equal(t, "Hi there", res.Body)

	id, ok := m.SessionID()
	require.True(t, ok)
	assert.Equal(t, 1, id)

	req := fc.lastChat()
	require.NotNil(t, req.SessionID)
	assert.Equal(t, 1, *req.SessionID)
	require.NotNil(t, req.Collection)
	assert.Equal(t, "reports", *req.Collection)

	s, err = m.Send(context.Background(), "Again", nil)
	require.NoError(t, err)
	s.Wait()

	assert.Equal(t, 1, fc.created)
	assert.Len(t, fc.lastChat().Messages, 3)
	assert.Equal(t, 4, m.Transcript().Len())
}

func TestSend_CreateFailureStillSends(t *testing.T) {
	fc := &fakeClient{reply: "ok", createErr: errors.New("boom")}
	m := NewManager(fc, Config{})
	defer m.Close()

	s, err := m.Send(context.Background(), "Hello", nil)
	require.NoError(t, err)
	assert.Equal(t, chat.StatusCompleted, s.Wait().Status)

	assert.Nil(t, fc.lastChat().SessionID)
	assert.Nil(t, fc.lastChat().Collection)
	_, ok := m.SessionID()
	assert.False(t, ok)
}

func TestSend_BusyWhileStreaming(t *testing.T) {
	fc := &fakeClient{block: true}
	m := NewManager(fc, Config{})
	defer m.Close()

	s, err := m.Send(context.Background(), "one", nil)
	require.NoError(t, err)
	assert.Same(t, s, m.Active())

	_, err = m.Send(context.Background(), "two", nil)
	assert.ErrorIs(t, err, ErrBusy)

	assert.True(t, m.Cancel())
	assert.Equal(t, chat.StatusAborted, s.Wait().Status)
	assert.Nil(t, m.Active())
	assert.False(t, m.Cancel())
}

func TestSend_AfterClose(t *testing.T) {
	m := NewManager(&fakeClient{}, Config{})
	m.Close()

	_, err := m.Send(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

// =============================================================================
// SWITCHING
// =============================================================================

func TestLoadAndNewChat(t *testing.T) {
	fc := &fakeClient{
		reply: "fine",
		stored: map[int][]api.Message{
			7: {api.NewUserMessage("q"), api.NewAssistantMessage("a")},
		},
	}
	m := NewManager(fc, Config{})
	defer m.Close()

	require.NoError(t, m.Load(context.Background(), api.SessionInfo{ID: 7, Title: "Old"}))
	id, ok := m.SessionID()
	require.True(t, ok)
	assert.Equal(t, 7, id)
	assert.Equal(t, "Old", m.Title())
	assert.Equal(t, 2, m.Transcript().Len())

	s, err := m.Send(context.Background(), "more", nil)
	require.NoError(t, err)
	s.Wait()
	assert.Zero(t, fc.created)
	assert.Equal(t, 7, *fc.lastChat().SessionID)

	m.NewChat()
	_, ok = m.SessionID()
	assert.False(t, ok)
	assert.Zero(t, m.Transcript().Len())
	assert.Equal(t, "New Chat", m.Title())
}

func TestLoad_NotFoundKeepsState(t *testing.T) {
	m := NewManager(&fakeClient{}, Config{})
	defer m.Close()

	err := m.Load(context.Background(), api.SessionInfo{ID: 3})
	assert.True(t, api.IsNotFound(err))
	_, ok := m.SessionID()
	assert.False(t, ok)
}

// =============================================================================
// STAGING AND UPLOAD
// =============================================================================

func TestStage(t *testing.T) {
	m := NewManager(&fakeClient{}, Config{})
	defer m.Close()

	a := tempFile(t, "a.pdf")
	b := tempFile(t, "b.txt")

	require.NoError(t, m.Stage(a, b, a))
	assert.Equal(t, []string{a, b}, m.Staged())

	assert.Error(t, m.Stage(filepath.Join(t.TempDir(), "missing.pdf")))
	assert.Error(t, m.Stage(t.TempDir()))

	require.NoError(t, m.Unstage(0))
	assert.Equal(t, []string{b}, m.Staged())
	assert.Error(t, m.Unstage(5))

	m.ClearStaged()
	assert.Empty(t, m.Staged())
}

func TestUpload_Preconditions(t *testing.T) {
	m := NewManager(&fakeClient{}, Config{})
	defer m.Close()

	_, err := m.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoCollection)

	m.SetCollection("docs")
	_, err = m.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNothingStaged)
}

func TestUpload_CompletionClearsStaged(t *testing.T) {
	fc := &fakeClient{uploadBody: "{\"status\":\"embedding\",\"progress\":40}\n{\"status\":\"completed\"}\n"}
	m := NewManager(fc, Config{Collection: "docs", Summarize: true})
	defer m.Close()

	require.NoError(t, m.Stage(tempFile(t, "a.pdf")))

	var kinds []upload.UpdateKind
	res, err := m.Upload(context.Background(), func(u upload.Update) { kinds = append(kinds, u.Kind) })
	require.NoError(t, err)

	assert.Equal(t, []upload.UpdateKind{upload.UpdateStatus, upload.UpdateCompleted}, kinds)
	assert.Equal(t, upload.JobComplete, res.Job.Status)
	assert.Empty(t, m.Staged())

	require.Len(t, fc.uploads, 1)
	assert.Equal(t, "docs", fc.uploads[0].Collection)
	assert.True(t, fc.uploads[0].Summarize)
}

func TestUpload_NoCompletionKeepsStaged(t *testing.T) {
	fc := &fakeClient{uploadBody: "{\"status\":\"loading\",\"message\":\"Loading\"}\n"}
	m := NewManager(fc, Config{Collection: "docs"})
	defer m.Close()

	require.NoError(t, m.Stage(tempFile(t, "a.pdf")))
	_, err := m.Upload(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, m.Staged(), 1)
}
