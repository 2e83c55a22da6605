// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/chat"
	"github.com/jeranaias/docchat/internal/model"
	"github.com/jeranaias/docchat/internal/upload"
)

// Errors returned by Manager operations.
var (
	ErrBusy          = errors.New("a reply is still streaming")
	ErrClosed        = errors.New("session manager closed")
	ErrNoCollection  = errors.New("no collection selected")
	ErrNothingStaged = errors.New("no files staged for upload")
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Client is the part of the server API a Manager needs.
type Client interface {
	chat.Sender
	upload.Uploader
	CreateSession(ctx context.Context, title string) (api.SessionInfo, error)
	SessionMessages(ctx context.Context, id int) ([]api.Message, error)
}

// Config holds configuration for the session manager.
type Config struct {
	// Collection is the initially selected collection (may be empty)
	Collection string

	// Renderer renders reply bodies for the view (nil shows raw markdown)
	Renderer chat.Renderer

	// Refresher is told about background summaries started by uploads
	Refresher upload.Refresher

	// Summarize asks the server to summarize uploaded documents
	Summarize bool

	// CompletionDelay is the pause before an upload's completion action
	CompletionDelay time.Duration

	Logger *zap.Logger
}

// Manager tracks the open conversation. All methods are safe for concurrent
// use.
type Manager struct {
	client Client
	cfg    Config
	log    *zap.Logger

	transcript *model.Transcript

	mu        sync.Mutex
	sessionID *int
	title     string
	active    *chat.Session
	starting  bool
	staged    []string
	startTime time.Time
	closed    bool
}

// NewManager creates a manager with an empty transcript and no session id.
// The server session is created lazily on the first Send.
func NewManager(client Client, cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Manager{
		client:     client,
		cfg:        cfg,
		log:        cfg.Logger.With(zap.String("component", "session")),
		transcript: model.NewTranscript(),
		startTime:  time.Now(),
	}
}

// =============================================================================
// SESSION STATE
// =============================================================================

// SessionID returns the server session id, if one exists yet.
func (m *Manager) SessionID() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID == nil {
		return 0, false
	}
	return *m.sessionID, true
}

// Title returns the title of the loaded session, or one derived from the
// transcript.
func (m *Manager) Title() string {
	m.mu.Lock()
	title := m.title
	m.mu.Unlock()
	if title != "" {
		return title
	}
	return m.transcript.Title(50)
}

// Transcript returns the transcript of the open conversation.
func (m *Manager) Transcript() *model.Transcript {
	return m.transcript
}

// Collection returns the selected collection.
func (m *Manager) Collection() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Collection
}

// SetCollection selects the collection used for chat and uploads.
func (m *Manager) SetCollection(name string) {
	m.mu.Lock()
	m.cfg.Collection = name
	m.mu.Unlock()
}

// SetRenderer replaces the renderer used by subsequent sends.
func (m *Manager) SetRenderer(r chat.Renderer) {
	m.mu.Lock()
	m.cfg.Renderer = r
	m.mu.Unlock()
}

// Duration returns how long the manager has been open.
func (m *Manager) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.startTime)
}

// =============================================================================
// CHAT
// =============================================================================

// Send starts streaming a reply to message. Only one reply streams at a
// time; while one is active Send returns ErrBusy.
func (m *Manager) Send(ctx context.Context, message string, onUpdate func(chat.Update)) (*chat.Session, error) {
	m.mu.Lock()
	switch {
	case m.closed:
		m.mu.Unlock()
		return nil, ErrClosed
	case m.active != nil || m.starting:
		m.mu.Unlock()
		return nil, ErrBusy
	}
	m.starting = true
	m.mu.Unlock()

	sessionID := m.ensureSession(ctx, message)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.starting = false
	if m.closed {
		return nil, ErrClosed
	}

	var s *chat.Session
	s = chat.Start(ctx, chat.Options{
		Sender:     m.client,
		Transcript: m.transcript,
		Renderer:   m.cfg.Renderer,
		OnUpdate:   onUpdate,
		Logger:     m.cfg.Logger,
		OnDone: func(chat.Result) {
			m.mu.Lock()
			if m.active == s {
				m.active = nil
			}
			m.mu.Unlock()
		},
	}, chat.Request{
		Message:    message,
		SessionID:  sessionID,
		Collection: m.cfg.Collection,
	})
	if !s.State().Status.IsTerminal() {
		m.active = s
	}
	return s, nil
}

// ensureSession creates the server session before the first send. If that
// fails the message is still sent, just without server-side history.
func (m *Manager) ensureSession(ctx context.Context, message string) *int {
	m.mu.Lock()
	if m.sessionID != nil {
		id := *m.sessionID
		m.mu.Unlock()
		return &id
	}
	m.mu.Unlock()

	info, err := m.client.CreateSession(ctx, "")
	if err != nil {
		m.log.Warn("create session failed, sending without history", zap.Error(err))
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionID = &info.ID
	m.title = info.Title
	m.log.Info("session created", zap.Int("session_id", info.ID))
	id := info.ID
	return &id
}

// Active returns the streaming reply, or nil.
func (m *Manager) Active() *chat.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Cancel aborts the streaming reply and waits for it to finish. It reports
// whether there was one.
func (m *Manager) Cancel() bool {
	m.mu.Lock()
	s := m.active
	m.mu.Unlock()

	if s == nil {
		return false
	}
	s.Cancel()
	return true
}

// =============================================================================
// SESSION SWITCHING
// =============================================================================

// NewChat starts an empty conversation. The server session is created on
// the next Send.
func (m *Manager) NewChat() {
	m.Cancel()

	m.mu.Lock()
	m.sessionID = nil
	m.title = ""
	m.mu.Unlock()
	m.transcript.Reset()
}

// Load replaces the conversation with a stored session.
func (m *Manager) Load(ctx context.Context, info api.SessionInfo) error {
	m.Cancel()

	msgs, err := m.client.SessionMessages(ctx, info.ID)
	if err != nil {
		return fmt.Errorf("load session %d: %w", info.ID, err)
	}

	m.transcript.Replace(model.FromAPIMessages(msgs))

	m.mu.Lock()
	id := info.ID
	m.sessionID = &id
	m.title = info.Title
	m.mu.Unlock()

	m.log.Info("session loaded", zap.Int("session_id", info.ID), zap.Int("messages", len(msgs)))
	return nil
}

// =============================================================================
// STAGED FILES
// =============================================================================

// Stage adds files to the upload list. Directories and missing files are
// rejected; a path already staged is ignored.
func (m *Manager) Stage(paths ...string) error {
	var abs []string
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		info, err := os.Stat(a)
		if err != nil {
			return fmt.Errorf("stage %s: %w", p, err)
		}
		if info.IsDir() {
			return fmt.Errorf("stage %s: is a directory", p)
		}
		abs = append(abs, a)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range abs {
		dup := false
		for _, s := range m.staged {
			if s == a {
				dup = true
				break
			}
		}
		if !dup {
			m.staged = append(m.staged, a)
		}
	}
	return nil
}

// Unstage removes the staged file at index i (0-based).
func (m *Manager) Unstage(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.staged) {
		return fmt.Errorf("no staged file at position %d", i+1)
	}
	m.staged = append(m.staged[:i], m.staged[i+1:]...)
	return nil
}

// Staged returns the staged file paths.
func (m *Manager) Staged() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.staged...)
}

// ClearStaged empties the upload list.
func (m *Manager) ClearStaged() {
	m.mu.Lock()
	m.staged = nil
	m.mu.Unlock()
}

// Upload sends the staged files to the selected collection. The staged list
// is cleared by the deferred completion action.
func (m *Manager) Upload(ctx context.Context, onUpdate func(upload.Update)) (upload.Result, error) {
	m.mu.Lock()
	files := append([]string(nil), m.staged...)
	collection := m.cfg.Collection
	m.mu.Unlock()

	if collection == "" {
		return upload.Result{}, ErrNoCollection
	}
	if len(files) == 0 {
		return upload.Result{}, ErrNothingStaged
	}

	req := api.UploadRequest{Collection: collection, Summarize: m.cfg.Summarize}
	for _, f := range files {
		req.Files = append(req.Files, api.UploadFile{Path: f})
	}

	return upload.Run(ctx, upload.Options{
		Uploader:        m.client,
		Refresher:       m.cfg.Refresher,
		CompletionDelay: m.cfg.CompletionDelay,
		Logger:          m.cfg.Logger,
		OnUpdate: func(u upload.Update) {
			if u.Kind == upload.UpdateCompleted {
				m.ClearStaged()
			}
			if onUpdate != nil {
				onUpdate(u)
			}
		},
	}, req)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Close aborts any streaming reply. Further sends fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.Cancel()
}
