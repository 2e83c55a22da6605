// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/footer"
	"github.com/jeranaias/docchat/internal/model"
)

// DefaultReadSize is the buffer size for each read of the reply body.
const DefaultReadSize = 1024

// =============================================================================
// OPTIONS
// =============================================================================

// Sender opens the raw reply stream for a chat request.
type Sender interface {
	ChatStream(ctx context.Context, req api.ChatRequest) (io.ReadCloser, error)
}

// Renderer turns the visible markdown body into display text.
type Renderer interface {
	Render(markdown string) string
}

// Options configures a Session.
type Options struct {
	Sender     Sender
	Transcript *model.Transcript

	// Renderer is applied to every Update body; nil shows the text as is.
	Renderer Renderer

	// OnUpdate receives every display update on the session goroutine.
	// It must not call Cancel.
	OnUpdate func(Update)

	// OnDone runs exactly once after the session reaches a terminal state
	// and before Cancel or Wait return.
	OnDone func(Result)

	Logger   *zap.Logger
	Sentinel string
	ReadSize int
}

// Request is one user turn.
type Request struct {
	Message    string
	SessionID  *int
	Collection string
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one in-flight assistant reply.
// All methods are safe for concurrent use.
type Session struct {
	opts   Options
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	start  time.Time

	mu       sync.Mutex
	body     io.ReadCloser
	raw      strings.Builder
	visible  string
	split    footer.Result
	status   Status
	chunks   int
	canceled bool
	result   Result
}

// Start appends the user message to the transcript, issues the request and
// returns the Active session. The reply is consumed on its own goroutine.
func Start(ctx context.Context, opts Options, req Request) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sentinel == "" {
		opts.Sentinel = footer.Sentinel
	}
	if opts.ReadSize <= 0 {
		opts.ReadSize = DefaultReadSize
	}
	if opts.Transcript == nil {
		opts.Transcript = model.NewTranscript()
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		opts:   opts,
		log:    opts.Logger.With(zap.String("component", "chat")),
		ctx:    sctx,
		cancel: cancel,
		done:   make(chan struct{}),
		start:  time.Now(),
		status: StatusActive,
	}

	opts.Transcript.Append(model.NewUserMessage(req.Message))

	apiReq := api.ChatRequest{
		SessionID: req.SessionID,
		Messages:  opts.Transcript.APIMessages(),
		Stream:    true,
	}
	if req.Collection != "" {
		col := req.Collection
		apiReq.Collection = &col
	}

	fields := []zap.Field{zap.Int("messages", len(apiReq.Messages)), zap.String("collection", req.Collection)}
	if req.SessionID != nil {
		fields = append(fields, zap.Int("session_id", *req.SessionID))
	}
	s.log.Debug("chat stream started", fields...)

	go s.run(apiReq)
	return s
}

// Cancel stops the reply and blocks until the session has terminated.
// The partial reply is kept as an Aborted result. Calling Cancel on a
// finished session does nothing.
func (s *Session) Cancel() {
	s.mu.Lock()
	if !s.status.IsTerminal() {
		s.canceled = true
	}
	s.mu.Unlock()

	// Cancel the context before looking at the body: a body published after
	// this point is caught by the context check in run.
	s.cancel()

	s.mu.Lock()
	body := s.body
	s.mu.Unlock()
	if body != nil {
		body.Close()
	}
	<-s.done
}

// Wait blocks until the session terminates and returns its result.
func (s *Session) Wait() Result {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Done is closed when the session has terminated.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Raw:         s.raw.String(),
		VisibleBody: s.visible,
		Footer:      s.split.Footer,
		HasFooter:   s.split.HasFooter,
		Status:      s.status,
		Chunks:      s.chunks,
	}
}

// =============================================================================
// STREAM LOOP
// =============================================================================

func (s *Session) run(req api.ChatRequest) {
	defer close(s.done)
	defer s.cancel()

	body, err := s.opts.Sender.ChatStream(s.ctx, req)
	if err != nil {
		s.finish(err)
		return
	}

	s.mu.Lock()
	s.body = body
	s.mu.Unlock()
	defer body.Close()

	// Cancel may have run before the body was published.
	if s.ctx.Err() != nil {
		s.finish(s.ctx.Err())
		return
	}

	buf := make([]byte, s.opts.ReadSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			s.consume(buf[:n])
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				readErr = nil
			}
			s.finish(readErr)
			return
		}
		if s.ctx.Err() != nil {
			s.finish(s.ctx.Err())
			return
		}
	}
}

// consume appends one chunk and publishes the new display state.
func (s *Session) consume(chunk []byte) {
	s.mu.Lock()
	s.raw.Write(chunk)
	s.chunks++
	s.split = footer.Split(s.raw.String(), s.opts.Sentinel)
	s.split.Footer = trimIncompleteRune(s.split.Footer)

	text := s.split.Body
	if !s.split.HasFooter {
		text = footer.TrimPartial(text, s.opts.Sentinel)
	}
	s.visible = trimIncompleteRune(text)

	u := Update{
		Text:      s.visible,
		Footer:    s.split.Footer,
		HasFooter: s.split.HasFooter,
		Status:    StatusActive,
		Chunks:    s.chunks,
		Elapsed:   time.Since(s.start),
	}
	s.mu.Unlock()

	s.emit(u)
}

// finish decides the terminal state, updates the transcript and notifies.
func (s *Session) finish(err error) {
	elapsed := time.Since(s.start)

	s.mu.Lock()
	// A read that fails because the context was cancelled is an abort, not a
	// transport failure, whatever error the body reports.
	aborted := s.canceled ||
		errors.Is(err, context.Canceled) ||
		(err != nil && errors.Is(s.ctx.Err(), context.Canceled))

	status := StatusCompleted
	switch {
	case aborted:
		status = StatusAborted
		err = nil
	case err != nil:
		status = StatusFailed
	}

	split := footer.Split(s.raw.String(), s.opts.Sentinel)
	res := Result{
		Status:    status,
		Footer:    split.Footer,
		HasFooter: split.HasFooter,
		Elapsed:   elapsed,
		Chunks:    s.chunks,
		Err:       err,
	}

	var annotation string
	switch status {
	case StatusCompleted:
		res.Body = strings.TrimSpace(split.Body)
		if res.Body != "" {
			msg := model.NewAssistantMessage(res.Body)
			res.Message = &msg
		}
	case StatusAborted:
		res.Body = strings.TrimSpace(trimIncompleteRune(footer.TrimPartial(split.Body, s.opts.Sentinel)))
		annotation = InterruptionNote(elapsed, s.chunks)
		if res.Body != "" {
			msg := model.NewAssistantMessage(res.Body)
			msg.Annotation = annotation
			res.Message = &msg
		}
	case StatusFailed:
		res.Body = s.visible
	}

	s.status = status
	s.visible = res.Body
	s.result = res
	s.mu.Unlock()

	if res.Message != nil {
		s.opts.Transcript.Append(*res.Message)
	}

	s.log.Info("chat stream finished",
		zap.String("status", status.String()),
		zap.Int("chunks", res.Chunks),
		zap.Duration("elapsed", elapsed),
		zap.Bool("has_footer", res.HasFooter),
		zap.Error(err),
	)

	s.emit(Update{
		Text:       res.Body,
		Footer:     res.Footer,
		HasFooter:  res.HasFooter,
		Status:     status,
		Annotation: annotation,
		Err:        err,
		Chunks:     res.Chunks,
		Elapsed:    elapsed,
	})

	if s.opts.OnDone != nil {
		s.opts.OnDone(res)
	}
}

func (s *Session) emit(u Update) {
	if s.opts.OnUpdate == nil {
		return
	}
	if s.opts.Renderer != nil && u.Text != "" {
		u.Body = s.opts.Renderer.Render(u.Text)
	} else {
		u.Body = u.Text
	}
	s.opts.OnUpdate(u)
}
