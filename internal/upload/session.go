// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/framing"
)

// CompleteText is the status shown by the deferred completion update.
const CompleteText = "Upload Complete"

// =============================================================================
// OPTIONS
// =============================================================================

// Uploader opens the progress stream for a multipart upload.
type Uploader interface {
	Upload(ctx context.Context, req api.UploadRequest) (io.ReadCloser, error)
}

// Refresher reloads the notification state from the server.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// UpdateKind says what an Update asks the view to do.
type UpdateKind int

const (
	// UpdateStatus replaces the status line with Text
	UpdateStatus UpdateKind = iota

	// UpdateCompleted is the deferred completion action
	UpdateCompleted

	// UpdateError shows Text as a failure
	UpdateError
)

// String returns the string representation of the kind.
func (k UpdateKind) String() string {
	switch k {
	case UpdateStatus:
		return "status"
	case UpdateCompleted:
		return "completed"
	case UpdateError:
		return "error"
	default:
		return "unknown"
	}
}

// Update is one instruction for the view.
type Update struct {
	Kind     UpdateKind
	Text     string
	JobID    string
	Progress Progress
}

// Options configures an upload run.
type Options struct {
	Uploader Uploader

	// Refresher is called once per summary_started event; may be nil.
	Refresher Refresher

	// OnUpdate receives updates in arrival order. With RunEach it is called
	// from several goroutines, one per file, but never concurrently.
	OnUpdate func(Update)

	// CompletionDelay is waited after the stream ends before the completion
	// update is delivered. Zero delivers it immediately.
	CompletionDelay time.Duration

	Logger *zap.Logger
}

// Result summarizes a finished upload run.
type Result struct {
	Job       JobSnapshot
	Events    int
	Skipped   int
	Refreshes int
	Files     []FileResult
}

// =============================================================================
// RUN
// =============================================================================

// Run uploads req as one request and applies its progress stream.
func Run(ctx context.Context, opts Options, req api.UploadRequest) (Result, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := newRunner(opts, req)
	return r.run(ctx, req)
}

// RunEach uploads every file as its own request, at most limit at a time.
// Each request has its own job and framer. The first error is returned after
// all requests have finished; results are in file order.
func RunEach(ctx context.Context, opts Options, base api.UploadRequest, limit int) ([]Result, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = 1
	}

	// Serialize view callbacks across the per-file goroutines.
	if opts.OnUpdate != nil {
		var mu sync.Mutex
		inner := opts.OnUpdate
		opts.OnUpdate = func(u Update) {
			mu.Lock()
			defer mu.Unlock()
			inner(u)
		}
	}

	results := make([]Result, len(base.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, f := range base.Files {
		i := i
		req := base
		req.Files = []api.UploadFile{f}
		g.Go(func() error {
			res, err := Run(gctx, opts, req)
			results[i] = res
			return err
		})
	}

	err := g.Wait()
	return results, err
}

// =============================================================================
// RUNNER
// =============================================================================

type runner struct {
	opts Options
	job  *Job
	log  *zap.Logger
	res  Result

	completed bool
}

func newRunner(opts Options, req api.UploadRequest) *runner {
	names := make([]string, len(req.Files))
	for i, f := range req.Files {
		names[i] = f.Name
		if names[i] == "" {
			names[i] = filepath.Base(f.Path)
		}
	}
	job := NewJob(req.Collection, names)
	return &runner{
		opts: opts,
		job:  job,
		log: opts.Logger.With(
			zap.String("component", "upload"),
			zap.String("job_id", job.ID),
			zap.String("collection", req.Collection),
		),
	}
}

func (r *runner) run(ctx context.Context, req api.UploadRequest) (Result, error) {
	_ = r.job.SetStatus(JobRunning)
	r.log.Info("upload started", zap.Strings("files", r.job.Files))

	body, err := r.opts.Uploader.Upload(ctx, req)
	if err != nil {
		return r.fail(ctx, err)
	}
	defer body.Close()

	if err := framing.Scan(ctx, body, r.handleLine); err != nil {
		return r.fail(ctx, err)
	}

	r.log.Info("upload stream finished",
		zap.Int("events", r.res.Events),
		zap.Int("skipped", r.res.Skipped),
		zap.Duration("elapsed", r.job.Duration()),
	)

	if r.completed {
		r.waitDelay(ctx)
		r.emit(Update{Kind: UpdateCompleted, Text: CompleteText})
	}

	_ = r.job.SetStatus(JobComplete)
	r.res.Job = r.job.Snapshot()
	return r.res, nil
}

// handleLine decodes and applies one event. Malformed lines never stop the
// stream.
func (r *runner) handleLine(line string) error {
	var ev Event
	if err := framing.Decode(line, &ev); err != nil {
		r.res.Skipped++
		r.log.Warn("skipping malformed progress line", zap.String("line", line), zap.Error(err))
		return nil
	}
	r.res.Events++
	r.apply(ev)
	return nil
}

func (r *runner) apply(ev Event) {
	if ev.Progress.Valid {
		r.job.SetProgress(ev.Progress.Int())
	}

	switch ev.Status {
	case StatusEmbedding:
		text := ev.Message
		if text == "" {
			text = "Embedding..."
			if ev.Progress.Valid {
				text = fmt.Sprintf("Embedding... %d%%", ev.Progress.Int())
			}
		}
		r.status(text, ev.Progress)

	case StatusSummaryStarted:
		r.job.AddTaskID(ev.TaskID)
		r.refresh(ev)

	case StatusCompleted:
		if ev.Message != "" {
			r.status(ev.Message, ev.Progress)
		}
		r.completed = true

	case StatusAllCompleted:
		r.res.Files = append(r.res.Files, ev.Results...)
		if ev.Message != "" {
			r.status(ev.Message, ev.Progress)
		}

	default:
		if ev.Message != "" {
			r.status(ev.Message, ev.Progress)
		}
	}
}

// refresh triggers exactly one notification reload for a summary_started
// event. The stream's context is not used: the refresh must happen even if
// the reader is about to stop.
func (r *runner) refresh(ev Event) {
	r.res.Refreshes++
	if r.opts.Refresher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.opts.Refresher.Refresh(ctx); err != nil {
		r.log.Warn("notification refresh failed", zap.String("task_id", ev.TaskID), zap.Error(err))
	}
}

func (r *runner) status(text string, p Progress) {
	r.job.SetMessage(text)
	r.emit(Update{Kind: UpdateStatus, Text: text, Progress: p})
}

func (r *runner) fail(ctx context.Context, err error) (Result, error) {
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		_ = r.job.SetStatus(JobCanceled)
		r.log.Info("upload canceled")
		r.res.Job = r.job.Snapshot()
		return r.res, err
	}

	r.job.Fail(err)
	r.log.Error("upload failed", zap.Error(err))
	r.emit(Update{Kind: UpdateError, Text: "Error: " + errorText(err)})
	r.res.Job = r.job.Snapshot()
	return r.res, err
}

func (r *runner) waitDelay(ctx context.Context) {
	if r.opts.CompletionDelay <= 0 {
		return
	}
	t := time.NewTimer(r.opts.CompletionDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (r *runner) emit(u Update) {
	u.JobID = r.job.ID
	if r.opts.OnUpdate != nil {
		r.opts.OnUpdate(u)
	}
}

// errorText prefers the server's own message for failed requests.
func errorText(err error) string {
	var ce *api.ClientError
	if errors.As(err, &ce) && ce.StatusCode != 0 {
		return ce.Message
	}
	return err.Error()
}
