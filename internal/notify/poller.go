// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/docchat/internal/api"
)

// DefaultInterval is the poll period while a task is processing.
const DefaultInterval = 2 * time.Second

// =============================================================================
// OPTIONS
// =============================================================================

// Client is the part of the server API the poller uses.
type Client interface {
	Notifications(ctx context.Context) ([]api.Notification, error)
	MarkNotificationRead(ctx context.Context, id int) error
	ClearNotifications(ctx context.Context) error
}

// Snapshot is the view state after a change.
type Snapshot struct {
	Items   []api.Notification
	Unread  int
	Polling bool
}

// Processing returns the items whose task is still running.
func (s Snapshot) Processing() []api.Notification {
	var out []api.Notification
	for _, n := range s.Items {
		if n.IsProcessing() {
			out = append(out, n)
		}
	}
	return out
}

// Options configures a Poller.
type Options struct {
	Client   Client
	Interval time.Duration

	// OnChange receives the full state after every change. Calls are
	// serialized. It must not call Close.
	OnChange func(Snapshot)

	Logger *zap.Logger
}

// =============================================================================
// POLLER
// =============================================================================

// Poller keeps the local notification cache and its poll timer.
// All methods are safe for concurrent use.
type Poller struct {
	client   Client
	onChange func(Snapshot)
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// refreshMu serializes fetch-and-replace so an older response can never
	// overwrite a newer one.
	refreshMu sync.Mutex

	// notifyMu serializes OnChange calls.
	notifyMu sync.Mutex

	mu       sync.Mutex
	items    []api.Notification
	interval time.Duration
	timer    *pollTimer
	timers   int
	closed   bool
}

type pollTimer struct {
	stop chan struct{}
}

// NewPoller creates a poller with an empty cache and no timer.
func NewPoller(opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		client:   opts.Client,
		onChange: opts.OnChange,
		log:      opts.Logger.With(zap.String("component", "notify")),
		ctx:      ctx,
		cancel:   cancel,
		interval: opts.Interval,
	}
}

// =============================================================================
// REFRESH & RECONCILE
// =============================================================================

// Refresh fetches the notification set, replaces the cache, reconciles the
// timer and notifies the view. On failure the cache is left unchanged.
func (p *Poller) Refresh(ctx context.Context) error {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	items, err := p.client.Notifications(ctx)
	if err != nil {
		p.log.Warn("notification refresh failed", zap.Error(err))
		return err
	}

	p.mu.Lock()
	p.items = items
	p.mu.Unlock()

	p.Reconcile()
	p.notify()
	return nil
}

// Reconcile starts the poll timer if any cached item is processing and none
// is running, and stops it if nothing is processing. Calling it again with
// an unchanged cache does nothing.
func (p *Poller) Reconcile() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	processing := false
	for _, n := range p.items {
		if n.IsProcessing() {
			processing = true
			break
		}
	}

	switch {
	case processing && p.timer == nil:
		p.startTimerLocked()
	case !processing && p.timer != nil:
		p.stopTimerLocked()
	}
}

func (p *Poller) startTimerLocked() {
	t := &pollTimer{stop: make(chan struct{})}
	p.timer = t
	p.timers++
	p.log.Debug("notification polling started", zap.Duration("interval", p.interval))

	p.wg.Add(1)
	go p.loop(t, p.interval)
}

// stopTimerLocked never waits for the loop: it may be called from inside it.
func (p *Poller) stopTimerLocked() {
	close(p.timer.stop)
	p.timer = nil
	p.timers--
	p.log.Debug("notification polling stopped")
}

func (p *Poller) loop(t *pollTimer, interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(p.ctx, interval+10*time.Second)
			_ = p.Refresh(ctx)
			cancel()
		}
	}
}

// =============================================================================
// READ STATE
// =============================================================================

// MarkRead marks one notification read locally, notifies the view, then
// acknowledges it. An unknown or already read id does nothing. If the
// acknowledgement fails the error is logged and returned; the local state is
// not reverted.
func (p *Poller) MarkRead(ctx context.Context, id int) error {
	p.mu.Lock()
	found := false
	for i := range p.items {
		if p.items[i].ID == id && !p.items[i].IsRead {
			p.items = cloneItems(p.items)
			p.items[i].IsRead = true
			found = true
			break
		}
	}
	p.mu.Unlock()

	if !found {
		return nil
	}
	p.notify()

	if err := p.client.MarkNotificationRead(ctx, id); err != nil {
		p.log.Warn("mark read failed", zap.Int("id", id), zap.Error(err))
		return err
	}
	return nil
}

// MarkAllRead marks every notification read locally, then acknowledges each
// one that was unread.
func (p *Poller) MarkAllRead(ctx context.Context) error {
	p.mu.Lock()
	var ids []int
	items := cloneItems(p.items)
	for i := range items {
		if !items[i].IsRead {
			items[i].IsRead = true
			ids = append(ids, items[i].ID)
		}
	}
	p.items = items
	p.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	p.notify()

	var errs []error
	for _, id := range ids {
		if err := p.client.MarkNotificationRead(ctx, id); err != nil {
			p.log.Warn("mark read failed", zap.Int("id", id), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear asks the server to drop read notifications, then refreshes.
func (p *Poller) Clear(ctx context.Context) error {
	if err := p.client.ClearNotifications(ctx); err != nil {
		p.log.Warn("clear notifications failed", zap.Error(err))
		return err
	}
	return p.Refresh(ctx)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Snapshot returns the current state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Poller) snapshotLocked() Snapshot {
	s := Snapshot{Items: cloneItems(p.items), Polling: p.timer != nil}
	for _, n := range p.items {
		if !n.IsRead {
			s.Unread++
		}
	}
	return s
}

// Unread returns the number of unread notifications.
func (p *Poller) Unread() int {
	return p.Snapshot().Unread
}

// ActiveTimers returns how many poll timers are running: 0 or 1.
func (p *Poller) ActiveTimers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timers
}

// SetInterval changes the poll period. A running timer keeps its period;
// the next one started uses d.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.interval = d
	p.mu.Unlock()
}

// Close stops the timer and waits for the poll goroutine to exit.
func (p *Poller) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		if p.timer != nil {
			p.stopTimerLocked()
		}
	}
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

func (p *Poller) notify() {
	if p.onChange == nil {
		return
	}
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()
	p.onChange(p.Snapshot())
}

func cloneItems(items []api.Notification) []api.Notification {
	if items == nil {
		return nil
	}
	out := make([]api.Notification, len(items))
	copy(out, items)
	return out
}
