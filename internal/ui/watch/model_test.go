// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/notify"
	"github.com/jeranaias/docchat/internal/ui/styles"
)

type fakeNotifier struct {
	refreshes int
	marks     int
	err       error
}

func (f *fakeNotifier) Refresh(context.Context) error {
	f.refreshes++
	return f.err
}

func (f *fakeNotifier) MarkAllRead(context.Context) error {
	f.marks++
	return f.err
}

func newModel(n Notifier, exitWhenIdle bool) Model {
	return New(n, Options{Theme: styles.NewThemeWithProfile(termenv.Ascii, true), ExitWhenIdle: exitWhenIdle})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	require.True(t, ok)
	return mm, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func snapshot(items ...api.Notification) SnapshotMsg {
	s := notify.Snapshot{Items: items}
	for _, n := range items {
		if !n.IsRead {
			s.Unread++
		}
		if n.IsProcessing() {
			s.Polling = true
		}
	}
	return SnapshotMsg(s)
}

func TestView_Loading(t *testing.T) {
	m := newModel(&fakeNotifier{}, false)
	assert.Contains(t, m.View(), "Loading...")
	assert.Contains(t, m.View(), "Notifications (0 unread)")
}

func TestView_Snapshot(t *testing.T) {
	m := newModel(&fakeNotifier{}, false)
	m, cmd := update(t, m, snapshot(
		api.Notification{ID: 1, Message: "Summarizing report.pdf", Status: api.NotificationProcessing, Progress: 40},
		api.Notification{ID: 2, Message: "Summary ready", Status: api.NotificationCompleted, IsRead: true},
	))
	assert.Nil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "Notifications (1 unread)")
	assert.Contains(t, view, "Summarizing report.pdf")
	assert.Contains(t, view, "40%")
	assert.Contains(t, view, "Summary ready")
	assert.NotContains(t, view, "Loading...")
}

func TestView_Empty(t *testing.T) {
	m := newModel(&fakeNotifier{}, false)
	m, _ = update(t, m, snapshot())
	assert.Contains(t, m.View(), "No notifications")
}

func TestUpdate_ExitWhenIdle(t *testing.T) {
	m := newModel(&fakeNotifier{}, true)

	m, cmd := update(t, m, snapshot(api.Notification{ID: 1, Status: api.NotificationProcessing}))
	assert.False(t, isQuit(cmd))

	_, cmd = update(t, m, snapshot(api.Notification{ID: 1, Status: api.NotificationCompleted}))
	assert.True(t, isQuit(cmd))
}

func TestUpdate_Keys(t *testing.T) {
	fn := &fakeNotifier{}
	m := newModel(fn, false)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, 1, fn.refreshes)
	m, _ = update(t, m, msg)
	assert.Empty(t, m.status)

	fn.err = errors.New("offline")
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m, _ = update(t, m, cmd())
	assert.Equal(t, 1, fn.marks)
	assert.Contains(t, m.View(), "mark all read failed: offline")

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, isQuit(cmd))
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, isQuit(cmd))
}

func TestUpdate_WindowSize(t *testing.T) {
	m := newModel(&fakeNotifier{}, false)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 300, Height: 40})
	assert.Equal(t, 40, m.bar.Width)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 12, Height: 40})
	assert.Equal(t, 10, m.bar.Width)
}
