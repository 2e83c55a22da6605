// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat/internal/notify"
	"github.com/jeranaias/docchat/internal/render"
	"github.com/jeranaias/docchat/internal/ui/styles"
	"github.com/jeranaias/docchat/internal/util"
)

// actionTimeout bounds the requests started from key presses.
const actionTimeout = 10 * time.Second

// =============================================================================
// MESSAGES
// =============================================================================

// SnapshotMsg carries a new poller snapshot into the program.
type SnapshotMsg notify.Snapshot

// actionDoneMsg reports the result of a key-triggered request.
type actionDoneMsg struct {
	action string
	err    error
}

// =============================================================================
// MODEL
// =============================================================================

// Notifier is the poller API used by key bindings.
type Notifier interface {
	Refresh(ctx context.Context) error
	MarkAllRead(ctx context.Context) error
}

// Options configures the watch model.
type Options struct {
	Theme *styles.Theme

	// ExitWhenIdle quits once a snapshot shows no processing work.
	ExitWhenIdle bool
}

// Model is the Bubble Tea model of the notification screen.
type Model struct {
	notifier Notifier
	opts     Options
	format   *render.Formatter

	snap     notify.Snapshot
	received bool
	status   string
	lastErr  error

	bar     progress.Model
	spinner spinner.Model
	width   int
}

// New creates the watch model.
func New(n Notifier, opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{Frames: styles.LineSpinner.Frames, FPS: styles.LineSpinner.Duration()}
	sp.Style = opts.Theme.Warning

	return Model{
		notifier: n,
		opts:     opts,
		format:   render.NewFormatter(opts.Theme),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		spinner:  sp,
		width:    80,
	}
}

// NewProgram wraps m in a program bound to ctx.
func NewProgram(ctx context.Context, m Model, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(m, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)
}

// WithIO sets the program's input and output, for tests and pipes.
func WithIO(in io.Reader, out io.Writer) []tea.ProgramOption {
	return []tea.ProgramOption{tea.WithInput(in), tea.WithOutput(out)}
}

// Snapshot returns the last snapshot the model received.
func (m Model) Snapshot() notify.Snapshot {
	return m.snap
}

// Init starts the spinner and requests a first refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run("refresh", m.notifier.Refresh))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.status = "Refreshing..."
			return m, m.run("refresh", m.notifier.Refresh)
		case "a":
			m.status = "Marking all as read..."
			return m, m.run("mark all read", m.notifier.MarkAllRead)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(10, min(40, msg.Width/3))
		return m, nil

	case SnapshotMsg:
		m.snap = notify.Snapshot(msg)
		m.received = true
		if m.opts.ExitWhenIdle && !m.snap.Polling && len(m.snap.Processing()) == 0 {
			return m, tea.Quit
		}
		return m, nil

	case actionDoneMsg:
		m.lastErr = msg.err
		m.status = ""
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed", msg.action)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) run(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	t := m.opts.Theme
	var b strings.Builder

	title := fmt.Sprintf("Notifications (%d unread)", m.snap.Unread)
	b.WriteString(t.Title.Render(title))
	if m.snap.Polling {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	switch {
	case !m.received:
		b.WriteString(t.Muted.Render("Loading..."))
		b.WriteString("\n")
	case len(m.snap.Items) == 0:
		b.WriteString(t.Muted.Render("No notifications"))
		b.WriteString("\n")
	}

	msgWidth := max(20, m.width-m.bar.Width-12)
	for _, n := range m.snap.Items {
		if n.IsProcessing() {
			fmt.Fprintf(&b, "%s %s %s\n",
				t.Warning.Render(fmt.Sprintf("#%-4d", n.ID)),
				util.PadRight(n.Message, msgWidth),
				m.bar.ViewAs(float64(n.Progress)/100))
			continue
		}
		b.WriteString(m.format.Notification(n))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.lastErr != nil {
		b.WriteString(t.Error.Render(m.status+": "+m.lastErr.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(t.Muted.Render(m.status) + "\n")
	}
	b.WriteString(t.Muted.Render("r refresh  a mark all read  q quit"))
	b.WriteString("\n")
	return b.String()
}
