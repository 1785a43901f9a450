// Package tui is the interactive terminal front end. It drives the same
// view bindings as the CLI commands and renders them with bubbletea.
package tui

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"tasktracker/internal/logging"
	"tasktracker/internal/output"
	"tasktracker/internal/service"
	"tasktracker/internal/session"
	"tasktracker/internal/view"
)

// ErrSessionEnded is returned by Run when the server rejected the session.
var ErrSessionEnded = errors.New("session ended")

// Options configures the TUI.
type Options struct {
	Service *service.Service

	// Session is watched for the session-ended event. May be nil.
	Session *session.Manager

	Logger *log.Logger

	// DateLayout formats due dates. Empty means 01/02/2006.
	DateLayout string
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.send = p.Send
	m.watchSession(opts.Session)
	defer m.Close()

	if _, err := p.Run(); err != nil {
		return err
	}
	if m.ended {
		return ErrSessionEnded
	}
	return nil
}

type screen int

const (
	screenDashboard screen = iota
	screenDetail
)

type mode int

const (
	modeBrowse mode = iota
	modeForm
	modeConfirm
)

// Messages delivered to Update.
type (
	loadedMsg       struct{ err error }
	submittedMsg    struct{ err error }
	toggledMsg      struct{ err error }
	deletedMsg      struct{ err error }
	changedMsg      struct{}
	confirmMsg      struct{ prompt string }
	sessionEndedMsg struct{}
)

type styles struct {
	heading lipgloss.Style
	cursor  lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
	menu    lipgloss.Style
	dialog  lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		cursor:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		muted:   lipgloss.NewStyle().Faint(true),
		menu:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1),
	}
}

// Model is the bubbletea model. It is used by pointer so that the store
// subscriptions and the confirm dialog can reach the running program.
type Model struct {
	ctx    context.Context
	svc    *service.Service
	logger *log.Logger
	format output.Formatter
	styles styles
	help   help.Model

	// send delivers messages to the running program. Nil in tests
	// that drive Update directly.
	send   func(tea.Msg)
	dialog *dialog

	dashboard *view.Dashboard
	detail    *view.DetailView
	unsubView func()
	unsubSess func()

	screen screen
	mode   mode
	cursor int
	form   formModel
	prompt string

	// busy is set while a command touches the active binding.
	// Update ignores actions and View skips binding state until it clears.
	busy  bool
	ended bool
	width int
}

// New creates the model on the dashboard screen.
func New(ctx context.Context, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	m := &Model{
		ctx:    ctx,
		svc:    opts.Service,
		logger: logger,
		format: output.New(output.ColorStyles(), opts.DateLayout),
		styles: defaultStyles(),
		help:   help.New(),
	}
	m.dialog = &dialog{model: m, answers: make(chan bool, 1), done: make(chan struct{})}
	m.dashboard = view.NewDashboard(opts.Service, m.dialog, m.format, logger)
	m.bind(m.dashboard)
	return m
}

// Close releases every subscription and store, and declines a pending
// confirmation.
func (m *Model) Close() {
	m.dialog.close()
	if m.unsubSess != nil {
		m.unsubSess()
	}
	if m.unsubView != nil {
		m.unsubView()
	}
	if m.detail != nil {
		m.detail.Close()
	}
	m.dashboard.Close()
}

func (m *Model) watchSession(s *session.Manager) {
	if s == nil {
		return
	}
	m.unsubSess = s.Subscribe(func(r session.Reason) {
		if r == session.ReasonUnauthorized {
			m.post(sessionEndedMsg{})
		}
	})
}

// bind subscribes to the active binding's store.
func (m *Model) bind(b view.Binding) {
	if m.unsubView != nil {
		m.unsubView()
	}
	m.unsubView = b.Subscribe(func() { m.post(changedMsg{}) })
}

// post sends msg to the program without blocking the caller's goroutine
// on a program that is not reading.
func (m *Model) post(msg tea.Msg) {
	if m.send != nil {
		go m.send(msg)
	}
}

// active returns the binding shown on the current screen.
func (m *Model) active() view.Binding {
	if m.screen == screenDetail && m.detail != nil {
		return m.detail
	}
	return m.dashboard
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.refresh()
}

func (m *Model) refresh() tea.Cmd {
	b := m.active()
	m.busy = true
	return func() tea.Msg {
		return loadedMsg{err: b.Refresh(m.ctx)}
	}
}

// dialog answers store confirmations through the confirm screen.
type dialog struct {
	model   *Model
	answers chan bool

	done      chan struct{}
	closeOnce sync.Once
}

// Confirm implements store.Confirmer. It blocks the calling command until
// the user answers, the context ends or the model is closed. Only an
// explicit yes confirms.
func (d *dialog) Confirm(prompt string) bool {
	if d.model.send == nil {
		return false
	}
	d.model.send(confirmMsg{prompt: prompt})
	select {
	case yes := <-d.answers:
		return yes
	case <-d.model.ctx.Done():
		return false
	case <-d.done:
		return false
	}
}

func (d *dialog) close() {
	d.closeOnce.Do(func() { close(d.done) })
}

func (d *dialog) answer(yes bool) {
	select {
	case d.answers <- yes:
	default:
	}
}
