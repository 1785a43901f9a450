package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"tasktracker/internal/service"
	"tasktracker/internal/store"
	"tasktracker/internal/view"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case sessionEndedMsg:
		m.ended = true
		m.dialog.answer(false)
		return m, tea.Quit

	case changedMsg:
		m.clampCursor()
		return m, nil

	case confirmMsg:
		m.mode = modeConfirm
		m.prompt = msg.prompt
		return m, nil

	case loadedMsg:
		m.busy = false
		m.logResult("refresh", msg.err)
		m.clampCursor()
		return m, nil

	case toggledMsg:
		m.busy = false
		m.logResult("toggle", msg.err)
		return m, nil

	case deletedMsg:
		m.busy = false
		m.logResult("delete", msg.err)
		m.clampCursor()
		return m, nil

	case submittedMsg:
		m.busy = false
		m.logResult("submit", msg.err)
		if msg.err == nil {
			m.mode = modeBrowse
			return m, nil
		}
		// The form stays open with the entered values.
		m.form.invalid = m.editorInvalid()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.dialog.answer(false)
		return m, tea.Quit
	}

	switch m.mode {
	case modeConfirm:
		return m.handleConfirmKey(msg)
	case modeForm:
		return m.handleFormKey(msg)
	}

	if m.busy {
		return m, nil
	}
	if key.Matches(msg, keys.Quit) {
		return m, tea.Quit
	}
	if m.screen == screenDetail {
		return m.handleDetailKey(msg)
	}
	return m.handleDashboardKey(msg)
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Yes):
		m.dialog.answer(true)
	case key.Matches(msg, keys.No):
		m.dialog.answer(false)
	default:
		return m, nil
	}
	m.mode = modeBrowse
	m.prompt = ""
	return m, nil
}

func (m *Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.dashboard
	lists := d.Store.Items()
	selected, hasSelection := service.ID(""), m.cursor < len(lists)
	if hasSelection {
		selected = lists[m.cursor].ID
	}

	switch {
	case key.Matches(msg, keys.Up):
		m.moveCursor(-1, len(lists))
	case key.Matches(msg, keys.Down):
		m.moveCursor(1, len(lists))
	case key.Matches(msg, keys.Open):
		if hasSelection && d.State() == view.Loaded {
			return m, m.openDetail(selected)
		}
	case key.Matches(msg, keys.New):
		d.StartCreate()
		m.form = newListForm("New task list", d.Editor.Form)
		m.mode = modeForm
	case key.Matches(msg, keys.Edit):
		if hasSelection && d.StartEdit(selected) == nil {
			m.form = newListForm("Edit task list", d.Editor.Form)
			m.mode = modeForm
		}
	case key.Matches(msg, keys.Delete):
		if hasSelection {
			return m, m.deleteCmd(d, selected)
		}
	case key.Matches(msg, keys.Menu):
		if hasSelection {
			d.Menus.Toggle(selected)
		}
	case key.Matches(msg, keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, keys.Dismiss):
		d.ClearError()
	case key.Matches(msg, keys.Back):
		d.Menus.Close()
	}
	return m, nil
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.detail
	if v.State() == view.NotFound {
		if key.Matches(msg, keys.Back, keys.Open) {
			return m, m.backToDashboard()
		}
		return m, nil
	}

	tasks := v.Visible()
	selected, hasSelection := service.ID(""), m.cursor < len(tasks)
	if hasSelection {
		selected = tasks[m.cursor].ID
	}

	switch {
	case key.Matches(msg, keys.Up):
		m.moveCursor(-1, len(tasks))
	case key.Matches(msg, keys.Down):
		m.moveCursor(1, len(tasks))
	case key.Matches(msg, keys.Back):
		if _, open := v.Menus.Open(); open {
			v.Menus.Close()
			return m, nil
		}
		return m, m.backToDashboard()
	case key.Matches(msg, keys.Toggle):
		if hasSelection {
			m.busy = true
			return m, func() tea.Msg {
				return toggledMsg{err: v.Toggle(m.ctx, selected)}
			}
		}
	case key.Matches(msg, keys.Filter):
		v.SetFilter(v.Filter.Next())
		m.clampCursor()
	case key.Matches(msg, keys.New):
		v.StartCreate()
		m.form = newTaskForm("New task", v.Editor.Form)
		m.mode = modeForm
	case key.Matches(msg, keys.Edit):
		if hasSelection && v.StartEdit(selected) == nil {
			m.form = newTaskForm("Edit task", v.Editor.Form)
			m.mode = modeForm
		}
	case key.Matches(msg, keys.Delete):
		if hasSelection {
			return m, m.deleteCmd(v, selected)
		}
	case key.Matches(msg, keys.Menu):
		if hasSelection {
			v.Menus.Toggle(selected)
		}
	case key.Matches(msg, keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, keys.Dismiss):
		v.ClearError()
	}
	return m, nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.Cancel):
		m.cancelForm()
		return m, nil
	case key.Matches(msg, keys.Submit):
		return m, m.submit()
	case key.Matches(msg, keys.NextField):
		return m, m.form.move(1)
	case key.Matches(msg, keys.PrevField):
		return m, m.form.move(-1)
	}
	return m, m.form.update(msg)
}

// submit copies the inputs into the editor and validates them. Only a
// valid form issues a request.
func (m *Model) submit() tea.Cmd {
	var (
		b       view.Binding
		invalid error
	)
	if m.screen == screenDetail {
		f, err := m.form.task()
		if err == nil {
			err = f.Validate()
		}
		m.detail.Editor.Form = f
		b, invalid = m.detail, err
	} else {
		f := m.form.taskList()
		m.dashboard.Editor.Form = f
		b, invalid = m.dashboard, f.Validate()
	}
	if invalid != nil {
		m.form.invalid = invalid.Error()
		return nil
	}

	m.form.invalid = ""
	m.busy = true
	return func() tea.Msg {
		return submittedMsg{err: b.Submit(m.ctx)}
	}
}

func (m *Model) cancelForm() {
	if m.screen == screenDetail {
		m.detail.Editor.Cancel()
	} else {
		m.dashboard.Editor.Cancel()
	}
	m.form = formModel{}
	m.mode = modeBrowse
}

func (m *Model) editorInvalid() string {
	if m.screen == screenDetail {
		return m.detail.Editor.Invalid
	}
	return m.dashboard.Editor.Invalid
}

func (m *Model) deleteCmd(b view.Binding, id service.ID) tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		_, err := b.RequestDelete(m.ctx, id)
		return deletedMsg{err: err}
	}
}

func (m *Model) openDetail(id service.ID) tea.Cmd {
	m.dashboard.Menus.Close()
	m.detail = view.NewDetailView(m.svc, id, m.dialog, m.format, m.logger)
	m.bind(m.detail)
	m.screen = screenDetail
	m.cursor = 0
	return m.refresh()
}

// backToDashboard closes the detail view and reloads the lists, whose
// counts may have changed.
func (m *Model) backToDashboard() tea.Cmd {
	if m.detail != nil {
		m.detail.Close()
		m.detail = nil
	}
	m.bind(m.dashboard)
	m.screen = screenDashboard
	m.cursor = 0
	return m.refresh()
}

func (m *Model) moveCursor(delta, n int) {
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
}

func (m *Model) clampCursor() {
	if m.busy {
		return
	}
	n := len(m.dashboard.Store.Items())
	if m.screen == screenDetail && m.detail != nil {
		n = len(m.detail.Visible())
	}
	m.moveCursor(0, n)
}

func (m *Model) logResult(op string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, store.ErrClosed):
		m.logger.Debug("result after close", "op", op)
	default:
		m.logger.Warn("request failed", "op", op, "err", err)
	}
}
