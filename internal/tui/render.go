package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"tasktracker/internal/output"
	"tasktracker/internal/service"
	"tasktracker/internal/store"
	"tasktracker/internal/view"
)

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	switch m.mode {
	case modeForm:
		b.WriteString(m.form.view(m.styles))
	case modeConfirm:
		b.WriteString(m.styles.dialog.Render(m.prompt + "\n\n(y)es / (n)o"))
		b.WriteString("\n")
	default:
		if m.screen == screenDetail && m.detail != nil {
			m.viewDetail(&b)
		} else {
			m.viewDashboard(&b)
		}
	}

	b.WriteString("\n")
	if m.busy {
		b.WriteString(m.styles.muted.Render("Working..."))
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) helpKeys() []key.Binding {
	switch {
	case m.mode == modeForm:
		return formHelp()
	case m.mode == modeConfirm:
		return confirmHelp()
	case m.screen == screenDetail:
		return detailHelp()
	}
	return dashboardHelp()
}

func (m *Model) viewDashboard(b *strings.Builder) {
	fmt.Fprintln(b, m.styles.heading.Render("Task lists"))
	fmt.Fprintln(b)

	s := m.dashboard.Store.Snapshot()
	switch view.StateOf(s.Loaded, s.LoadFailed, false) {
	case view.Loading:
		fmt.Fprintln(b, m.styles.muted.Render("Loading..."))
		return
	case view.Failed:
		m.format.Error(b, s.Err)
		fmt.Fprintln(b, m.styles.muted.Render("press r to retry"))
		return
	}

	m.format.Error(b, s.Err)
	if len(s.Items) == 0 {
		fmt.Fprintln(b, m.styles.muted.Render("No task lists yet"))
		return
	}
	for i, l := range s.Items {
		if i > 0 {
			fmt.Fprintln(b)
		}
		var card strings.Builder
		m.format.ListCard(&card, l)
		b.WriteString(m.withCursor(i, card.String()))
		if !m.busy && m.dashboard.Menus.IsOpen(l.ID) {
			fmt.Fprintln(b, m.styles.menu.Render("    e edit  d delete"))
		}
	}
}

func (m *Model) viewDetail(b *strings.Builder) {
	v := m.detail
	s := v.Store.Snapshot()
	switch view.StateOf(s.Loaded, s.LoadFailed, s.NotFound) {
	case view.Loading:
		fmt.Fprintln(b, m.styles.muted.Render("Loading..."))
		return
	case view.NotFound:
		m.format.NotFound(b)
		return
	case view.Failed:
		m.format.Error(b, s.Err)
		fmt.Fprintln(b, m.styles.muted.Render("press r to retry, esc to go back"))
		return
	}

	shown := store.FilterTasks(s.Tasks, v.Filter)
	m.format.Error(b, s.Err)
	m.format.DetailHeader(b, s.List, len(shown), len(s.Tasks), v.Filter)
	if len(shown) == 0 {
		fmt.Fprintln(b, m.styles.muted.Render(output.EmptyTasksMessage(v.Filter)))
		return
	}

	var selected *service.Task
	for i, t := range shown {
		b.WriteString(m.withCursor(i, m.format.TaskRow(t)+"\n"))
		if i == m.cursor {
			selected = &shown[i]
		}
		if !m.busy && v.Menus.IsOpen(t.ID) {
			fmt.Fprintln(b, m.styles.menu.Render("    space toggle  e edit  d delete"))
		}
	}
	if selected != nil {
		fmt.Fprintln(b)
		m.format.TaskDetail(b, *selected)
	}
}

// withCursor prefixes the first line of block with the cursor marker when
// i is selected and indents the rest.
func (m *Model) withCursor(i int, block string) string {
	marker := "  "
	if i == m.cursor {
		marker = m.styles.cursor.Render("> ")
	}
	lines := strings.SplitAfter(block, "\n")
	var b strings.Builder
	for j, line := range lines {
		if line == "" {
			continue
		}
		if j == 0 {
			b.WriteString(marker)
		} else {
			b.WriteString("  ")
		}
		b.WriteString(line)
	}
	return b.String()
}
