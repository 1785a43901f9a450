package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tasktracker/internal/form"
	"tasktracker/internal/service"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldDue
	fieldPriority
	fieldStatus
)

// formModel is the text-input rendition of a list or task form.
type formModel struct {
	heading string
	labels  []string
	inputs  []textinput.Model
	focus   int
	invalid string
}

func newInput(value, placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.SetValue(value)
	return ti
}

func newListForm(heading string, f form.TaskList) formModel {
	m := formModel{
		heading: heading,
		labels:  []string{"Title", "Description"},
		inputs: []textinput.Model{
			newInput(f.Title, "Groceries"),
			newInput(f.Description, "optional"),
		},
	}
	m.inputs[0].Focus()
	return m
}

func newTaskForm(heading string, f form.Task) formModel {
	m := formModel{
		heading: heading,
		labels:  []string{"Title", "Description", "Due", "Priority", "Status"},
		inputs: []textinput.Model{
			newInput(f.Title, "Buy milk"),
			newInput(f.Description, "optional"),
			newInput(f.DueDate, form.DateLayout),
			newInput(string(f.Priority), "LOW, MEDIUM or HIGH"),
			newInput(string(f.Status), "OPEN or CLOSED"),
		},
	}
	m.inputs[0].Focus()
	return m
}

func (m *formModel) move(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

func (m *formModel) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *formModel) value(i int) string {
	return m.inputs[i].Value()
}

func (m *formModel) setValue(i int, s string) {
	m.inputs[i].SetValue(s)
}

// taskList reads the list fields.
func (m *formModel) taskList() form.TaskList {
	return form.TaskList{
		Title:       m.value(fieldTitle),
		Description: m.value(fieldDescription),
	}
}

// task reads the task fields. Priority and status are parsed case-insensitively.
func (m *formModel) task() (form.Task, error) {
	f := form.Task{
		Title:       m.value(fieldTitle),
		Description: m.value(fieldDescription),
		DueDate:     strings.TrimSpace(m.value(fieldDue)),
		Priority:    service.DefaultPriority,
		Status:      service.StatusOpen,
	}
	if s := m.value(fieldPriority); strings.TrimSpace(s) != "" {
		p, err := service.ParsePriority(s)
		if err != nil {
			return f, err
		}
		f.Priority = p
	}
	if s := m.value(fieldStatus); strings.TrimSpace(s) != "" {
		st, err := service.ParseStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	return f, nil
}

func (m formModel) view(s styles) string {
	var b strings.Builder
	fmt.Fprintln(&b, s.heading.Render(m.heading))
	fmt.Fprintln(&b)
	for i, label := range m.labels {
		marker := "  "
		if i == m.focus {
			marker = s.cursor.Render("> ")
		}
		fmt.Fprintf(&b, "%s%-12s %s\n", marker, label+":", m.inputs[i].View())
	}
	if m.invalid != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, s.err.Render(m.invalid))
	}
	return b.String()
}
