// Package form holds the value objects behind the shared create/edit form.
//
// A form is built either from fixed defaults or from an existing entity,
// and always converts back to the complete entity payload.
package form

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tasktracker/internal/service"
)

// ErrTitleRequired is returned when a form is submitted without a title.
var ErrTitleRequired = errors.New("title is required")

// DateLayout is the calendar-date format used for editing due dates.
const DateLayout = "2006-01-02"

// Task is the editable shape of a task.
type Task struct {
	Title       string
	Description string

	// DueDate is a calendar date in DateLayout, or "" for none.
	DueDate string

	Priority service.Priority
	Status   service.Status
}

// DefaultsTask returns the form for a new task.
func DefaultsTask() Task {
	return Task{
		Priority: service.DefaultPriority,
		Status:   service.StatusOpen,
	}
}

// FromTask seeds the form from an existing task.
func FromTask(t service.Task) Task {
	f := Task{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     DateInput(t.DueDate),
		Priority:    t.Priority,
		Status:      t.Status,
	}
	if f.Priority == "" {
		f.Priority = service.DefaultPriority
	}
	if f.Status == "" {
		f.Status = service.StatusOpen
	}
	return f
}

// Validate checks the form without touching the network.
func (f Task) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrTitleRequired
	}
	if !f.Priority.Valid() {
		return fmt.Errorf("invalid priority: %q", f.Priority)
	}
	if !f.Status.Valid() {
		return fmt.Errorf("invalid status: %q", f.Status)
	}
	if _, err := ParseDate(f.DueDate); err != nil {
		return err
	}
	return nil
}

// Input validates the form and builds the full task payload.
func (f Task) Input() (service.TaskInput, error) {
	if err := f.Validate(); err != nil {
		return service.TaskInput{}, err
	}
	due, _ := ParseDate(f.DueDate)
	return service.TaskInput{
		Title:       strings.TrimSpace(f.Title),
		Description: f.Description,
		DueDate:     due,
		Priority:    f.Priority,
		Status:      f.Status,
	}, nil
}

// TaskList is the editable shape of a task list.
type TaskList struct {
	Title       string
	Description string
}

// DefaultsTaskList returns the form for a new list.
func DefaultsTaskList() TaskList {
	return TaskList{}
}

// FromTaskList seeds the form from an existing list.
func FromTaskList(l service.TaskList) TaskList {
	return TaskList{Title: l.Title, Description: l.Description}
}

// Validate checks the form without touching the network.
func (f TaskList) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// Input validates the form and builds the list payload.
func (f TaskList) Input() (service.TaskListInput, error) {
	if err := f.Validate(); err != nil {
		return service.TaskListInput{}, err
	}
	return service.TaskListInput{
		Title:       strings.TrimSpace(f.Title),
		Description: f.Description,
	}, nil
}

// ParseDate converts a calendar date into midnight UTC.
// An empty string yields nil, never a zero time.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q: use YYYY-MM-DD", s)
	}
	return &t, nil
}

// DateInput renders a due date for editing. The calendar date is taken
// from the UTC timestamp.
func DateInput(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// DisplayDate renders a due date with layout, or "" when absent.
func DisplayDate(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	if layout == "" {
		layout = "01/02/2006"
	}
	return t.UTC().Format(layout)
}
