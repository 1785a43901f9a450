package view

import (
	"bytes"
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"tasktracker/internal/form"
	"tasktracker/internal/output"
	"tasktracker/internal/service"
	"tasktracker/internal/store"
)

// TaskEditor edits tasks.
type TaskEditor = Editor[form.Task, service.TaskInput]

// DetailView shows one task list and its tasks.
type DetailView struct {
	Store  *store.Detail
	Menus  Menus
	Editor TaskEditor
	Filter store.Filter

	confirm store.Confirmer
	format  output.Formatter
}

var _ TaskBinding = (*DetailView)(nil)

// NewDetailView creates the view for listID. confirm gates deletes.
func NewDetailView(svc *service.Service, listID service.ID, confirm store.Confirmer, format output.Formatter, logger *log.Logger) *DetailView {
	return &DetailView{
		Store:   store.NewDetail(svc, listID, logger),
		Filter:  store.FilterAll,
		confirm: confirm,
		format:  format,
	}
}

// State implements Binding.
func (v *DetailView) State() State {
	s := v.Store.Snapshot()
	return StateOf(s.Loaded, s.LoadFailed, s.NotFound)
}

// Refresh implements Binding.
func (v *DetailView) Refresh(ctx context.Context) error {
	v.Menus.Close()
	return v.Store.Load(ctx)
}

// Visible returns the tasks matching the current filter.
func (v *DetailView) Visible() []service.Task {
	return store.FilterTasks(v.Store.Snapshot().Tasks, v.Filter)
}

// SetFilter implements TaskBinding.
func (v *DetailView) SetFilter(f store.Filter) {
	v.Menus.Close()
	v.Filter = f
}

// StartCreate opens the form with defaults.
func (v *DetailView) StartCreate() {
	v.Menus.Close()
	v.Editor.Create(form.DefaultsTask())
}

// StartEdit opens the form seeded from the task with id.
func (v *DetailView) StartEdit(id service.ID) error {
	v.Menus.Close()
	t, ok := v.Store.Tasks.Find(id)
	if !ok {
		return fmt.Errorf("task %s: %w", id, service.ErrNotFound)
	}
	v.Editor.Edit(id, form.FromTask(t))
	return nil
}

// Submit implements Binding.
func (v *DetailView) Submit(ctx context.Context) error {
	return Submit(ctx, &v.Editor, v.Store.Tasks.Collection)
}

// Toggle implements TaskBinding.
func (v *DetailView) Toggle(ctx context.Context, id service.ID) error {
	v.Menus.Close()
	_, err := v.Store.Tasks.Toggle(ctx, id)
	return err
}

// RequestDelete implements Binding.
func (v *DetailView) RequestDelete(ctx context.Context, id service.ID) (bool, error) {
	v.Menus.Close()
	return v.Store.Tasks.Delete(ctx, id, v.confirm)
}

// ClearError implements Binding.
func (v *DetailView) ClearError() {
	v.Store.ClearError()
}

// Subscribe implements Binding.
func (v *DetailView) Subscribe(fn func()) func() {
	return v.Store.Subscribe(fn)
}

// Close implements Binding.
func (v *DetailView) Close() {
	v.Store.Close()
}

// Render implements Binding.
func (v *DetailView) Render() string {
	s := v.Store.Snapshot()
	var buf bytes.Buffer
	switch StateOf(s.Loaded, s.LoadFailed, s.NotFound) {
	case Loading:
		fmt.Fprintln(&buf, "Loading...")
	case NotFound:
		v.format.NotFound(&buf)
	case Failed:
		v.format.Error(&buf, s.Err)
	default:
		v.format.Error(&buf, s.Err)
		v.format.Detail(&buf, s.List, s.Tasks, v.Filter)
	}
	return buf.String()
}
