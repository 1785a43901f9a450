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

// ListEditor edits task lists.
type ListEditor = Editor[form.TaskList, service.TaskListInput]

// Dashboard is the view of all task lists.
type Dashboard struct {
	Store  *store.ListStore
	Menus  Menus
	Editor ListEditor

	confirm store.Confirmer
	format  output.Formatter
}

var _ Binding = (*Dashboard)(nil)

// NewDashboard creates the dashboard view. confirm gates deletes.
func NewDashboard(svc *service.Service, confirm store.Confirmer, format output.Formatter, logger *log.Logger) *Dashboard {
	return &Dashboard{
		Store:   store.NewListStore(svc.Lists, logger),
		confirm: confirm,
		format:  format,
	}
}

// State implements Binding.
func (d *Dashboard) State() State {
	s := d.Store.Snapshot()
	return StateOf(s.Loaded, s.LoadFailed, false)
}

// Refresh implements Binding.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.Menus.Close()
	return d.Store.Load(ctx)
}

// StartCreate opens the form with defaults.
func (d *Dashboard) StartCreate() {
	d.Menus.Close()
	d.Editor.Create(form.DefaultsTaskList())
}

// StartEdit opens the form seeded from the list with id.
func (d *Dashboard) StartEdit(id service.ID) error {
	d.Menus.Close()
	l, ok := d.Store.Find(id)
	if !ok {
		return fmt.Errorf("task list %s: %w", id, service.ErrNotFound)
	}
	d.Editor.Edit(id, form.FromTaskList(l))
	return nil
}

// Submit implements Binding.
func (d *Dashboard) Submit(ctx context.Context) error {
	return Submit(ctx, &d.Editor, d.Store)
}

// RequestDelete implements Binding.
func (d *Dashboard) RequestDelete(ctx context.Context, id service.ID) (bool, error) {
	d.Menus.Close()
	return d.Store.Delete(ctx, id, d.confirm)
}

// ClearError implements Binding.
func (d *Dashboard) ClearError() {
	d.Store.ClearError()
}

// Subscribe implements Binding.
func (d *Dashboard) Subscribe(fn func()) func() {
	return d.Store.Subscribe(fn)
}

// Close implements Binding.
func (d *Dashboard) Close() {
	d.Store.Close()
}

// Render implements Binding.
func (d *Dashboard) Render() string {
	s := d.Store.Snapshot()
	var buf bytes.Buffer
	switch StateOf(s.Loaded, s.LoadFailed, false) {
	case Loading:
		fmt.Fprintln(&buf, "Loading...")
	case Failed:
		d.format.Error(&buf, s.Err)
	default:
		d.format.Error(&buf, s.Err)
		d.format.Dashboard(&buf, s.Items)
	}
	return buf.String()
}
