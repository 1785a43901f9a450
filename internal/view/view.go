// Package view is the contract between a presentation layer and the stores:
// which state to render, which intents a row exposes, and how the shared
// create/edit form is submitted.
package view

import (
	"context"

	"tasktracker/internal/service"
	"tasktracker/internal/store"
)

// State is the mutually exclusive render state of a view.
type State int

const (
	// Loading is shown until the first load completes.
	Loading State = iota

	// Failed means the load failed and no data is available.
	Failed

	// NotFound means the requested list does not exist.
	NotFound

	// Loaded is the normal display. An action error banner may still show.
	Loaded
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Failed:
		return "failed"
	case NotFound:
		return "not found"
	case Loaded:
		return "loaded"
	}
	return "unknown"
}

// StateOf derives the render state from load flags.
func StateOf(loaded, loadFailed, notFound bool) State {
	switch {
	case notFound:
		return NotFound
	case loaded:
		return Loaded
	case loadFailed:
		return Failed
	default:
		return Loading
	}
}

// Binding is what every view exposes to the presentation layer.
type Binding interface {
	// State returns the current render state.
	State() State

	// Refresh reloads the view's data.
	Refresh(ctx context.Context) error

	// Submit sends the open form. It stays open on failure.
	Submit(ctx context.Context) error

	// RequestDelete deletes the row with id after confirmation.
	RequestDelete(ctx context.Context, id service.ID) (bool, error)

	// ClearError dismisses the action error banner.
	ClearError()

	// Subscribe registers fn to run after each change.
	Subscribe(fn func()) (unsubscribe func())

	// Render returns the view as text.
	Render() string

	// Close releases the view's stores.
	Close()
}

// TaskBinding adds the task row actions.
type TaskBinding interface {
	Binding

	// Toggle flips a task between OPEN and CLOSED.
	Toggle(ctx context.Context, id service.ID) error

	// SetFilter changes the status filter.
	SetFilter(f store.Filter)
}
