package view

import (
	"context"

	"tasktracker/internal/service"
	"tasktracker/internal/store"
)

// Inputter is a form that validates and converts itself to a payload.
type Inputter[In any] interface {
	Input() (In, error)
}

// Editor is an open create or edit session over one form.
type Editor[F Inputter[In], In any] struct {
	// Form holds the current field values.
	Form F

	// Target is the entity being edited, or zero when creating.
	Target service.ID

	// Invalid holds the validation message of the last failed submit.
	Invalid string

	open bool
}

// Create opens the editor seeded with defaults.
func (e *Editor[F, In]) Create(defaults F) {
	e.Form = defaults
	e.Target = ""
	e.Invalid = ""
	e.open = true
}

// Edit opens the editor seeded from an existing entity.
func (e *Editor[F, In]) Edit(id service.ID, seeded F) {
	e.Form = seeded
	e.Target = id
	e.Invalid = ""
	e.open = true
}

// IsOpen reports whether an edit session is in progress.
func (e *Editor[F, In]) IsOpen() bool {
	return e.open
}

// IsCreate reports whether the session creates a new entity.
func (e *Editor[F, In]) IsCreate() bool {
	return e.Target.IsZero()
}

// Cancel closes the editor without submitting.
func (e *Editor[F, In]) Cancel() {
	e.open = false
	e.Invalid = ""
}

// Submit validates the form and sends the full payload to c. An invalid form
// issues no request. The editor stays open on any failure and closes on success.
func Submit[F Inputter[In], T store.Entity, In any](ctx context.Context, e *Editor[F, In], c *store.Collection[T, In]) error {
	in, err := e.Form.Input()
	if err != nil {
		e.Invalid = err.Error()
		return err
	}
	e.Invalid = ""

	if e.IsCreate() {
		_, err = c.Create(ctx, in)
	} else {
		_, err = c.Update(ctx, e.Target, in)
	}
	if err != nil {
		return err
	}
	e.open = false
	return nil
}
