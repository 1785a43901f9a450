// Package store keeps in-memory collections consistent with the remote
// task-list authority for the lifetime of a view.
//
// Every intent is confirm-then-apply: local state changes only after the
// server accepts the request, and a failed request leaves local state as it
// was and records a message in the store's single error slot. Responses for
// an entity that has since been targeted by a newer request are discarded.
package store

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"tasktracker/internal/service"
)

// ErrClosed is returned by intents issued to, or completing after, a closed store.
var ErrClosed = errors.New("store closed")

// Entity is anything with a server-assigned id.
type Entity interface {
	EntityID() service.ID
}

// Remote is the resource client a Collection synchronizes with.
type Remote[T Entity, In any] interface {
	GetAll(ctx context.Context) ([]T, error)
	Create(ctx context.Context, in In) (T, error)
	Update(ctx context.Context, id service.ID, in In) (T, error)
	Delete(ctx context.Context, id service.ID) error
}

// Messages are the user-facing error texts for one resource type.
type Messages struct {
	Load          string
	Create        string
	Update        string
	Delete        string
	ConfirmDelete string
}

var (
	// TaskListMessages are used by list stores.
	TaskListMessages = Messages{
		Load:          "Failed to fetch task lists",
		Create:        "Failed to create task list",
		Update:        "Failed to update task list",
		Delete:        "Failed to delete task list",
		ConfirmDelete: "Are you sure you want to delete this task list?",
	}

	// TaskMessages are used by task stores.
	TaskMessages = Messages{
		Load:          "Failed to fetch tasks",
		Create:        "Failed to create task",
		Update:        "Failed to update task",
		Delete:        "Failed to delete task",
		ConfirmDelete: "Are you sure you want to delete this task?",
	}
)

// Snapshot is a consistent copy of a collection's state.
type Snapshot[T any] struct {
	Items []T

	// Loaded is true once any load has succeeded.
	Loaded bool

	// Loading is true while a load is in flight.
	Loading bool

	// LoadFailed is true when the latest load failed.
	LoadFailed bool

	// Err is the current error message, or "".
	Err string
}

// Collection is an ordered in-memory copy of one remote collection.
type Collection[T Entity, In any] struct {
	remote Remote[T, In]
	msgs   Messages
	h      *hub

	items       []T
	loaded      bool
	loading     bool
	loadFailed  bool
	loadVersion uint64
	versions    map[service.ID]uint64
}

// NewCollection creates an empty collection. Call Load to populate it.
func NewCollection[T Entity, In any](remote Remote[T, In], msgs Messages, logger *log.Logger) *Collection[T, In] {
	return newCollection(remote, msgs, newHub(logger))
}

func newCollection[T Entity, In any](remote Remote[T, In], msgs Messages, h *hub) *Collection[T, In] {
	return &Collection[T, In]{
		remote:   remote,
		msgs:     msgs,
		h:        h,
		versions: make(map[service.ID]uint64),
	}
}

// Messages returns the collection's user-facing texts.
func (c *Collection[T, In]) Messages() Messages {
	return c.msgs
}

// Snapshot returns a copy of the current state.
func (c *Collection[T, In]) Snapshot() Snapshot[T] {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	return Snapshot[T]{
		Items:      append([]T(nil), c.items...),
		Loaded:     c.loaded,
		Loading:    c.loading,
		LoadFailed: c.loadFailed,
		Err:        c.h.errMsg,
	}
}

// Items returns a copy of the current items in order.
func (c *Collection[T, In]) Items() []T {
	return c.Snapshot().Items
}

// Find returns the item with id.
func (c *Collection[T, In]) Find(id service.ID) (T, bool) {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// Err returns the current error message.
func (c *Collection[T, In]) Err() string {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	return c.h.errMsg
}

// ClearError empties the error slot.
func (c *Collection[T, In]) ClearError() {
	c.h.clearError()
}

// Subscribe registers fn to run after every state change.
func (c *Collection[T, In]) Subscribe(fn func()) (unsubscribe func()) {
	return c.h.subscribe(fn)
}

// Close tears the store down. Later results are dropped and subscribers
// are no longer notified.
func (c *Collection[T, In]) Close() {
	c.h.close()
}

// Load replaces the local items with the remote collection.
// On failure the previous items are kept.
func (c *Collection[T, In]) Load(ctx context.Context) error {
	v, err := c.beginLoad()
	if err != nil {
		return err
	}
	items, err := c.remote.GetAll(ctx)
	return c.finishLoad(v, items, err, c.msgs.Load)
}

// beginLoad marks a load in flight and returns its version.
func (c *Collection[T, In]) beginLoad() (uint64, error) {
	c.h.mu.Lock()
	if c.h.closed {
		c.h.mu.Unlock()
		return 0, ErrClosed
	}
	c.loadVersion++
	v := c.loadVersion
	c.loading = true
	c.h.unlockAndNotify()
	return v, nil
}

// finishLoad applies the outcome of load v unless a newer load has started.
func (c *Collection[T, In]) finishLoad(v uint64, items []T, err error, failMsg string) error {
	c.h.mu.Lock()
	if c.h.closed {
		c.h.mu.Unlock()
		return ErrClosed
	}
	if v != c.loadVersion {
		c.h.mu.Unlock()
		return err
	}
	c.loading = false
	if err != nil {
		c.loadFailed = true
		c.h.fail(failMsg, err)
		c.h.unlockAndNotify()
		return err
	}
	c.items = append([]T(nil), items...)
	c.loaded = true
	c.loadFailed = false
	c.h.errMsg = ""
	c.h.unlockAndNotify()
	return nil
}

// Create sends in to the server and appends the returned entity last.
func (c *Collection[T, In]) Create(ctx context.Context, in In) (T, error) {
	var zero T
	if c.isClosed() {
		return zero, ErrClosed
	}

	created, err := c.remote.Create(ctx, in)

	c.h.mu.Lock()
	if c.h.closed {
		c.h.mu.Unlock()
		return zero, ErrClosed
	}
	if err != nil {
		c.h.fail(c.msgs.Create, err)
		c.h.unlockAndNotify()
		return zero, err
	}
	c.items = append(c.items, created)
	c.h.errMsg = ""
	c.h.unlockAndNotify()
	return created, nil
}

// Update sends the full entity and replaces the local copy on success.
// A response superseded by a newer request for the same id is not applied.
func (c *Collection[T, In]) Update(ctx context.Context, id service.ID, in In) (T, error) {
	var zero T
	v, err := c.beginIntent(id)
	if err != nil {
		return zero, err
	}

	updated, err := c.remote.Update(ctx, id, in)

	c.h.mu.Lock()
	if c.h.closed {
		c.h.mu.Unlock()
		return zero, ErrClosed
	}
	if c.versions[id] != v {
		c.h.mu.Unlock()
		return updated, err
	}
	if err != nil {
		c.h.fail(c.msgs.Update, err)
		c.h.unlockAndNotify()
		return zero, err
	}
	if i := c.indexOf(id); i >= 0 {
		c.items[i] = updated
	}
	c.h.errMsg = ""
	c.h.unlockAndNotify()
	return updated, nil
}

// Delete asks confirm before issuing any request. A declined confirmation
// is a no-op and returns false with a nil error.
func (c *Collection[T, In]) Delete(ctx context.Context, id service.ID, confirm Confirmer) (bool, error) {
	if confirm == nil || !confirm.Confirm(c.msgs.ConfirmDelete) {
		return false, nil
	}

	v, err := c.beginIntent(id)
	if err != nil {
		return false, err
	}

	err = c.remote.Delete(ctx, id)

	c.h.mu.Lock()
	if c.h.closed {
		c.h.mu.Unlock()
		return false, ErrClosed
	}
	if c.versions[id] != v {
		c.h.mu.Unlock()
		return err == nil, err
	}
	if err != nil {
		c.h.fail(c.msgs.Delete, err)
		c.h.unlockAndNotify()
		return false, err
	}
	if i := c.indexOf(id); i >= 0 {
		c.items = append(c.items[:i:i], c.items[i+1:]...)
	}
	c.h.errMsg = ""
	c.h.unlockAndNotify()
	return true, nil
}

// beginIntent bumps and returns the request version for id.
func (c *Collection[T, In]) beginIntent(id service.ID) (uint64, error) {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	if c.h.closed {
		return 0, ErrClosed
	}
	c.versions[id]++
	return c.versions[id], nil
}

func (c *Collection[T, In]) isClosed() bool {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	return c.h.closed
}

// indexOf returns the position of id. Caller holds c.h.mu.
func (c *Collection[T, In]) indexOf(id service.ID) int {
	for i, item := range c.items {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}
