package store

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"tasktracker/internal/service"
	"tasktracker/internal/transport"
)

// DetailLoadMessage is recorded when the detail load fails.
const DetailLoadMessage = "Failed to fetch task list details"

// DetailSnapshot is a consistent copy of a Detail's state.
type DetailSnapshot struct {
	List  service.TaskList
	Tasks []service.Task

	Loaded     bool
	Loading    bool
	LoadFailed bool

	// NotFound is true when the parent list does not exist.
	NotFound bool

	Err string
}

// Detail holds one task list and its tasks. Tasks shares the Detail's
// error slot, subscribers and lifetime.
type Detail struct {
	lists  service.TaskLists
	listID service.ID
	h      *hub

	// Tasks is the task collection of the list.
	Tasks *TaskStore

	list     service.TaskList
	notFound bool
}

// NewDetail creates a detail store for listID. Call Load to populate it.
func NewDetail(svc *service.Service, listID service.ID, logger *log.Logger) *Detail {
	h := newHub(logger)
	return &Detail{
		lists:  svc.Lists,
		listID: listID,
		h:      h,
		Tasks:  newTaskStore(svc.Tasks, listID, h),
	}
}

// ListID returns the id of the list being shown.
func (d *Detail) ListID() service.ID {
	return d.listID
}

// Load fetches the list and its tasks concurrently. Nothing is applied
// unless both succeed. A missing list yields the NotFound state whatever
// the tasks request returned, and leaves the error slot untouched.
func (d *Detail) Load(ctx context.Context) error {
	v, err := d.Tasks.beginLoad()
	if err != nil {
		return err
	}

	var (
		list     service.TaskList
		tasks    []service.Task
		listErr  error
		tasksErr error
		g        errgroup.Group
	)
	g.Go(func() error {
		list, listErr = d.lists.GetByID(ctx, d.listID)
		return listErr
	})
	g.Go(func() error {
		tasks, tasksErr = d.Tasks.remote.GetAll(ctx)
		return tasksErr
	})
	waitErr := g.Wait()

	if isNotFound(listErr) {
		d.h.mu.Lock()
		if !d.h.closed && v == d.Tasks.loadVersion {
			d.notFound = true
		}
		d.h.mu.Unlock()
		return d.Tasks.finishLoad(v, nil, listErr, "")
	}

	d.h.mu.Lock()
	if !d.h.closed && v == d.Tasks.loadVersion {
		d.notFound = false
		if waitErr == nil {
			d.list = list
		}
	}
	d.h.mu.Unlock()
	return d.Tasks.finishLoad(v, tasks, waitErr, DetailLoadMessage)
}

// Snapshot returns a copy of the current state.
func (d *Detail) Snapshot() DetailSnapshot {
	d.h.mu.Lock()
	defer d.h.mu.Unlock()
	return DetailSnapshot{
		List:       d.list,
		Tasks:      append([]service.Task(nil), d.Tasks.items...),
		Loaded:     d.Tasks.loaded,
		Loading:    d.Tasks.loading,
		LoadFailed: d.Tasks.loadFailed,
		NotFound:   d.notFound,
		Err:        d.h.errMsg,
	}
}

// ClearError empties the error slot.
func (d *Detail) ClearError() {
	d.h.clearError()
}

// Subscribe registers fn to run after every change to the list or its tasks.
func (d *Detail) Subscribe(fn func()) (unsubscribe func()) {
	return d.h.subscribe(fn)
}

// Close tears the store and its task collection down.
func (d *Detail) Close() {
	d.h.close()
}

// isNotFound reports whether err means the entity does not exist, for both
// HTTP and in-process backends.
func isNotFound(err error) bool {
	return transport.IsNotFound(err) || errors.Is(err, service.ErrNotFound)
}
