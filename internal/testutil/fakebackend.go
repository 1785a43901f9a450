// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"strconv"
	"sync"

	"tasktracker/internal/service"
)

// FakeBackend is an in-memory task-list authority for testing.
// IDs are assigned from a numeric counter, and each list's count and
// progress are derived from its tasks on every read.
type FakeBackend struct {
	mu     sync.Mutex
	nextID int
	lists  []service.TaskList
	tasks  map[service.ID][]service.Task
	calls  map[string]int

	// Error injection for testing
	ListListsErr  error
	GetListErr    error
	CreateListErr error
	UpdateListErr error
	DeleteListErr error
	ListTasksErr  error
	GetTaskErr    error
	CreateTaskErr error
	UpdateTaskErr error
	DeleteTaskErr error

	// BeforeCall, when set, runs before every operation outside the lock.
	// A non-nil return fails the operation.
	BeforeCall func(ctx context.Context, op string) error
}

// Operation names used by Calls and BeforeCall.
const (
	OpListLists  = "ListLists"
	OpGetList    = "GetList"
	OpCreateList = "CreateList"
	OpUpdateList = "UpdateList"
	OpDeleteList = "DeleteList"
	OpListTasks  = "ListTasks"
	OpGetTask    = "GetTask"
	OpCreateTask = "CreateTask"
	OpUpdateTask = "UpdateTask"
	OpDeleteTask = "DeleteTask"
)

// NewFakeBackend creates an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		tasks: make(map[service.ID][]service.Task),
		calls: make(map[string]int),
	}
}

// Service exposes the backend through the resource client interfaces.
func (f *FakeBackend) Service() *service.Service {
	return &service.Service{
		Lists: fakeLists{f},
		Tasks: fakeTasks{f},
	}
}

// Calls returns how many times op was invoked.
func (f *FakeBackend) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// AddList seeds a list and returns its id.
func (f *FakeBackend) AddList(title, description string) service.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newID()
	f.lists = append(f.lists, service.TaskList{ID: id, Title: title, Description: description})
	f.tasks[id] = nil
	return id
}

// AddTask seeds a task and returns its id.
func (f *FakeBackend) AddTask(listID service.ID, title string, status service.Status) service.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newID()
	f.tasks[listID] = append(f.tasks[listID], service.Task{
		ID:       id,
		ListID:   listID,
		Title:    title,
		Status:   status,
		Priority: service.DefaultPriority,
	})
	return id
}

func (f *FakeBackend) newID() service.ID {
	f.nextID++
	return service.ID(strconv.Itoa(f.nextID))
}

func (f *FakeBackend) begin(ctx context.Context, op string, injected error) error {
	f.mu.Lock()
	f.calls[op]++
	hook := f.BeforeCall
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, op); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return injected
}

// withDerived fills Tasks, Count and Progress. Caller holds f.mu.
func (f *FakeBackend) withDerived(l service.TaskList) service.TaskList {
	tasks := f.tasks[l.ID]
	l.Tasks = append([]service.Task(nil), tasks...)
	l.Count = len(tasks)
	l.Progress = 0
	if len(tasks) > 0 {
		closed := 0
		for _, t := range tasks {
			if t.Status == service.StatusClosed {
				closed++
			}
		}
		l.Progress = float64(closed) / float64(len(tasks))
	}
	return l
}

func (f *FakeBackend) listIndex(id service.ID) int {
	for i, l := range f.lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeBackend) taskIndex(listID, taskID service.ID) int {
	for i, t := range f.tasks[listID] {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}

// ListLists returns all lists in insertion order.
func (f *FakeBackend) ListLists(ctx context.Context) ([]service.TaskList, error) {
	if err := f.begin(ctx, OpListLists, f.ListListsErr); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]service.TaskList, 0, len(f.lists))
	for _, l := range f.lists {
		result = append(result, f.withDerived(l))
	}
	return result, nil
}

// GetList returns one list.
func (f *FakeBackend) GetList(ctx context.Context, id service.ID) (service.TaskList, error) {
	if err := f.begin(ctx, OpGetList, f.GetListErr); err != nil {
		return service.TaskList{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.listIndex(id)
	if i < 0 {
		return service.TaskList{}, service.ErrNotFound
	}
	return f.withDerived(f.lists[i]), nil
}

// CreateList appends a new list.
func (f *FakeBackend) CreateList(ctx context.Context, in service.TaskListInput) (service.TaskList, error) {
	if err := f.begin(ctx, OpCreateList, f.CreateListErr); err != nil {
		return service.TaskList{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l := service.TaskList{ID: f.newID(), Title: in.Title, Description: in.Description}
	f.lists = append(f.lists, l)
	f.tasks[l.ID] = nil
	return f.withDerived(l), nil
}

// UpdateList replaces a list's title and description.
func (f *FakeBackend) UpdateList(ctx context.Context, id service.ID, in service.TaskListInput) (service.TaskList, error) {
	if err := f.begin(ctx, OpUpdateList, f.UpdateListErr); err != nil {
		return service.TaskList{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.listIndex(id)
	if i < 0 {
		return service.TaskList{}, service.ErrNotFound
	}
	f.lists[i].Title = in.Title
	f.lists[i].Description = in.Description
	return f.withDerived(f.lists[i]), nil
}

// DeleteList removes a list and its tasks.
func (f *FakeBackend) DeleteList(ctx context.Context, id service.ID) error {
	if err := f.begin(ctx, OpDeleteList, f.DeleteListErr); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.listIndex(id)
	if i < 0 {
		return service.ErrNotFound
	}
	f.lists = append(f.lists[:i], f.lists[i+1:]...)
	delete(f.tasks, id)
	return nil
}

// ListTasks returns a list's tasks in insertion order.
func (f *FakeBackend) ListTasks(ctx context.Context, listID service.ID) ([]service.Task, error) {
	if err := f.begin(ctx, OpListTasks, f.ListTasksErr); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks, ok := f.tasks[listID]
	if !ok {
		return nil, service.ErrNotFound
	}
	return append([]service.Task{}, tasks...), nil
}

// GetTask returns one task.
func (f *FakeBackend) GetTask(ctx context.Context, listID, taskID service.ID) (service.Task, error) {
	if err := f.begin(ctx, OpGetTask, f.GetTaskErr); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.taskIndex(listID, taskID)
	if i < 0 {
		return service.Task{}, service.ErrNotFound
	}
	return f.tasks[listID][i], nil
}

// CreateTask appends a task to a list.
func (f *FakeBackend) CreateTask(ctx context.Context, listID service.ID, in service.TaskInput) (service.Task, error) {
	if err := f.begin(ctx, OpCreateTask, f.CreateTaskErr); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[listID]; !ok {
		return service.Task{}, service.ErrNotFound
	}
	t := taskFromInput(f.newID(), listID, in)
	f.tasks[listID] = append(f.tasks[listID], t)
	return t, nil
}

// UpdateTask replaces a task. The list id never changes.
func (f *FakeBackend) UpdateTask(ctx context.Context, listID, taskID service.ID, in service.TaskInput) (service.Task, error) {
	if err := f.begin(ctx, OpUpdateTask, f.UpdateTaskErr); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.taskIndex(listID, taskID)
	if i < 0 {
		return service.Task{}, service.ErrNotFound
	}
	t := taskFromInput(taskID, listID, in)
	f.tasks[listID][i] = t
	return t, nil
}

// DeleteTask removes a task.
func (f *FakeBackend) DeleteTask(ctx context.Context, listID, taskID service.ID) error {
	if err := f.begin(ctx, OpDeleteTask, f.DeleteTaskErr); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.taskIndex(listID, taskID)
	if i < 0 {
		return service.ErrNotFound
	}
	tasks := f.tasks[listID]
	f.tasks[listID] = append(tasks[:i], tasks[i+1:]...)
	return nil
}

func taskFromInput(id, listID service.ID, in service.TaskInput) service.Task {
	t := service.Task{
		ID:          id,
		ListID:      listID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	}
	if t.Status == "" {
		t.Status = service.StatusOpen
	}
	if t.Priority == "" {
		t.Priority = service.DefaultPriority
	}
	return t
}

type fakeLists struct{ f *FakeBackend }

func (v fakeLists) GetAll(ctx context.Context) ([]service.TaskList, error) {
	return v.f.ListLists(ctx)
}

func (v fakeLists) GetByID(ctx context.Context, id service.ID) (service.TaskList, error) {
	return v.f.GetList(ctx, id)
}

func (v fakeLists) Create(ctx context.Context, in service.TaskListInput) (service.TaskList, error) {
	return v.f.CreateList(ctx, in)
}

func (v fakeLists) Update(ctx context.Context, id service.ID, in service.TaskListInput) (service.TaskList, error) {
	return v.f.UpdateList(ctx, id, in)
}

func (v fakeLists) Delete(ctx context.Context, id service.ID) error {
	return v.f.DeleteList(ctx, id)
}

type fakeTasks struct{ f *FakeBackend }

func (v fakeTasks) GetAll(ctx context.Context, listID service.ID) ([]service.Task, error) {
	return v.f.ListTasks(ctx, listID)
}

func (v fakeTasks) GetByID(ctx context.Context, listID, taskID service.ID) (service.Task, error) {
	return v.f.GetTask(ctx, listID, taskID)
}

func (v fakeTasks) Create(ctx context.Context, listID service.ID, in service.TaskInput) (service.Task, error) {
	return v.f.CreateTask(ctx, listID, in)
}

func (v fakeTasks) Update(ctx context.Context, listID, taskID service.ID, in service.TaskInput) (service.Task, error) {
	return v.f.UpdateTask(ctx, listID, taskID, in)
}

func (v fakeTasks) Delete(ctx context.Context, listID, taskID service.ID) error {
	return v.f.DeleteTask(ctx, listID, taskID)
}
