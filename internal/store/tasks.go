package store

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"tasktracker/internal/service"
)

// ListStore is the collection of all task lists.
type ListStore = Collection[service.TaskList, service.TaskListInput]

// NewListStore creates a store over all task lists.
func NewListStore(lists service.TaskLists, logger *log.Logger) *ListStore {
	return NewCollection[service.TaskList, service.TaskListInput](lists, TaskListMessages, logger)
}

// TaskStore is the collection of tasks in one list.
type TaskStore struct {
	*Collection[service.Task, service.TaskInput]
	listID service.ID
}

// NewTaskStore creates a store over the tasks of listID.
func NewTaskStore(tasks service.Tasks, listID service.ID, logger *log.Logger) *TaskStore {
	return newTaskStore(tasks, listID, newHub(logger))
}

func newTaskStore(tasks service.Tasks, listID service.ID, h *hub) *TaskStore {
	return &TaskStore{
		Collection: newCollection[service.Task, service.TaskInput](nestedTasks{tasks, listID}, TaskMessages, h),
		listID:     listID,
	}
}

// ListID returns the parent list id.
func (s *TaskStore) ListID() service.ID {
	return s.listID
}

// Toggle flips a task's status and submits the full task.
func (s *TaskStore) Toggle(ctx context.Context, id service.ID) (service.Task, error) {
	t, ok := s.Find(id)
	if !ok {
		return service.Task{}, fmt.Errorf("task %s: %w", id, service.ErrNotFound)
	}
	in := service.InputFromTask(t)
	in.Status = t.Status.Toggle()
	return s.Update(ctx, id, in)
}

// nestedTasks binds the tasks of one list to the Remote interface.
type nestedTasks struct {
	tasks  service.Tasks
	listID service.ID
}

func (n nestedTasks) GetAll(ctx context.Context) ([]service.Task, error) {
	return n.tasks.GetAll(ctx, n.listID)
}

func (n nestedTasks) Create(ctx context.Context, in service.TaskInput) (service.Task, error) {
	return n.tasks.Create(ctx, n.listID, in)
}

func (n nestedTasks) Update(ctx context.Context, id service.ID, in service.TaskInput) (service.Task, error) {
	return n.tasks.Update(ctx, n.listID, id, in)
}

func (n nestedTasks) Delete(ctx context.Context, id service.ID) error {
	return n.tasks.Delete(ctx, n.listID, id)
}
