// Package service defines the backend-agnostic interfaces and types for task operations.
package service

import (
	"context"
	"errors"
)

// ErrNotFound is returned by backends that do not speak HTTP when an entity is missing.
var ErrNotFound = errors.New("not found")

// TaskLists is the resource client for the top-level task list collection.
// Implementations perform no retries, caching or validation; every error is
// returned to the caller unchanged.
type TaskLists interface {
	// GetAll returns all task lists in server order.
	GetAll(ctx context.Context) ([]TaskList, error)

	// GetByID returns one task list.
	GetByID(ctx context.Context, id ID) (TaskList, error)

	// Create creates a task list and returns it with its server-assigned ID.
	Create(ctx context.Context, in TaskListInput) (TaskList, error)

	// Update replaces a task list.
	Update(ctx context.Context, id ID, in TaskListInput) (TaskList, error)

	// Delete removes a task list.
	Delete(ctx context.Context, id ID) error
}

// Tasks is the resource client for the task collection nested under a list.
// Every method takes the parent list ID first.
type Tasks interface {
	GetAll(ctx context.Context, listID ID) ([]Task, error)
	GetByID(ctx context.Context, listID, taskID ID) (Task, error)
	Create(ctx context.Context, listID ID, in TaskInput) (Task, error)
	Update(ctx context.Context, listID, taskID ID, in TaskInput) (Task, error)
	Delete(ctx context.Context, listID, taskID ID) error
}

// Auth covers the authentication endpoints.
type Auth interface {
	Login(ctx context.Context, creds Credentials) (AuthResult, error)
	Register(ctx context.Context, reg Registration) (AuthResult, error)
	Me(ctx context.Context) (User, error)
}

// Service bundles the resource clients a view needs.
// Commands never import a backend package directly.
type Service struct {
	Lists TaskLists
	Tasks Tasks

	// Auth is nil for backends that authenticate out of band.
	Auth Auth
}
