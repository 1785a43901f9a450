// Package rest implements the service resource clients over the task-list REST API.
//
// Path construction is the only logic here: no retries, caching or validation.
package rest

import (
	"context"
	"net/http"
	"net/url"

	"tasktracker/internal/service"
)

// Doer performs one JSON request. *transport.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// New returns a service backed by the REST API.
func New(d Doer) *service.Service {
	return &service.Service{
		Lists: &TaskListClient{d: d},
		Tasks: &TaskClient{d: d},
		Auth:  &AuthClient{d: d},
	}
}

func listPath(id service.ID) string {
	return "/task-lists/" + url.PathEscape(id.String())
}

func tasksPath(listID service.ID) string {
	return listPath(listID) + "/tasks"
}

func taskPath(listID, taskID service.ID) string {
	return tasksPath(listID) + "/" + url.PathEscape(taskID.String())
}

// TaskListClient implements service.TaskLists.
type TaskListClient struct {
	d Doer
}

// GetAll implements service.TaskLists.
func (c *TaskListClient) GetAll(ctx context.Context) ([]service.TaskList, error) {
	var out []service.TaskList
	if err := c.d.Do(ctx, http.MethodGet, "/task-lists", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID implements service.TaskLists.
func (c *TaskListClient) GetByID(ctx context.Context, id service.ID) (service.TaskList, error) {
	var out service.TaskList
	err := c.d.Do(ctx, http.MethodGet, listPath(id), nil, &out)
	return out, err
}

// Create implements service.TaskLists.
func (c *TaskListClient) Create(ctx context.Context, in service.TaskListInput) (service.TaskList, error) {
	in.ID = ""
	var out service.TaskList
	err := c.d.Do(ctx, http.MethodPost, "/task-lists", in, &out)
	return out, err
}

// Update implements service.TaskLists. The id is sent in both path and body.
func (c *TaskListClient) Update(ctx context.Context, id service.ID, in service.TaskListInput) (service.TaskList, error) {
	in.ID = id
	var out service.TaskList
	err := c.d.Do(ctx, http.MethodPut, listPath(id), in, &out)
	return out, err
}

// Delete implements service.TaskLists.
func (c *TaskListClient) Delete(ctx context.Context, id service.ID) error {
	return c.d.Do(ctx, http.MethodDelete, listPath(id), nil, nil)
}

// TaskClient implements service.Tasks.
type TaskClient struct {
	d Doer
}

// GetAll implements service.Tasks.
func (c *TaskClient) GetAll(ctx context.Context, listID service.ID) ([]service.Task, error) {
	var out []service.Task
	if err := c.d.Do(ctx, http.MethodGet, tasksPath(listID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID implements service.Tasks.
func (c *TaskClient) GetByID(ctx context.Context, listID, taskID service.ID) (service.Task, error) {
	var out service.Task
	err := c.d.Do(ctx, http.MethodGet, taskPath(listID, taskID), nil, &out)
	return out, err
}

// Create implements service.Tasks.
func (c *TaskClient) Create(ctx context.Context, listID service.ID, in service.TaskInput) (service.Task, error) {
	in.ID = ""
	in.ListID = ""
	var out service.Task
	err := c.d.Do(ctx, http.MethodPost, tasksPath(listID), in, &out)
	return out, err
}

// Update implements service.Tasks. The full task is sent.
func (c *TaskClient) Update(ctx context.Context, listID, taskID service.ID, in service.TaskInput) (service.Task, error) {
	in.ID = taskID
	in.ListID = listID
	var out service.Task
	err := c.d.Do(ctx, http.MethodPut, taskPath(listID, taskID), in, &out)
	return out, err
}

// Delete implements service.Tasks.
func (c *TaskClient) Delete(ctx context.Context, listID, taskID service.ID) error {
	return c.d.Do(ctx, http.MethodDelete, taskPath(listID, taskID), nil, nil)
}

// AuthClient implements service.Auth.
type AuthClient struct {
	d Doer
}

// Login implements service.Auth.
func (c *AuthClient) Login(ctx context.Context, creds service.Credentials) (service.AuthResult, error) {
	var out service.AuthResult
	err := c.d.Do(ctx, http.MethodPost, "/auth/login", creds, &out)
	return out, err
}

// Register implements service.Auth.
func (c *AuthClient) Register(ctx context.Context, reg service.Registration) (service.AuthResult, error) {
	var out service.AuthResult
	err := c.d.Do(ctx, http.MethodPost, "/auth/register", reg, &out)
	return out, err
}

// Me implements service.Auth. The server answers {user: {...}}.
func (c *AuthClient) Me(ctx context.Context) (service.User, error) {
	var out struct {
		User service.User `json:"user"`
	}
	err := c.d.Do(ctx, http.MethodGet, "/auth/me", nil, &out)
	return out.User, err
}
