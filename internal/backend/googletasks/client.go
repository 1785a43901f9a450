// Package googletasks implements the resource clients on top of the Google Tasks API.
//
// Google Tasks has no task priority and no list description. Priority is kept
// as a trailing "[priority:X]" line in the task notes; list descriptions are
// not stored. Task counts and progress are derived here from the list's tasks.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"tasktracker/internal/config"
	"tasktracker/internal/logging"
	"tasktracker/internal/service"
	"tasktracker/internal/transport"
)

const (
	// PageSize is the number of items requested per page.
	PageSize = 100

	// APITimeout is the default timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	// fetchConcurrency bounds parallel task fetches when listing lists.
	fetchConcurrency = 4

	statusNeedsAction = "needsAction"
	statusCompleted   = "completed"

	priorityPrefix = "[priority:"
)

// Client talks to Google Tasks.
type Client struct {
	svc     *tasks.Service
	timeout time.Duration
	logger  *log.Logger
}

// New creates a client from oauth_client.json and token.json in cfg.Dir.
// onUnauthorized runs for every 401 response.
func New(ctx context.Context, cfg *config.Config, onUnauthorized func(), logger *log.Logger) (*Client, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}

	// Refreshes transparently while the refresh token is valid.
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))
	httpClient.Transport = transport.WithUnauthorizedHook(httpClient.Transport, func(*http.Request) {
		if onUnauthorized != nil {
			onUnauthorized()
		}
	})

	c, err := NewWithHTTPClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	c.timeout = cfg.Timeout
	c.logger = logger
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc, timeout: APITimeout, logger: logging.Discard()}, nil
}

// Service returns the resource clients. Auth is nil: login happens through
// the OAuth browser flow.
func (c *Client) Service() *service.Service {
	return &service.Service{
		Lists: &ListClient{c: c},
		Tasks: &TaskClient{c: c},
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.timeout
	if timeout <= 0 {
		timeout = APITimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// ListClient implements service.TaskLists.
type ListClient struct {
	c *Client
}

// GetAll returns every list with its tasks, count and progress.
func (l *ListClient) GetAll(ctx context.Context) ([]service.TaskList, error) {
	ctx, cancel := l.c.withTimeout(ctx)
	defer cancel()

	var raw []*tasks.TaskList
	err := l.c.svc.Tasklists.List().MaxResults(PageSize).Pages(ctx, func(resp *tasks.TaskLists) error {
		raw = append(raw, resp.Items...)
		return nil
	})
	if err != nil {
		return nil, wrapError(http.MethodGet, "users/@me/lists", err)
	}

	result := make([]service.TaskList, len(raw))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, gl := range raw {
		i, gl := i, gl
		g.Go(func() error {
			items, err := l.c.listTasks(gctx, gl.Id)
			if err != nil {
				return err
			}
			result[i] = toList(gl, items)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	l.c.logger.Debug("fetched task lists", "count", len(result))
	return result, nil
}

// GetByID returns one list with its tasks.
func (l *ListClient) GetByID(ctx context.Context, id service.ID) (service.TaskList, error) {
	ctx, cancel := l.c.withTimeout(ctx)
	defer cancel()

	gl, err := l.c.svc.Tasklists.Get(id.String()).Context(ctx).Do()
	if err != nil {
		return service.TaskList{}, wrapError(http.MethodGet, "users/@me/lists/"+id.String(), err)
	}
	items, err := l.c.listTasks(ctx, gl.Id)
	if err != nil {
		return service.TaskList{}, err
	}
	return toList(gl, items), nil
}

// Create inserts a list. New lists have no tasks.
func (l *ListClient) Create(ctx context.Context, in service.TaskListInput) (service.TaskList, error) {
	ctx, cancel := l.c.withTimeout(ctx)
	defer cancel()

	gl, err := l.c.svc.Tasklists.Insert(&tasks.TaskList{Title: in.Title}).Context(ctx).Do()
	if err != nil {
		return service.TaskList{}, wrapError(http.MethodPost, "users/@me/lists", err)
	}
	return toList(gl, nil), nil
}

// Update replaces the list title and returns the list with its tasks.
func (l *ListClient) Update(ctx context.Context, id service.ID, in service.TaskListInput) (service.TaskList, error) {
	ctx, cancel := l.c.withTimeout(ctx)
	defer cancel()

	gl, err := l.c.svc.Tasklists.Update(id.String(), &tasks.TaskList{Id: id.String(), Title: in.Title}).Context(ctx).Do()
	if err != nil {
		return service.TaskList{}, wrapError(http.MethodPut, "users/@me/lists/"+id.String(), err)
	}
	items, err := l.c.listTasks(ctx, gl.Id)
	if err != nil {
		return service.TaskList{}, err
	}
	return toList(gl, items), nil
}

// Delete removes a list and its tasks.
func (l *ListClient) Delete(ctx context.Context, id service.ID) error {
	ctx, cancel := l.c.withTimeout(ctx)
	defer cancel()

	if err := l.c.svc.Tasklists.Delete(id.String()).Context(ctx).Do(); err != nil {
		return wrapError(http.MethodDelete, "users/@me/lists/"+id.String(), err)
	}
	return nil
}

// TaskClient implements service.Tasks.
type TaskClient struct {
	c *Client
}

// GetAll returns the tasks of a list, completed and hidden ones included.
func (t *TaskClient) GetAll(ctx context.Context, listID service.ID) ([]service.Task, error) {
	ctx, cancel := t.c.withTimeout(ctx)
	defer cancel()

	items, err := t.c.listTasks(ctx, listID.String())
	if err != nil {
		return nil, err
	}
	result := make([]service.Task, 0, len(items))
	for _, gt := range items {
		result = append(result, toTask(listID, gt))
	}
	return result, nil
}

func (t *TaskClient) GetByID(ctx context.Context, listID, taskID service.ID) (service.Task, error) {
	ctx, cancel := t.c.withTimeout(ctx)
	defer cancel()

	gt, err := t.c.svc.Tasks.Get(listID.String(), taskID.String()).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(http.MethodGet, taskPath(listID, taskID), err)
	}
	return toTask(listID, gt), nil
}

func (t *TaskClient) Create(ctx context.Context, listID service.ID, in service.TaskInput) (service.Task, error) {
	ctx, cancel := t.c.withTimeout(ctx)
	defer cancel()

	gt, err := t.c.svc.Tasks.Insert(listID.String(), fromInput(in)).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(http.MethodPost, "lists/"+listID.String()+"/tasks", err)
	}
	return toTask(listID, gt), nil
}

func (t *TaskClient) Update(ctx context.Context, listID, taskID service.ID, in service.TaskInput) (service.Task, error) {
	ctx, cancel := t.c.withTimeout(ctx)
	defer cancel()

	body := fromInput(in)
	body.Id = taskID.String()
	gt, err := t.c.svc.Tasks.Update(listID.String(), taskID.String(), body).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(http.MethodPut, taskPath(listID, taskID), err)
	}
	return toTask(listID, gt), nil
}

func (t *TaskClient) Delete(ctx context.Context, listID, taskID service.ID) error {
	ctx, cancel := t.c.withTimeout(ctx)
	defer cancel()

	if err := t.c.svc.Tasks.Delete(listID.String(), taskID.String()).Context(ctx).Do(); err != nil {
		return wrapError(http.MethodDelete, taskPath(listID, taskID), err)
	}
	return nil
}

func taskPath(listID, taskID service.ID) string {
	return "lists/" + listID.String() + "/tasks/" + taskID.String()
}

// listTasks pages through every task of a list in API order.
func (c *Client) listTasks(ctx context.Context, listID string) ([]*tasks.Task, error) {
	var items []*tasks.Task
	err := c.svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			items = append(items, resp.Items...)
			return nil
		})
	if err != nil {
		return nil, wrapError(http.MethodGet, "lists/"+listID+"/tasks", err)
	}
	return items, nil
}

func toList(gl *tasks.TaskList, items []*tasks.Task) service.TaskList {
	id := service.ID(gl.Id)
	list := service.TaskList{
		ID:    id,
		Title: gl.Title,
		Tasks: make([]service.Task, 0, len(items)),
	}
	closed := 0
	for _, gt := range items {
		t := toTask(id, gt)
		if t.Status == service.StatusClosed {
			closed++
		}
		list.Tasks = append(list.Tasks, t)
	}
	list.Count = len(list.Tasks)
	if list.Count > 0 {
		list.Progress = float64(closed) / float64(list.Count)
	}
	return list
}

func toTask(listID service.ID, gt *tasks.Task) service.Task {
	desc, priority := splitNotes(gt.Notes)
	t := service.Task{
		ID:          service.ID(gt.Id),
		ListID:      listID,
		Title:       gt.Title,
		Description: desc,
		Status:      service.StatusOpen,
		Priority:    priority,
	}
	if gt.Status == statusCompleted {
		t.Status = service.StatusClosed
	}
	if gt.Due != "" {
		if due, err := time.Parse(time.RFC3339, gt.Due); err == nil {
			due = due.UTC()
			t.DueDate = &due
		}
	}
	return t
}

func fromInput(in service.TaskInput) *tasks.Task {
	gt := &tasks.Task{
		Title:  in.Title,
		Notes:  joinNotes(in.Description, in.Priority),
		Status: statusNeedsAction,
	}
	if in.Status == service.StatusClosed {
		gt.Status = statusCompleted
	}
	if in.DueDate != nil {
		// Google keeps only the date part of due.
		gt.Due = in.DueDate.UTC().Truncate(24 * time.Hour).Format(time.RFC3339)
	}
	return gt
}

// joinNotes appends the priority marker. The default priority is not written.
func joinNotes(desc string, p service.Priority) string {
	if p == "" || p == service.DefaultPriority {
		return desc
	}
	marker := priorityPrefix + string(p) + "]"
	if desc == "" {
		return marker
	}
	return desc + "\n" + marker
}

// splitNotes separates a trailing priority marker from the description.
func splitNotes(notes string) (string, service.Priority) {
	i := strings.LastIndex(notes, priorityPrefix)
	if i < 0 || !strings.HasSuffix(notes, "]") {
		return notes, service.DefaultPriority
	}
	p, err := service.ParsePriority(notes[i+len(priorityPrefix) : len(notes)-1])
	if err != nil {
		return notes, service.DefaultPriority
	}
	return strings.TrimSuffix(notes[:i], "\n"), p
}

// wrapError converts API errors into transport errors so callers can treat
// both backends alike.
func wrapError(method, path string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: request timed out: %w", method, path, err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &transport.StatusError{
			Status: gerr.Code,
			Method: method,
			Path:   path,
			Body:   gerr.Message,
		}
	}
	return fmt.Errorf("%s %s: %w", method, path, err)
}
