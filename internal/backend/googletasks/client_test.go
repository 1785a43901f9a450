package googletasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"tasktracker/internal/service"
	"tasktracker/internal/transport"
)

// fakeGoogle serves a tiny subset of the Tasks API from memory.
type fakeGoogle struct {
	mu    sync.Mutex
	lists []*tasks.TaskList
	tasks map[string][]*tasks.Task
	last  *tasks.Task
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/tasks/v1/")
	parts := strings.Split(path, "/")
	switch {
	case r.Method == http.MethodGet && path == "users/@me/lists":
		writeJSON(w, &tasks.TaskLists{Items: f.lists})
	case r.Method == http.MethodGet && len(parts) == 4 && parts[2] == "lists":
		for _, l := range f.lists {
			if l.Id == parts[3] {
				writeJSON(w, l)
				return
			}
		}
		notFound(w)
	case r.Method == http.MethodPost && path == "users/@me/lists":
		var l tasks.TaskList
		json.NewDecoder(r.Body).Decode(&l)
		l.Id = "new-list"
		f.lists = append(f.lists, &l)
		writeJSON(w, &l)
	case r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "tasks":
		items, ok := f.tasks[parts[1]]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, &tasks.Tasks{Items: items})
	case r.Method == http.MethodPut && len(parts) == 4 && parts[2] == "tasks":
		var t tasks.Task
		json.NewDecoder(r.Body).Decode(&t)
		f.last = &t
		writeJSON(w, &t)
	case r.Method == http.MethodDelete && len(parts) == 4 && parts[2] == "tasks":
		if parts[3] == "expired" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]any{"error": map[string]any{"code": 401, "message": "invalid credentials"}})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		notFound(w)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 404, "message": "not found"}})
}

func newTestClient(t *testing.T, f *fakeGoogle, httpClient *http.Client) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	if httpClient == nil {
		httpClient = srv.Client()
	}
	c, err := NewWithHTTPClient(context.Background(), httpClient, option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestGetAll_DerivesCountAndProgress(t *testing.T) {
	f := &fakeGoogle{
		lists: []*tasks.TaskList{{Id: "L1", Title: "Home"}, {Id: "L2", Title: "Work"}},
		tasks: map[string][]*tasks.Task{
			"L1": {
				{Id: "a", Title: "Dishes", Status: statusCompleted},
				{Id: "b", Title: "Laundry", Status: statusNeedsAction, Notes: "whites\n[priority:HIGH]", Due: "2024-05-01T00:00:00.000Z"},
			},
			"L2": {},
		},
	}
	svc := newTestClient(t, f, nil).Service()

	lists, err := svc.Lists.GetAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lists) != 2 || lists[0].Title != "Home" || lists[1].Title != "Work" {
		t.Fatalf("unexpected lists: %+v", lists)
	}
	home := lists[0]
	if home.Count != 2 || home.Progress != 0.5 {
		t.Errorf("expected count 2 progress 0.5, got %d %v", home.Count, home.Progress)
	}
	if home.Tasks[0].Status != service.StatusClosed {
		t.Errorf("expected completed task to be CLOSED, got %s", home.Tasks[0].Status)
	}
	laundry := home.Tasks[1]
	if laundry.Priority != service.PriorityHigh || laundry.Description != "whites" {
		t.Errorf("expected priority split from notes, got %q %q", laundry.Priority, laundry.Description)
	}
	want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if laundry.DueDate == nil || !laundry.DueDate.Equal(want) {
		t.Errorf("expected due %v, got %v", want, laundry.DueDate)
	}
	if lists[1].Count != 0 || lists[1].Progress != 0 {
		t.Errorf("expected empty list, got %+v", lists[1])
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestClient(t, &fakeGoogle{}, nil).Service()

	_, err := svc.Lists.GetByID(context.Background(), "missing")
	if !transport.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCreateList(t *testing.T) {
	f := &fakeGoogle{tasks: map[string][]*tasks.Task{}}
	svc := newTestClient(t, f, nil).Service()

	l, err := svc.Lists.Create(context.Background(), service.TaskListInput{Title: "Errands"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.ID != "new-list" || l.Title != "Errands" || l.Count != 0 {
		t.Errorf("unexpected list: %+v", l)
	}
}

func TestUpdateTask_SendsFullResource(t *testing.T) {
	f := &fakeGoogle{}
	svc := newTestClient(t, f, nil).Service()

	in := service.TaskInput{
		Title:    "Dishes",
		Status:   service.StatusClosed,
		Priority: service.PriorityLow,
	}
	got, err := svc.Tasks.Update(context.Background(), "L1", "a", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.last.Id != "a" || f.last.Status != statusCompleted || f.last.Notes != "[priority:LOW]" || f.last.Due != "" {
		t.Errorf("unexpected request body: %+v", f.last)
	}
	if got.ListID != "L1" || got.Priority != service.PriorityLow || got.Status != service.StatusClosed {
		t.Errorf("unexpected task: %+v", got)
	}
}

func TestDelete_UnauthorizedRunsHook(t *testing.T) {
	var ended int
	httpClient := &http.Client{Transport: transport.WithUnauthorizedHook(http.DefaultTransport, func(*http.Request) { ended++ })}
	svc := newTestClient(t, &fakeGoogle{}, httpClient).Service()

	err := svc.Tasks.Delete(context.Background(), "L1", "expired")
	if !transport.IsUnauthorized(err) {
		t.Errorf("expected unauthorized, got %v", err)
	}
	if ended != 1 {
		t.Errorf("expected hook to run once, got %d", ended)
	}
}

func TestNotes(t *testing.T) {
	tests := []struct {
		desc     string
		priority service.Priority
		notes    string
	}{
		{"", service.PriorityMedium, ""},
		{"milk", service.PriorityMedium, "milk"},
		{"", service.PriorityHigh, "[priority:HIGH]"},
		{"milk", service.PriorityLow, "milk\n[priority:LOW]"},
	}
	for _, tt := range tests {
		notes := joinNotes(tt.desc, tt.priority)
		if notes != tt.notes {
			t.Errorf("joinNotes(%q, %s): expected %q, got %q", tt.desc, tt.priority, tt.notes, notes)
		}
		desc, p := splitNotes(notes)
		if desc != tt.desc || p != tt.priority {
			t.Errorf("splitNotes(%q): expected %q %s, got %q %s", notes, tt.desc, tt.priority, desc, p)
		}
	}

	if desc, p := splitNotes("see [priority:URGENT]"); desc != "see [priority:URGENT]" || p != service.PriorityMedium {
		t.Errorf("unknown marker should stay in the description, got %q %s", desc, p)
	}
}
