package transport_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tasktracker/internal/session"
	"tasktracker/internal/transport"
)

func newManager(t *testing.T, token string) (*session.Manager, *session.MemoryStorage) {
	t.Helper()
	store := &session.MemoryStorage{}
	m := session.NewManager(store)
	if token != "" {
		if err := m.Set(session.Session{Token: token}); err != nil {
			t.Fatalf("set session: %v", err)
		}
	}
	return m, store
}

func TestDo_SetsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	m, _ := newManager(t, "tok-1")
	c := transport.New(transport.Options{BaseURL: srv.URL + "/", Session: m})

	var out struct{ OK bool }
	if err := c.Do(context.Background(), http.MethodGet, "/task-lists", nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.OK {
		t.Error("expected decoded body")
	}
	if v := got.Get("Authorization"); v != "Bearer tok-1" {
		t.Errorf("expected bearer header, got %q", v)
	}
	if v := got.Get("Content-Type"); v != "application/json" {
		t.Errorf("expected json content type, got %q", v)
	}
	if got.Get(transport.HeaderRequestID) == "" {
		t.Error("expected request id header")
	}
}

func TestDo_NoTokenNoHeader(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m, _ := newManager(t, "")
	c := transport.New(transport.Options{BaseURL: srv.URL, Session: m})

	if err := c.Do(context.Background(), http.MethodDelete, "/task-lists/1", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "" {
		t.Errorf("expected no Authorization header, got %q", auth)
	}
}

func TestDo_TokenReadPerRequest(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m, _ := newManager(t, "first")
	c := transport.New(transport.Options{BaseURL: srv.URL, Session: m})

	_ = c.Do(context.Background(), http.MethodGet, "/a", nil, nil)
	_ = m.Set(session.Session{Token: "second"})
	_ = c.Do(context.Background(), http.MethodGet, "/b", nil, nil)

	if len(seen) != 2 || seen[0] != "Bearer first" || seen[1] != "Bearer second" {
		t.Errorf("expected token to be read per request, got %v", seen)
	}
}

func TestDo_SendsJSONBody(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7}`))
	}))
	defer srv.Close()

	c := transport.New(transport.Options{BaseURL: srv.URL})

	var out struct{ ID int }
	err := c.Do(context.Background(), http.MethodPost, "/task-lists", map[string]string{"title": "A"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["title"] != "A" {
		t.Errorf("expected title in body, got %v", body)
	}
	if out.ID != 7 {
		t.Errorf("expected id 7, got %d", out.ID)
	}
}

func TestDo_UnauthorizedEndsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	m, store := newManager(t, "expired")
	var redirects int32
	m.Subscribe(func(r session.Reason) {
		if r == session.ReasonUnauthorized {
			atomic.AddInt32(&redirects, 1)
		}
	})
	c := transport.New(transport.Options{BaseURL: srv.URL, Session: m})

	for _, path := range []string{"/task-lists", "/task-lists/1/tasks"} {
		err := c.Do(context.Background(), http.MethodGet, path, nil, nil)
		if !transport.IsUnauthorized(err) {
			t.Errorf("%s: expected unauthorized error, got %v", path, err)
		}
	}

	if store.Removals != 1 {
		t.Errorf("expected token cleared once, got %d", store.Removals)
	}
	if n := atomic.LoadInt32(&redirects); n != 2 {
		t.Errorf("expected a redirect per 401, got %d", n)
	}
	if tok, _ := m.Token(); tok != "" {
		t.Errorf("expected token cleared, got %q", tok)
	}
}

func TestDo_OtherStatusesPropagate(t *testing.T) {
	tests := []struct {
		status   int
		notFound bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusForbidden, false},
		{http.StatusNotFound, true},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			m, store := newManager(t, "tok")
			c := transport.New(transport.Options{BaseURL: srv.URL, Session: m})

			err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
			var se *transport.StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected StatusError, got %v", err)
			}
			if se.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, se.Status)
			}
			if transport.IsNotFound(err) != tt.notFound {
				t.Errorf("IsNotFound = %v, want %v", !tt.notFound, tt.notFound)
			}
			if store.Removals != 0 {
				t.Error("session should only be cleared on 401")
			}
		})
	}
}

func TestDo_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := transport.New(transport.Options{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})

	err := c.Do(context.Background(), http.MethodGet, "/slow", nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestWithUnauthorizedHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/denied" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var paths []string
	client := &http.Client{Transport: transport.WithUnauthorizedHook(nil, func(r *http.Request) {
		paths = append(paths, r.URL.Path)
	})}

	for _, p := range []string{"/ok", "/denied"} {
		resp, err := client.Get(srv.URL + p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()
	}

	if len(paths) != 1 || paths[0] != "/denied" {
		t.Errorf("expected hook only for /denied, got %v", paths)
	}
}
