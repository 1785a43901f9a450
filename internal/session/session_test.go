package session_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"tasktracker/internal/service"
	"tasktracker/internal/session"
)

func TestManager_GetWithoutSession(t *testing.T) {
	m := session.NewManager(&session.MemoryStorage{})

	_, err := m.Get()
	if !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}

	tok, err := m.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "" {
		t.Errorf("expected empty token, got %q", tok)
	}
}

func TestManager_SetStripsBearer(t *testing.T) {
	m := session.NewManager(&session.MemoryStorage{})

	if err := m.Set(session.Session{Token: "Bearer abc.def.ghi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tok, _ := m.Token()
	if tok != "abc.def.ghi" {
		t.Errorf("expected stripped token, got %q", tok)
	}
}

func TestManager_SetRejectsEmpty(t *testing.T) {
	m := session.NewManager(&session.MemoryStorage{})

	if err := m.Set(session.Session{Token: "  "}); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestManager_EndNotifiesSubscribers(t *testing.T) {
	store := &session.MemoryStorage{}
	m := session.NewManager(store)
	_ = m.Set(session.Session{Token: "t1"})

	var got []session.Reason
	m.Subscribe(func(r session.Reason) { got = append(got, r) })

	if err := m.End(session.ReasonUnauthorized); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.End(session.ReasonUnauthorized); err != nil {
		t.Fatalf("unexpected error on second end: %v", err)
	}

	if store.Removals != 1 {
		t.Errorf("expected token cleared once, got %d", store.Removals)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 notifications, got %d", len(got))
	}
	if _, err := m.Get(); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected session gone, got %v", err)
	}
}

func TestManager_ClearDoesNotNotify(t *testing.T) {
	m := session.NewManager(&session.MemoryStorage{})
	_ = m.Set(session.Session{Token: "t1"})

	called := false
	m.Subscribe(func(session.Reason) { called = true })

	if err := m.Clear(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Error("Clear should not notify subscribers")
	}
}

func TestManager_Unsubscribe(t *testing.T) {
	m := session.NewManager(&session.MemoryStorage{})

	calls := 0
	unsubscribe := m.Subscribe(func(session.Reason) { calls++ })
	unsubscribe()

	_ = m.End(session.ReasonLogout)
	if calls != 0 {
		t.Errorf("expected no calls after unsubscribe, got %d", calls)
	}
}

func TestFileStorage_RoundTripAndMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	m := session.NewManager(session.NewFileStorage(path))

	want := session.Session{Token: "tok", User: service.User{Username: "ada"}}
	if err := m.Set(want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("session file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
	}

	got, err := m.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Token != want.Token || got.User.Username != "ada" {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected session file removed, stat err = %v", err)
	}
	if err := m.Clear(); err != nil {
		t.Errorf("clearing absent session should be a no-op, got %v", err)
	}
}

func TestFileStorage_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := session.NewManager(session.NewFileStorage(path)).Get()
	if err == nil || errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestSession_UsernameFallsBackToClaims(t *testing.T) {
	signed := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	tests := []struct {
		name string
		sess session.Session
		want string
	}{
		{"stored user wins", session.Session{Token: signed(jwt.MapClaims{"username": "x"}), User: service.User{Username: "ada"}}, "ada"},
		{"username claim", session.Session{Token: signed(jwt.MapClaims{"username": "grace"})}, "grace"},
		{"sub claim", session.Session{Token: signed(jwt.MapClaims{"sub": "linus"})}, "linus"},
		{"opaque token", session.Session{Token: "not-a-jwt"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sess.Username(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
