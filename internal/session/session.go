// Package session owns the process-wide authentication state: the bearer token
// and the user it belongs to.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"tasktracker/internal/service"
)

// ErrNoSession is returned when no session is stored.
var ErrNoSession = errors.New("not logged in")

// Session is the stored credential.
type Session struct {
	Token string       `json:"token"`
	User  service.User `json:"user"`
}

// Username returns the stored username, falling back to the token's
// username or sub claim when the server did not provide one.
func (s Session) Username() string {
	if s.User.Username != "" {
		return s.User.Username
	}
	return UsernameFromToken(s.Token)
}

// Reason describes why a session ended.
type Reason string

const (
	// ReasonUnauthorized means the server rejected the token.
	ReasonUnauthorized Reason = "unauthorized"

	// ReasonLogout means the user logged out.
	ReasonLogout Reason = "logout"
)

// Storage persists a session durably.
type Storage interface {
	// Load returns the stored session; ok is false when none is stored.
	Load() (s Session, ok bool, err error)
	Save(s Session) error
	// Remove deletes the stored session. Removing an absent session is not an error.
	Remove() error
}

// Manager mediates all access to the stored session and publishes
// "session ended" events to subscribers.
type Manager struct {
	store Storage

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Reason)
}

// NewManager creates a Manager over the given storage.
func NewManager(store Storage) *Manager {
	return &Manager{
		store: store,
		subs:  make(map[int]func(Reason)),
	}
}

// Get returns the current session or ErrNoSession.
func (m *Manager) Get() (Session, error) {
	s, ok, err := m.store.Load()
	if err != nil {
		return Session{}, err
	}
	if !ok || s.Token == "" {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Token returns the current bearer token, or "" when logged out.
func (m *Manager) Token() (string, error) {
	s, err := m.Get()
	if errors.Is(err, ErrNoSession) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.Token, nil
}

// Set stores a new session. A "Bearer " prefix on the token is stripped.
func (m *Manager) Set(s Session) error {
	s.Token = stripBearer(strings.TrimSpace(s.Token))
	if s.Token == "" {
		return fmt.Errorf("empty token")
	}
	return m.store.Save(s)
}

// Clear removes the stored session without notifying subscribers.
// Clearing an absent session is a no-op.
func (m *Manager) Clear() error {
	return m.store.Remove()
}

// End clears the session and notifies every subscriber.
// Subscribers are notified even if no session was stored.
func (m *Manager) End(reason Reason) error {
	err := m.store.Remove()

	m.mu.Lock()
	subs := make([]func(Reason), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(reason)
	}
	return err
}

// Subscribe registers fn to run when the session ends.
// The returned function removes the subscription.
func (m *Manager) Subscribe(fn func(Reason)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// UsernameFromToken extracts the username (or sub) claim from a JWT without
// verifying it. The server remains the only authority on validity.
func UsernameFromToken(token string) string {
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	if name, ok := claims["username"].(string); ok && name != "" {
		return name
	}
	sub, _ := claims.GetSubject()
	return sub
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
