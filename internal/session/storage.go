package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage keeps the session in a JSON file readable only by its owner.
type FileStorage struct {
	Path string
}

// NewFileStorage returns storage backed by path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

// Load implements Storage.
func (f *FileStorage) Load() (Session, bool, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, false, nil
		}
		return Session{}, false, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, false, fmt.Errorf("parse session: %w", err)
	}
	return s, true, nil
}

// Save implements Storage.
func (f *FileStorage) Save(s Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(f.Path, b, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Remove implements Storage.
func (f *FileStorage) Remove() error {
	if err := os.Remove(f.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// MemoryStorage is an in-process Storage, used by tests and the TUI preview.
type MemoryStorage struct {
	mu      sync.Mutex
	session *Session

	// Removals counts calls to Remove that found a stored session.
	Removals int
}

// Load implements Storage.
func (m *MemoryStorage) Load() (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false, nil
	}
	return *m.session, true, nil
}

// Save implements Storage.
func (m *MemoryStorage) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	return nil
}

// Remove implements Storage.
func (m *MemoryStorage) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.Removals++
	}
	m.session = nil
	return nil
}
