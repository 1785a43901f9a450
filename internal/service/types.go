// Package service defines the backend-agnostic interfaces and types for task operations.
package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// ID is an opaque, server-assigned identifier.
// It decodes from either a JSON string or a JSON number and encodes back in
// the form it arrived in. IDs never seen on the wire encode as strings.
type ID string

// numericIDs holds the text of every ID that arrived as a JSON number.
var numericIDs sync.Map

// String returns the identifier text.
func (id ID) String() string { return string(id) }

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool { return id == "" }

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if _, ok := numericIDs.Load(string(id)); ok {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id: %s", data)
	}
	numericIDs.Store(n.String(), struct{}{})
	*id = ID(n.String())
	return nil
}

// Status is the binary completion state of a task.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusClosed
}

// Toggle returns the opposite status.
func (s Status) Toggle() Status {
	if s == StatusClosed {
		return StatusOpen
	}
	return StatusClosed
}

// Priority is the task priority.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// DefaultPriority is used when creating a task without an explicit priority.
const DefaultPriority = PriorityMedium

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority parses a priority name case-insensitively.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("invalid priority: %s", s)
	}
	return p, nil
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid status: %s", s)
	}
	return st, nil
}

// Task represents a single task item.
type Task struct {
	ID          ID         `json:"id,omitempty"`
	ListID      ID         `json:"listId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

// EntityID implements store.Entity.
func (t Task) EntityID() ID { return t.ID }

// TaskList represents a task list.
// Tasks, Count and Progress are derived by the server.
type TaskList struct {
	ID          ID      `json:"id,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Tasks       []Task  `json:"tasks,omitempty"`
	Count       int     `json:"count"`
	Progress    float64 `json:"progress"`
}

// EntityID implements store.Entity.
func (l TaskList) EntityID() ID { return l.ID }

// PercentComplete returns the progress as a rounded percentage for display.
func (l TaskList) PercentComplete() int {
	p := l.Progress
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return int(math.Round(p * 100))
}

// TaskListInput is the payload for creating or updating a task list.
type TaskListInput struct {
	ID          ID     `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TaskInput is the full task payload sent on create and update.
// DueDate is encoded as null when absent, never as an empty string.
type TaskInput struct {
	ID          ID         `json:"id,omitempty"`
	ListID      ID         `json:"listId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
}

// InputFromTask builds the full update payload for an existing task.
func InputFromTask(t Task) TaskInput {
	return TaskInput{
		ID:          t.ID,
		ListID:      t.ListID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
		Status:      t.Status,
	}
}

// User is the authenticated account.
type User struct {
	ID       ID     `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Credentials are sent to the login endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is sent to the register endpoint.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// AuthResult is returned by login and register.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ParseID converts user input into an ID.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("id required")
	}
	return ID(s), nil
}
