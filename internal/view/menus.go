package view

import "tasktracker/internal/service"

// Menus tracks the per-row contextual menu. At most one is open at a time.
// The zero value has every menu closed.
type Menus struct {
	open service.ID
}

// Toggle opens the menu for id, closing any other, or closes it if already open.
func (m *Menus) Toggle(id service.ID) {
	if m.open == id {
		m.open = ""
		return
	}
	m.open = id
}

// Close closes any open menu.
func (m *Menus) Close() {
	m.open = ""
}

// IsOpen reports whether the menu for id is open.
func (m *Menus) IsOpen(id service.ID) bool {
	return !id.IsZero() && m.open == id
}

// Open returns the id of the open menu, if any.
func (m *Menus) Open() (service.ID, bool) {
	return m.open, !m.open.IsZero()
}
