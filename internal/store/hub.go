package store

import (
	"sync"

	"github.com/charmbracelet/log"

	"tasktracker/internal/logging"
)

// hub is the state shared by every store bound to one view: the lock, the
// single error slot, the subscribers and the closed flag.
type hub struct {
	mu      sync.Mutex
	closed  bool
	errMsg  string
	nextSub int
	subs    map[int]func()
	logger  *log.Logger
}

func newHub(logger *log.Logger) *hub {
	if logger == nil {
		logger = logging.Discard()
	}
	return &hub{subs: make(map[int]func()), logger: logger}
}

// subscribe registers fn and returns a function removing it.
func (h *hub) subscribe(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// listeners returns the current subscribers. Caller holds h.mu.
func (h *hub) listeners() []func() {
	if h.closed {
		return nil
	}
	fns := make([]func(), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	return fns
}

// unlockAndNotify releases h.mu and then calls every subscriber.
func (h *hub) unlockAndNotify() {
	fns := h.listeners()
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// fail records msg in the error slot. An empty msg leaves the slot alone.
// Caller holds h.mu.
func (h *hub) fail(msg string, err error) {
	h.logger.Debug("request failed", "msg", msg, "err", err)
	if msg != "" {
		h.errMsg = msg
	}
}

func (h *hub) clearError() {
	h.mu.Lock()
	if h.errMsg == "" {
		h.mu.Unlock()
		return
	}
	h.errMsg = ""
	h.unlockAndNotify()
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.subs = make(map[int]func())
}
