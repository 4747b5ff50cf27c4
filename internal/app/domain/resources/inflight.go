package resources

import (
	"context"
	"sync"
)

// Tracker keeps at most one list fetch in flight per key. Starting a new fetch cancels the
// one it supersedes.
type Tracker struct {
	mu      sync.Mutex
	next    uint64
	pending map[string]inflight
}

type inflight struct {
	token  uint64
	cancel context.CancelFunc
}

func NewTracker() *Tracker {
	return &Tracker{pending: make(map[string]inflight)}
}

// Begin returns a context for the fetch identified by key and a done func that must be
// called when the fetch finishes.
func (t *Tracker) Begin(parent context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	if prev, ok := t.pending[key]; ok {
		prev.cancel()
	}
	t.next++
	token := t.next
	t.pending[key] = inflight{token: token, cancel: cancel}
	t.mu.Unlock()

	return ctx, func() {
		t.mu.Lock()
		if cur, ok := t.pending[key]; ok && cur.token == token {
			delete(t.pending, key)
		}
		t.mu.Unlock()
		cancel()
	}
}

// Len is the number of fetches in flight.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// TrackerKey scopes fetches to one browser page of one staff member.
func TrackerKey(sessionID int64, pageInstance, slug string) string {
	return slug + "|" + pageInstance + "|" + itoa(sessionID)
}
