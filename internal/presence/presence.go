package presence

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Juleshb/umunsiapp-realtime/internal/metrics"
)

// entry holds the live state for one user. Entries only exist while the
// refcount is positive; a missing entry means offline.
type entry struct {
	refcount int
	lastSeen time.Time
}

// Tracker derives online/offline status per user by reference-counting
// associated connections. Transitions are edge-triggered: the OnTransition
// callback fires exactly once on 0->1 and once on 1->0, never on
// intermediate count changes. This keeps a user with two tabs open online
// when one tab closes.
type Tracker struct {
	mu           sync.Mutex
	entries      map[string]*entry
	clock        clockwork.Clock
	onTransition func(userID string, online bool)
}

// NewTracker creates a tracker. onTransition may be nil; when set it is
// invoked synchronously from Increment/Decrement, so it must not block.
func NewTracker(clock clockwork.Clock, onTransition func(userID string, online bool)) *Tracker {
	return &Tracker{
		entries:      make(map[string]*entry),
		clock:        clock,
		onTransition: onTransition,
	}
}

// SetOnTransition installs the transition callback after construction.
// Used to break the wiring cycle between tracker, registry, and dispatcher.
func (t *Tracker) SetOnTransition(fn func(userID string, online bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTransition = fn
}

// Increment raises the user's refcount by one. On the 0->1 edge the entry
// is created and an online transition fires.
func (t *Tracker) Increment(userID string) {
	t.mu.Lock()
	e, exists := t.entries[userID]
	if !exists {
		e = &entry{}
		t.entries[userID] = e
	}
	e.refcount++
	e.lastSeen = t.clock.Now()
	online := len(t.entries)
	fn := t.onTransition
	t.mu.Unlock()

	if !exists {
		metrics.PresenceOnlineUsers.Set(float64(online))
		metrics.PresenceTransitionsTotal.WithLabelValues("online").Inc()
		if fn != nil {
			fn(userID, true)
		}
	}
}

// Decrement lowers the user's refcount by one. Unknown users are a no-op
// (duplicate disconnects are expected). On the 1->0 edge the entry is
// removed, last-seen is recorded, and an offline transition fires.
func (t *Tracker) Decrement(userID string) {
	t.mu.Lock()
	e, exists := t.entries[userID]
	if !exists {
		t.mu.Unlock()
		return
	}
	e.refcount--
	e.lastSeen = t.clock.Now()
	removed := e.refcount <= 0
	if removed {
		delete(t.entries, userID)
	}
	online := len(t.entries)
	fn := t.onTransition
	t.mu.Unlock()

	if removed {
		metrics.PresenceOnlineUsers.Set(float64(online))
		metrics.PresenceTransitionsTotal.WithLabelValues("offline").Inc()
		if fn != nil {
			fn(userID, false)
		}
	}
}

// IsOnline reports whether the user has at least one associated connection.
func (t *Tracker) IsOnline(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, exists := t.entries[userID]
	return exists
}

// Refcount returns the user's current connection count (0 if offline).
func (t *Tracker) Refcount(userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, exists := t.entries[userID]; exists {
		return e.refcount
	}
	return 0
}

// LastSeen returns the timestamp of the user's most recent count change.
// The second return is false if the user has never been seen online or has
// fully disconnected (entries are removed at refcount zero).
func (t *Tracker) LastSeen(userID string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, exists := t.entries[userID]; exists {
		return e.lastSeen, true
	}
	return time.Time{}, false
}

// OnlineCount returns the number of users currently online.
func (t *Tracker) OnlineCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
