package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store is the single point of shared, lock-guarded mutation across users.
// Each user's session is processed strictly one turn at a time via the
// per-key lock; turns for different users proceed in parallel.
type Store struct {
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	sess *Session
}

// DefaultWindow is the fixed inactivity window after which a session expires.
const DefaultWindow = 30 * time.Minute

func NewStore(window time.Duration) *Store {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Store{
		window:  window,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Window returns the inactivity window.
func (st *Store) Window() time.Duration { return st.window }

// SetClock overrides the time source, for tests.
func (st *Store) SetClock(now func() time.Time) { st.now = now }

// With runs fn while holding the per-key lock for userID, creating an Idle
// session on first use. Concurrent turns for the same user serialize here;
// the expiry sweep uses the same lock, so a session is never read mid-expiry.
// The sweeper may evict an entry between acquire and lock, so after locking
// the entry is re-checked against the map and re-acquired on a mismatch; a
// turn never runs on an evicted entry.
func (st *Store) With(userID string, fn func(*Session) error) error {
	for {
		e := st.acquire(userID)
		e.mu.Lock()
		if st.current(userID, e) {
			defer e.mu.Unlock()
			return fn(e.sess)
		}
		e.mu.Unlock()
	}
}

// current reports whether e is still the live entry for userID.
func (st *Store) current(userID string, e *entry) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.entries[userID] == e
}

// Seed installs a previously persisted session if none is live, used to
// restore in-flight conversations after a restart.
func (st *Store) Seed(sess *Session) {
	if sess == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.entries[sess.UserID]; !ok {
		st.entries[sess.UserID] = &entry{sess: sess}
	}
}

// Remove tears down the session for userID.
func (st *Store) Remove(userID string) {
	st.mu.Lock()
	delete(st.entries, userID)
	st.mu.Unlock()
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries)
}

func (st *Store) acquire(userID string) *entry {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[userID]
	if !ok {
		e = &entry{sess: New(userID)}
		st.entries[userID] = e
	}
	return e
}

// RunSweeper periodically evicts sessions that sat past the inactivity
// window. Each candidate is checked under its per-key lock, the same
// discipline live turns use. Returns when ctx is cancelled.
func (st *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			st.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (st *Store) sweep() {
	st.mu.Lock()
	candidates := make(map[string]*entry, len(st.entries))
	for id, e := range st.entries {
		candidates[id] = e
	}
	st.mu.Unlock()

	now := st.now()
	for id, e := range candidates {
		e.mu.Lock()
		if e.sess.ExpiredAt(now, st.window) {
			e.sess.State = StateExpired
			e.sess.Pending = nil
			e.sess.PendingPattern = nil
			// Eviction happens under the entry lock: a turn that already holds
			// this entry has either finished or touched the session, so its
			// updates can never land on an orphaned entry.
			st.mu.Lock()
			if st.entries[id] == e {
				delete(st.entries, id)
			}
			st.mu.Unlock()
			slog.Debug("session expired", "user", id)
		}
		e.mu.Unlock()
	}
}
