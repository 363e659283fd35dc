// Package session owns per-user dialogue state. Exactly one session exists
// per user ID, guarded by a per-key lock shared between live turn processing
// and the background expiry sweep.
package session

import (
	"time"

	"github.com/PHILLJAY/lockInBot/internal/intent"
	"github.com/PHILLJAY/lockInBot/internal/schedule"
)

// State is the conversation state machine's current position. The transition
// rules live in the convo package; sessions only carry the value.
type State string

const (
	StateIdle       State = "idle"
	StateClarifying State = "clarifying"
	StateConfirming State = "confirming"
	// Materialized and Expired are terminal: the session returns to Idle for
	// that user and the pending intent is discarded.
	StateMaterialized State = "materialized"
	StateExpired      State = "expired"
)

// HistoryLimit is the default cap on the bounded turn history kept as
// extractor context. It is never persisted long-term.
const HistoryLimit = 8

// Session is one user's dialogue state. It is a plain value guarded
// externally by the Store's per-key lock.
type Session struct {
	UserID            string             `json:"userId"`
	Channel           string             `json:"channel,omitempty"`
	ChatID            string             `json:"chatId,omitempty"`
	State             State              `json:"state"`
	Pending           *intent.TaskIntent `json:"pending,omitempty"`
	PendingPattern    *schedule.Pattern  `json:"pendingPattern,omitempty"`
	LastInteractionAt time.Time          `json:"lastInteractionAt"`
	History           []string           `json:"history,omitempty"`
}

func New(userID string) *Session {
	return &Session{UserID: userID, State: StateIdle}
}

// Touch records a new interaction instant.
func (s *Session) Touch(at time.Time) {
	s.LastInteractionAt = at
}

// ExpiresAt derives the inactivity deadline.
func (s *Session) ExpiresAt(window time.Duration) time.Time {
	return s.LastInteractionAt.Add(window)
}

// ExpiredAt reports whether the session has been inactive past the window.
func (s *Session) ExpiredAt(now time.Time, window time.Duration) bool {
	return !s.LastInteractionAt.IsZero() && now.Sub(s.LastInteractionAt) > window
}

// PushHistory appends a raw turn text, keeping at most limit entries.
// A non-positive limit falls back to HistoryLimit.
func (s *Session) PushHistory(text string, limit int) {
	if limit <= 0 {
		limit = HistoryLimit
	}
	s.History = append(s.History, text)
	if len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

// Reset discards the in-flight intent and returns the session to Idle.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Pending = nil
	s.PendingPattern = nil
	s.History = nil
}

// Clone returns a deep-enough copy safe to hand to the persistence boundary
// after the per-key lock is released.
func (s *Session) Clone() *Session {
	out := *s
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	if s.PendingPattern != nil {
		pp := *s.PendingPattern
		out.PendingPattern = &pp
	}
	out.History = append([]string(nil), s.History...)
	return &out
}
