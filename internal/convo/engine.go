// Package convo drives the multi-turn dialogue that fills a TaskIntent and
// materializes it into a reminder schedule.
package convo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/PHILLJAY/lockInBot/internal/arbiter"
	"github.com/PHILLJAY/lockInBot/internal/bus"
	"github.com/PHILLJAY/lockInBot/internal/extract"
	"github.com/PHILLJAY/lockInBot/internal/intent"
	"github.com/PHILLJAY/lockInBot/internal/schedule"
	"github.com/PHILLJAY/lockInBot/internal/session"
	"github.com/PHILLJAY/lockInBot/internal/store"
)

// unrelatedNameConfidence is the bar for treating a turn as a brand new
// request: a different task name extracted at or above this confidence
// discards the in-progress intent.
const unrelatedNameConfidence = 0.8

// Reminders is the delivery hook invoked after a schedule group commits or
// is superseded by a replacement.
type Reminders interface {
	RegisterPattern(userID string, p *schedule.Pattern) error
	RemoveGroup(groupID string)
}

// Engine owns turn processing: extraction, arbitration, state transitions,
// schedule generation and the commit to the persistence boundary.
type Engine struct {
	sessions  *session.Store
	persist   store.Store
	gen       *extract.Generative
	sched     *schedule.Generator
	reminders Reminders
	bus       *bus.MessageBus

	now          func() time.Time
	newGroupID   func() string
	historyLimit int

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// EngineConfig holds all dependencies for an Engine. Generative and
// Reminders may be nil: the pipeline then degrades to rule-based extraction
// and skips delivery registration.
type EngineConfig struct {
	Sessions   *session.Store
	Persist    store.Store
	Generative *extract.Generative
	Generator  *schedule.Generator
	Reminders  Reminders
	Bus        *bus.MessageBus
	// HistoryLimit bounds the raw turns kept as extraction context;
	// non-positive uses the session package default.
	HistoryLimit int
}

func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		sessions:     cfg.Sessions,
		persist:      cfg.Persist,
		gen:          cfg.Generative,
		sched:        cfg.Generator,
		reminders:    cfg.Reminders,
		bus:          cfg.Bus,
		now:          time.Now,
		newGroupID:   uuid.NewString,
		historyLimit: cfg.HistoryLimit,
		inflight:     make(map[string]context.CancelFunc),
	}
}

// SetClock overrides the time source, for tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// SetGroupIDFunc overrides group ID minting, for deterministic tests.
func (e *Engine) SetGroupIDFunc(fn func() string) { e.newGroupID = fn }

// Run consumes inbound turns from the bus until ctx is cancelled. Each turn
// is processed in its own goroutine; the session store's per-key lock
// serializes turns for the same user.
func (e *Engine) Run(ctx context.Context) error {
	for {
		turn, err := e.bus.ConsumeInbound(ctx)
		if err != nil {
			return err
		}
		go e.process(ctx, turn)
	}
}

func (e *Engine) process(ctx context.Context, turn bus.InboundTurn) {
	action, err := e.HandleTurn(ctx, turn)
	if err != nil {
		slog.Error("turn processing failed", "user", turn.UserKey(), "error", err)
		e.bus.PublishOutbound(bus.OutboundMessage{
			Channel: turn.Channel,
			ChatID:  turn.ChatID,
			Text:    "something went wrong on my end, please try again",
			Kind:    "error",
		})
		return
	}
	e.bus.PublishOutbound(bus.OutboundMessage{
		Channel: turn.Channel,
		ChatID:  turn.ChatID,
		Text:    Render(action),
		Kind:    "reply",
	})
}

// HandleTurn processes one inbound turn and decides the outbound action.
// The only suspension point is the generative extractor call; it is
// cancelled outright when a newer turn for the same user arrives, so no
// stale result can be applied after the state has advanced.
func (e *Engine) HandleTurn(ctx context.Context, turn bus.InboundTurn) (OutboundAction, error) {
	userKey := turn.UserKey()

	e.cancelInflight(userKey)
	ctx, cancel := context.WithCancel(ctx)
	e.registerInflight(userKey, cancel)
	defer e.clearInflight(userKey, cancel)

	var action OutboundAction
	err := e.sessions.With(userKey, func(s *session.Session) error {
		now := turn.At
		if now.IsZero() {
			now = e.now()
		}
		s.Channel = turn.Channel
		s.ChatID = turn.ChatID

		// Inactivity forces expiry before the turn is processed as the
		// first of a fresh session; no residue of the prior intent survives.
		priorExpired := false
		if s.State != session.StateIdle && s.ExpiredAt(now, e.sessions.Window()) {
			s.State, _ = Transition(s.State, EventExpire)
			s.Reset()
			priorExpired = true
		}
		s.Touch(now)

		text := strings.TrimSpace(turn.Text)
		normalized := strings.ToLower(text)

		// A bare confirmation aimed at a proposal that already lapsed only
		// gets the expiry notice; there is nothing to merge from it.
		if priorExpired && classifyConfirmation(normalized) != confirmUnknown {
			action = OutboundAction{Kind: ActionExpired, PriorExpired: true}
			return e.snapshot(ctx, s)
		}

		if s.State == session.StateConfirming {
			// In Confirming the turn is checked against the fixed yes/no
			// vocabulary before any re-parse; free text falls through and is
			// treated as a modification.
			switch classifyConfirmation(normalized) {
			case confirmYes:
				a, err := e.materialize(ctx, userKey, s)
				if err != nil {
					return err
				}
				action = a
				return e.snapshot(ctx, s)
			case confirmNo:
				s.State, _ = Transition(s.State, EventNegate)
				s.PendingPattern = nil
				action = OutboundAction{Kind: ActionAskClarification, Reason: "schedule declined"}
				return e.snapshot(ctx, s)
			}
		}

		a, err := e.mergeTurn(ctx, s, text, now)
		if err != nil {
			return err
		}
		a.PriorExpired = priorExpired
		action = a
		return e.snapshot(ctx, s)
	})
	return action, err
}

// mergeTurn runs both extractors, arbitrates, folds into the pending intent
// and advances the machine.
func (e *Engine) mergeTurn(ctx context.Context, s *session.Session, text string, now time.Time) (OutboundAction, error) {
	merged := e.extractAndMerge(ctx, text, s.History)
	s.PushHistory(text, e.historyLimit)

	if s.Pending != nil && isUnrelated(*s.Pending, merged) {
		// A confidently different task name starts over; the old intent is
		// discarded from any non-idle state.
		s.Pending = nil
		s.PendingPattern = nil
	}
	if s.Pending == nil {
		p := merged
		s.Pending = &p
	} else {
		folded := arbiter.Fold(*s.Pending, merged)
		s.Pending = &folded
	}

	if !s.Pending.Resolved() {
		field, _ := s.Pending.NextMissing()
		var kind ActionKind
		s.State, kind = Transition(s.State, EventIntentIncomplete)
		return OutboundAction{Kind: kind, Field: field, Reason: s.Pending.Rejections[field]}, nil
	}

	rows, err := e.persist.ListActiveOccurrences(ctx, s.UserID)
	if err != nil {
		return OutboundAction{}, fmt.Errorf("list active occurrences: %w", err)
	}
	// Occurrences of groups this schedule will replace are not conflicts:
	// a rescheduled task must not collide with its own prior slots.
	existing := make([]schedule.Occurrence, 0, len(rows))
	for _, row := range rows {
		if strings.EqualFold(row.TaskName, s.Pending.TaskName) {
			continue
		}
		existing = append(existing, row.Slot)
	}

	pattern, err := e.sched.Generate(*s.Pending, existing, now, e.newGroupID())
	var conflict *schedule.ConflictError
	if errors.As(err, &conflict) {
		// Reject-and-ask: demote the time so the next turn can supply a
		// different one instead of silently shifting the schedule.
		demoteTime(s.Pending, conflict)
		var kind ActionKind
		s.State, kind = Transition(s.State, EventConflict)
		return OutboundAction{Kind: kind, Field: intent.FieldTime, Conflict: conflict}, nil
	}
	if err != nil {
		return OutboundAction{}, fmt.Errorf("generate schedule: %w", err)
	}

	s.PendingPattern = pattern
	var kind ActionKind
	s.State, kind = Transition(s.State, EventIntentResolved)
	return OutboundAction{Kind: kind, Pattern: pattern}, nil
}

// materialize commits the proposed pattern. A persistence failure here is
// the point of no return and propagates as a hard error.
func (e *Engine) materialize(ctx context.Context, userKey string, s *session.Session) (OutboundAction, error) {
	if s.PendingPattern == nil {
		s.State, _ = Transition(s.State, EventNegate)
		return OutboundAction{Kind: ActionAskClarification, Reason: "nothing pending to confirm"}, nil
	}
	pattern := s.PendingPattern

	// A confirmed schedule replaces any prior group for the same task; the
	// superseded occurrences are deactivated before the new batch commits so
	// old and new reminders never run side by side.
	superseded, err := e.supersededGroups(ctx, userKey, pattern)
	if err != nil {
		return OutboundAction{}, err
	}
	for _, groupID := range superseded {
		if err := e.persist.RemoveScheduleGroup(ctx, userKey, groupID); err != nil {
			return OutboundAction{}, fmt.Errorf("remove superseded group %s: %w", groupID, err)
		}
	}

	if err := e.persist.CommitGeneratedTasks(ctx, userKey, pattern.Tasks()); err != nil {
		return OutboundAction{}, fmt.Errorf("commit schedule group %s: %w", pattern.GroupID, err)
	}
	if e.reminders != nil {
		for _, groupID := range superseded {
			e.reminders.RemoveGroup(groupID)
		}
		if err := e.reminders.RegisterPattern(userKey, pattern); err != nil {
			slog.Warn("failed to register reminders", "group", pattern.GroupID, "error", err)
		}
	}

	s.State, _ = Transition(s.State, EventAffirm)
	action := OutboundAction{Kind: ActionMaterialized, GroupID: pattern.GroupID, Pattern: pattern}
	// Materialized is terminal: the user returns to Idle with a clean slate.
	s.Reset()
	return action, nil
}

// extractAndMerge runs the two extraction strategies concurrently on the
// same raw text and arbitrates the result. The rule-based pass cannot fail;
// a generative failure degrades the turn to rule-based only.
func (e *Engine) extractAndMerge(ctx context.Context, text string, history []string) intent.TaskIntent {
	var (
		rule  intent.PartialIntent
		gen   intent.PartialIntent
		genOK bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rule = extract.RuleBased(text)
		return nil
	})
	g.Go(func() error {
		gen, genOK = e.gen.Extract(gctx, text, history)
		return nil
	})
	_ = g.Wait()
	return arbiter.Merge(rule, gen, genOK)
}

// snapshot persists the session through the boundary. Snapshot failures are
// logged, not fatal: the live session remains authoritative.
func (e *Engine) snapshot(ctx context.Context, s *session.Session) error {
	if err := e.persist.UpsertSession(ctx, s); err != nil {
		slog.Warn("failed to persist session snapshot", "user", s.UserID, "error", err)
	}
	return nil
}

// supersededGroups lists the user's active schedule groups that carry the
// same task name as the pattern about to commit.
func (e *Engine) supersededGroups(ctx context.Context, userKey string, p *schedule.Pattern) ([]string, error) {
	rows, err := e.persist.ListActiveOccurrences(ctx, userKey)
	if err != nil {
		return nil, fmt.Errorf("list active occurrences: %w", err)
	}
	seen := make(map[string]bool)
	var groups []string
	for _, row := range rows {
		if row.GroupID == p.GroupID || !strings.EqualFold(row.TaskName, p.TaskName) {
			continue
		}
		if !seen[row.GroupID] {
			seen[row.GroupID] = true
			groups = append(groups, row.GroupID)
		}
	}
	return groups, nil
}

func isUnrelated(pending, merged intent.TaskIntent) bool {
	if pending.Missing(intent.FieldTaskName) || merged.Missing(intent.FieldTaskName) {
		return false
	}
	if merged.FieldConfidence[intent.FieldTaskName] < unrelatedNameConfidence {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(pending.TaskName), strings.TrimSpace(merged.TaskName))
}

func demoteTime(t *intent.TaskIntent, conflict *schedule.ConflictError) {
	if !t.Missing(intent.FieldTime) {
		t.MissingFields = append(t.MissingFields, intent.FieldTime)
	}
	if t.Rejections == nil {
		t.Rejections = make(map[intent.Field]string)
	}
	t.Rejections[intent.FieldTime] = conflict.Error()
	t.PendingTime = nil
	t.ResolvedTime = nil
	t.TimePhrase = ""
	delete(t.FieldConfidence, intent.FieldTime)
}

func (e *Engine) cancelInflight(userKey string) {
	e.mu.Lock()
	cancel, ok := e.inflight[userKey]
	e.mu.Unlock()
	if ok {
		cancel()
	}
}

func (e *Engine) registerInflight(userKey string, cancel context.CancelFunc) {
	e.mu.Lock()
	e.inflight[userKey] = cancel
	e.mu.Unlock()
}

func (e *Engine) clearInflight(userKey string, cancel context.CancelFunc) {
	e.mu.Lock()
	// Only clear our own registration; a newer turn may have replaced it.
	if current, ok := e.inflight[userKey]; ok && sameCancel(current, cancel) {
		delete(e.inflight, userKey)
	}
	e.mu.Unlock()
	cancel()
}

// sameCancel compares cancel funcs by identity.
func sameCancel(a, b context.CancelFunc) bool {
	return fmt.Sprintf("%p", a) == fmt.Sprintf("%p", b)
}
