package convo

import (
	"context"
	"testing"
	"time"

	"github.com/PHILLJAY/lockInBot/internal/intent"
	"github.com/PHILLJAY/lockInBot/internal/session"
	"github.com/PHILLJAY/lockInBot/internal/store"
)

func TestRestoreSessionsSeedsInFlightConversations(t *testing.T) {
	persist := store.NewMemory()
	ctx := context.Background()

	mid := session.New("discord:u1")
	mid.State = session.StateClarifying
	mid.Pending = &intent.TaskIntent{
		TaskName:        "read",
		FieldConfidence: map[intent.Field]float64{intent.FieldTaskName: 0.7},
		MissingFields:   []intent.Field{intent.FieldFrequency, intent.FieldTime},
	}
	mid.Touch(base)
	if err := persist.UpsertSession(ctx, mid); err != nil {
		t.Fatalf("UpsertSession u1: %v", err)
	}
	idle := session.New("discord:u2")
	if err := persist.UpsertSession(ctx, idle); err != nil {
		t.Fatalf("UpsertSession u2: %v", err)
	}

	sessions := session.NewStore(30 * time.Minute)
	n, err := RestoreSessions(ctx, persist, sessions)
	if err != nil {
		t.Fatalf("RestoreSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("restored %d sessions, want 1 (idle snapshots skipped)", n)
	}
	if sessions.Len() != 1 {
		t.Errorf("live sessions = %d, want 1", sessions.Len())
	}

	sessions.With("discord:u1", func(s *session.Session) error {
		if s.State != session.StateClarifying {
			t.Errorf("restored state = %q, want clarifying", s.State)
		}
		if s.Pending == nil || s.Pending.TaskName != "read" {
			t.Errorf("restored pending = %+v, want task read", s.Pending)
		}
		return nil
	})
}

func TestRestoredConversationContinues(t *testing.T) {
	persist := store.NewMemory()
	ctx := context.Background()

	// Turn 1 runs, the process dies, a new engine restores the snapshot.
	first := newTestEngine(persist, nil)
	if _, err := first.HandleTurn(ctx, turn("I want to read more", base)); err != nil {
		t.Fatalf("turn 1: %v", err)
	}

	e := newTestEngine(persist, nil)
	if _, err := RestoreSessions(ctx, persist, e.sessions); err != nil {
		t.Fatalf("RestoreSessions: %v", err)
	}

	a, err := e.HandleTurn(ctx, turn("every day before bed", base.Add(time.Minute)))
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	if a.Kind != ActionProposeSchedule {
		t.Fatalf("turn 2 action = %s, want propose_schedule", a.Kind)
	}
	if a.Pattern == nil || a.Pattern.TaskName != "read" {
		t.Fatalf("pattern = %+v, want the pre-restart task read", a.Pattern)
	}
}
