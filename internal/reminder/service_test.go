package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/PHILLJAY/lockInBot/internal/bus"
	"github.com/PHILLJAY/lockInBot/internal/intent"
	"github.com/PHILLJAY/lockInBot/internal/schedule"
	"github.com/PHILLJAY/lockInBot/internal/session"
	"github.com/PHILLJAY/lockInBot/internal/store"
)

func weeklyPattern(groupID string) *schedule.Pattern {
	return &schedule.Pattern{
		GroupID:  groupID,
		TaskName: "work out",
		Time:     intent.ClockTime{Hour: 7},
		Weekdays: []intent.Weekday{intent.Monday, intent.Wednesday, intent.Friday},
	}
}

func TestRegisterPatternAndRemoveGroup(t *testing.T) {
	svc := NewService(bus.NewMessageBus(10), store.NewMemory())

	if err := svc.RegisterPattern("discord:u1", weeklyPattern("g1")); err != nil {
		t.Fatalf("RegisterPattern: %v", err)
	}
	if n := len(svc.entries["g1"]); n != 3 {
		t.Fatalf("registered %d entries, want 3", n)
	}

	svc.RemoveGroup("g1")
	if n := len(svc.entries["g1"]); n != 0 {
		t.Errorf("entries after RemoveGroup = %d, want 0", n)
	}
	// Removing again is a no-op.
	svc.RemoveGroup("g1")
}

func TestRegisterIntervalTask(t *testing.T) {
	svc := NewService(bus.NewMessageBus(10), store.NewMemory())

	err := svc.RegisterTask("u1", schedule.GeneratedTask{
		Name:         "meal prep",
		Weekday:      intent.Monday,
		Time:         intent.ClockTime{Hour: 18},
		GroupID:      "g2",
		IntervalDays: 14,
		AnchorDate:   "2025-06-02",
	})
	if err != nil {
		t.Fatalf("RegisterTask: %v", err)
	}
	if n := len(svc.entries["g2"]); n != 1 {
		t.Errorf("registered %d entries, want 1", n)
	}

	err = svc.RegisterTask("u1", schedule.GeneratedTask{
		Name:         "meal prep",
		GroupID:      "g3",
		IntervalDays: 14,
		AnchorDate:   "not-a-date",
	})
	if err == nil {
		t.Error("expected error for malformed anchor date")
	}
}

func TestRestore(t *testing.T) {
	persist := store.NewMemory()
	ctx := context.Background()
	if err := persist.CommitGeneratedTasks(ctx, "discord:u1", weeklyPattern("g1").Tasks()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := NewService(bus.NewMessageBus(10), persist)
	if err := svc.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if n := len(svc.entries["g1"]); n != 3 {
		t.Errorf("restored %d entries, want 3", n)
	}
}

func TestDeliverResolvesStoredSession(t *testing.T) {
	persist := store.NewMemory()
	msgBus := bus.NewMessageBus(10)
	svc := NewService(msgBus, persist)

	sess := session.New("discord:u1")
	sess.Channel = "discord"
	sess.ChatID = "dm-1"
	if err := persist.UpsertSession(context.Background(), sess); err != nil {
		t.Fatalf("UpsertSession: %v", err)
	}

	got := make(chan bus.OutboundMessage, 1)
	msgBus.Subscribe("discord", func(m bus.OutboundMessage) { got <- m })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go msgBus.DispatchOutbound(ctx)

	svc.deliver("discord:u1", schedule.GeneratedTask{Name: "work out", GroupID: "g1"})

	select {
	case m := <-got:
		if m.Kind != "reminder" || m.ChatID != "dm-1" {
			t.Errorf("reminder = %+v", m)
		}
		if m.Metadata["group_id"] != "g1" {
			t.Errorf("metadata = %v, want group_id g1", m.Metadata)
		}
	case <-time.After(time.Second):
		t.Fatal("reminder never delivered")
	}

	// No stored session: delivery is skipped without blocking.
	svc.deliver("discord:ghost", schedule.GeneratedTask{Name: "work out", GroupID: "g1"})
}

func TestOnInterval(t *testing.T) {
	anchor := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		day  time.Time
		want bool
	}{
		{anchor, true},
		{anchor.AddDate(0, 0, 1), false},
		{anchor.AddDate(0, 0, 13), false},
		{anchor.AddDate(0, 0, 14), true},
		{anchor.AddDate(0, 0, 28), true},
		{anchor.AddDate(0, 0, -14), false}, // before the anchor, never fires
	}
	for _, tt := range tests {
		if got := onInterval(tt.day, anchor, 14); got != tt.want {
			t.Errorf("onInterval(%s) = %v, want %v", tt.day.Format("2006-01-02"), got, tt.want)
		}
	}
	if onInterval(anchor, anchor, 0) {
		t.Error("zero interval must never fire")
	}
}
