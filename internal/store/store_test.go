package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PHILLJAY/lockInBot/internal/intent"
	"github.com/PHILLJAY/lockInBot/internal/schedule"
	"github.com/PHILLJAY/lockInBot/internal/session"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := NewSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func sampleTasks(groupID string) []schedule.GeneratedTask {
	return []schedule.GeneratedTask{
		{Name: "work out", Weekday: intent.Monday, Time: intent.ClockTime{Hour: 7}, GroupID: groupID},
		{Name: "work out", Weekday: intent.Wednesday, Time: intent.ClockTime{Hour: 7}, GroupID: groupID},
		{Name: "work out", Weekday: intent.Friday, Time: intent.ClockTime{Hour: 7}, GroupID: groupID},
	}
}

func TestSessionRoundTrip(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := st.LoadSession(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
				t.Errorf("LoadSession(missing) = %v, want ErrNotFound", err)
			}

			sess := session.New("discord:u1")
			sess.Channel = "discord"
			sess.ChatID = "chat-9"
			sess.State = session.StateClarifying
			sess.Touch(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
			sess.Pending = &intent.TaskIntent{
				TaskName:        "read",
				Frequency:       intent.FrequencyDaily,
				FieldConfidence: map[intent.Field]float64{intent.FieldTaskName: 0.7},
				MissingFields:   []intent.Field{intent.FieldTime},
			}

			if err := st.UpsertSession(ctx, sess); err != nil {
				t.Fatalf("UpsertSession: %v", err)
			}

			got, err := st.LoadSession(ctx, "discord:u1")
			if err != nil {
				t.Fatalf("LoadSession: %v", err)
			}
			if got.State != session.StateClarifying || got.Channel != "discord" || got.ChatID != "chat-9" {
				t.Errorf("loaded session = %+v", got)
			}
			if got.Pending == nil || got.Pending.TaskName != "read" {
				t.Errorf("loaded pending = %+v, want task read", got.Pending)
			}
			if !got.Pending.Missing(intent.FieldTime) {
				t.Error("missing fields lost on round trip")
			}

			// Upsert replaces, never duplicates.
			sess.State = session.StateConfirming
			if err := st.UpsertSession(ctx, sess); err != nil {
				t.Fatalf("UpsertSession update: %v", err)
			}
			got, err = st.LoadSession(ctx, "discord:u1")
			if err != nil {
				t.Fatalf("LoadSession after update: %v", err)
			}
			if got.State != session.StateConfirming {
				t.Errorf("state after update = %q, want confirming", got.State)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := st.ListSessions(ctx)
			if err != nil {
				t.Fatalf("ListSessions empty: %v", err)
			}
			if len(empty) != 0 {
				t.Fatalf("fresh store lists %d sessions, want 0", len(empty))
			}

			mid := session.New("discord:u1")
			mid.State = session.StateClarifying
			mid.Pending = &intent.TaskIntent{TaskName: "read"}
			if err := st.UpsertSession(ctx, mid); err != nil {
				t.Fatalf("UpsertSession u1: %v", err)
			}
			idle := session.New("telegram:u2")
			if err := st.UpsertSession(ctx, idle); err != nil {
				t.Fatalf("UpsertSession u2: %v", err)
			}

			all, err := st.ListSessions(ctx)
			if err != nil {
				t.Fatalf("ListSessions: %v", err)
			}
			if len(all) != 2 {
				t.Fatalf("got %d sessions, want 2", len(all))
			}
			byUser := make(map[string]*session.Session, len(all))
			for _, s := range all {
				byUser[s.UserID] = s
			}
			got, ok := byUser["discord:u1"]
			if !ok {
				t.Fatal("discord:u1 missing from ListSessions")
			}
			if got.State != session.StateClarifying || got.Pending == nil || got.Pending.TaskName != "read" {
				t.Errorf("listed session = %+v, want clarifying with pending read", got)
			}
		})
	}
}

func TestCommitAndListOccurrences(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := st.CommitGeneratedTasks(ctx, "u1", sampleTasks("g1")); err != nil {
				t.Fatalf("CommitGeneratedTasks: %v", err)
			}

			occ, err := st.ListActiveOccurrences(ctx, "u1")
			if err != nil {
				t.Fatalf("ListActiveOccurrences: %v", err)
			}
			if len(occ) != 3 {
				t.Fatalf("got %d occurrences, want 3", len(occ))
			}
			for _, row := range occ {
				if row.TaskName != "work out" || row.GroupID != "g1" {
					t.Errorf("occurrence row = %+v, want task/group from the committed batch", row)
				}
			}

			other, err := st.ListActiveOccurrences(ctx, "u2")
			if err != nil {
				t.Fatalf("ListActiveOccurrences other user: %v", err)
			}
			if len(other) != 0 {
				t.Errorf("other user sees %d occurrences, want 0", len(other))
			}
		})
	}
}

func TestRemoveScheduleGroup(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := st.CommitGeneratedTasks(ctx, "u1", sampleTasks("g1")); err != nil {
				t.Fatalf("commit g1: %v", err)
			}
			if err := st.CommitGeneratedTasks(ctx, "u1", []schedule.GeneratedTask{
				{Name: "read", Weekday: intent.Sunday, Time: intent.ClockTime{Hour: 21}, GroupID: "g2"},
			}); err != nil {
				t.Fatalf("commit g2: %v", err)
			}

			if err := st.RemoveScheduleGroup(ctx, "u1", "g1"); err != nil {
				t.Fatalf("RemoveScheduleGroup: %v", err)
			}

			occ, err := st.ListActiveOccurrences(ctx, "u1")
			if err != nil {
				t.Fatalf("ListActiveOccurrences: %v", err)
			}
			if len(occ) != 1 {
				t.Fatalf("got %d occurrences after group removal, want 1", len(occ))
			}
			if occ[0].Slot.Weekday != intent.Sunday || occ[0].GroupID != "g2" {
				t.Errorf("surviving occurrence = %+v, want the g2 task", occ[0])
			}
		})
	}
}

func TestListAllTasks(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := st.CommitGeneratedTasks(ctx, "u1", sampleTasks("g1")); err != nil {
				t.Fatalf("commit u1: %v", err)
			}
			if err := st.CommitGeneratedTasks(ctx, "u2", []schedule.GeneratedTask{
				{Name: "meditate", Weekday: intent.Tuesday, Time: intent.ClockTime{Hour: 6, Minute: 30}, GroupID: "g3", IntervalDays: 3, AnchorDate: "2025-06-02"},
			}); err != nil {
				t.Fatalf("commit u2: %v", err)
			}

			all, err := st.ListAllTasks(ctx)
			if err != nil {
				t.Fatalf("ListAllTasks: %v", err)
			}
			if len(all) != 4 {
				t.Fatalf("got %d tasks, want 4", len(all))
			}

			var interval *UserTask
			for i := range all {
				if all[i].Task.GroupID == "g3" {
					interval = &all[i]
				}
			}
			if interval == nil {
				t.Fatal("interval task missing from ListAllTasks")
			}
			if interval.UserID != "u2" || interval.Task.IntervalDays != 3 || interval.Task.AnchorDate != "2025-06-02" {
				t.Errorf("interval task = %+v", interval)
			}
			if interval.Task.Time != (intent.ClockTime{Hour: 6, Minute: 30}) {
				t.Errorf("interval task time = %v, want 06:30", interval.Task.Time)
			}
		})
	}
}
