package store

import (
	"context"
	"sync"

	"github.com/PHILLJAY/lockInBot/internal/schedule"
	"github.com/PHILLJAY/lockInBot/internal/session"
)

// Memory is an in-process Store, used in tests and single-shot runs.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	tasks    map[string][]schedule.GeneratedTask // userID -> active tasks
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]*session.Session),
		tasks:    make(map[string][]schedule.GeneratedTask),
	}
}

func (m *Memory) UpsertSession(_ context.Context, sess *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.UserID] = sess.Clone()
	return nil
}

func (m *Memory) LoadSession(_ context.Context, userID string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

func (m *Memory) ListSessions(_ context.Context) ([]*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*session.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess.Clone())
	}
	return out, nil
}

func (m *Memory) ListActiveOccurrences(_ context.Context, userID string) ([]ActiveOccurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ActiveOccurrence
	for _, t := range m.tasks[userID] {
		out = append(out, ActiveOccurrence{
			TaskName: t.Name,
			GroupID:  t.GroupID,
			Slot:     schedule.Occurrence{Weekday: t.Weekday, Time: t.Time},
		})
	}
	return out, nil
}

func (m *Memory) CommitGeneratedTasks(_ context.Context, userID string, tasks []schedule.GeneratedTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[userID] = append(m.tasks[userID], tasks...)
	return nil
}

func (m *Memory) RemoveScheduleGroup(_ context.Context, userID, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tasks[userID][:0]
	for _, t := range m.tasks[userID] {
		if t.GroupID != groupID {
			kept = append(kept, t)
		}
	}
	m.tasks[userID] = kept
	return nil
}

func (m *Memory) ListAllTasks(_ context.Context) ([]UserTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []UserTask
	for userID, tasks := range m.tasks {
		for _, t := range tasks {
			out = append(out, UserTask{UserID: userID, Task: t})
		}
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
