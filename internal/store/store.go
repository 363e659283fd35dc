// Package store defines the narrow persistence boundary the conversation
// core talks to. Representations behind it are the store's concern.
package store

import (
	"context"
	"errors"

	"github.com/PHILLJAY/lockInBot/internal/schedule"
	"github.com/PHILLJAY/lockInBot/internal/session"
)

// ErrNotFound is returned when no persisted session exists for a user.
var ErrNotFound = errors.New("store: not found")

// UserTask pairs a generated occurrence with its owner, for restoring
// reminder registrations at startup.
type UserTask struct {
	UserID string
	Task   schedule.GeneratedTask
}

// ActiveOccurrence is one active reminder slot together with its owning task
// name and schedule group. Conflict checks read the slot; replacement uses
// the task name and group to find superseded schedules.
type ActiveOccurrence struct {
	TaskName string
	GroupID  string
	Slot     schedule.Occurrence
}

// Store is the persistence boundary. Committing a schedule group is the
// point of no return: failures there propagate as hard errors.
type Store interface {
	// UpsertSession snapshots a session so in-flight conversations survive a
	// restart.
	UpsertSession(ctx context.Context, sess *session.Session) error
	// LoadSession returns the persisted snapshot or ErrNotFound.
	LoadSession(ctx context.Context, userID string) (*session.Session, error)
	// ListSessions returns every persisted session snapshot, for restoring
	// in-flight conversations after a restart.
	ListSessions(ctx context.Context) ([]*session.Session, error)
	// ListActiveOccurrences returns the user's existing active reminder slots,
	// the read-only view conflict checks and schedule replacement run against.
	ListActiveOccurrences(ctx context.Context, userID string) ([]ActiveOccurrence, error)
	// CommitGeneratedTasks atomically persists one schedule group's batch.
	CommitGeneratedTasks(ctx context.Context, userID string, tasks []schedule.GeneratedTask) error
	// RemoveScheduleGroup atomically deactivates every occurrence of a group.
	RemoveScheduleGroup(ctx context.Context, userID, groupID string) error
	// ListAllTasks returns every active occurrence across users.
	ListAllTasks(ctx context.Context) ([]UserTask, error)
	Close() error
}
