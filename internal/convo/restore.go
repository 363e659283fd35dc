package convo

import (
	"context"
	"fmt"

	"github.com/PHILLJAY/lockInBot/internal/session"
	"github.com/PHILLJAY/lockInBot/internal/store"
)

// RestoreSessions seeds the live session store from persisted snapshots so
// in-flight conversations survive a restart. Idle snapshots carry no pending
// state and are skipped; expired ones are handled by the normal expiry path
// on the user's next turn. Returns the number of sessions restored.
func RestoreSessions(ctx context.Context, persist store.Store, sessions *session.Store) (int, error) {
	snaps, err := persist.ListSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list persisted sessions: %w", err)
	}
	restored := 0
	for _, snap := range snaps {
		if snap.State == session.StateIdle {
			continue
		}
		sessions.Seed(snap)
		restored++
	}
	return restored, nil
}
