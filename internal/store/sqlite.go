package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/PHILLJAY/lockInBot/internal/intent"
	"github.com/PHILLJAY/lockInBot/internal/schedule"
	"github.com/PHILLJAY/lockInBot/internal/session"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	user_id          TEXT PRIMARY KEY,
	channel          TEXT NOT NULL DEFAULT '',
	chat_id          TEXT NOT NULL DEFAULT '',
	state            TEXT NOT NULL,
	payload          TEXT NOT NULL,
	last_interaction INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tasks (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       TEXT NOT NULL,
	group_id      TEXT NOT NULL,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	weekday       INTEGER NOT NULL,
	minute_of_day INTEGER NOT NULL,
	interval_days INTEGER NOT NULL DEFAULT 0,
	anchor_date   TEXT NOT NULL DEFAULT '',
	active        INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_tasks_user_active ON tasks(user_id, active);
CREATE INDEX IF NOT EXISTS idx_tasks_group ON tasks(group_id);
`

// SQLite implements Store on a local sqlite database file.
type SQLite struct {
	conn *sql.DB
	path string
}

func NewSQLite(dataDir string) (*SQLite, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, "lockinbot.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return &SQLite{conn: conn, path: dbPath}, nil
}

func (s *SQLite) Close() error { return s.conn.Close() }

func (s *SQLite) UpsertSession(ctx context.Context, sess *session.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO sessions (user_id, channel, chat_id, state, payload, last_interaction)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			channel = excluded.channel,
			chat_id = excluded.chat_id,
			state = excluded.state,
			payload = excluded.payload,
			last_interaction = excluded.last_interaction`,
		sess.UserID, sess.Channel, sess.ChatID, string(sess.State), string(payload), sess.LastInteractionAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

func (s *SQLite) LoadSession(ctx context.Context, userID string) (*session.Session, error) {
	var payload string
	err := s.conn.QueryRowContext(ctx,
		`SELECT payload FROM sessions WHERE user_id = ?`, userID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var sess session.Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

func (s *SQLite) ListSessions(ctx context.Context) ([]*session.Session, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT payload FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []*session.Session
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		var sess session.Session
		if err := json.Unmarshal([]byte(payload), &sess); err != nil {
			return nil, fmt.Errorf("failed to decode session: %w", err)
		}
		out = append(out, &sess)
	}
	return out, rows.Err()
}

func (s *SQLite) ListActiveOccurrences(ctx context.Context, userID string) ([]ActiveOccurrence, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT name, group_id, weekday, minute_of_day FROM tasks WHERE user_id = ? AND active = 1 ORDER BY weekday, minute_of_day`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}
	defer rows.Close()

	var out []ActiveOccurrence
	for rows.Next() {
		var (
			name, groupID   string
			weekday, minute int
		)
		if err := rows.Scan(&name, &groupID, &weekday, &minute); err != nil {
			return nil, fmt.Errorf("failed to scan occurrence: %w", err)
		}
		out = append(out, ActiveOccurrence{
			TaskName: name,
			GroupID:  groupID,
			Slot: schedule.Occurrence{
				Weekday: intent.Weekday(weekday),
				Time:    intent.ClockTime{Hour: minute / 60, Minute: minute % 60},
			},
		})
	}
	return out, rows.Err()
}

// CommitGeneratedTasks writes the whole batch in one transaction: all
// occurrences of a schedule group land, or none do.
func (s *SQLite) CommitGeneratedTasks(ctx context.Context, userID string, tasks []schedule.GeneratedTask) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin commit: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks (user_id, group_id, name, description, weekday, minute_of_day, interval_days, anchor_date, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`)
	if err != nil {
		return fmt.Errorf("failed to prepare task insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		if _, err := stmt.ExecContext(ctx, userID, t.GroupID, t.Name, t.Description,
			int(t.Weekday), t.Time.MinuteOfDay(), t.IntervalDays, t.AnchorDate); err != nil {
			return fmt.Errorf("failed to insert task %q: %w", t.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tasks: %w", err)
	}
	return nil
}

func (s *SQLite) RemoveScheduleGroup(ctx context.Context, userID, groupID string) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE tasks SET active = 0 WHERE user_id = ? AND group_id = ?`, userID, groupID)
	if err != nil {
		return fmt.Errorf("failed to remove schedule group: %w", err)
	}
	return nil
}

func (s *SQLite) ListAllTasks(ctx context.Context) ([]UserTask, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT user_id, group_id, name, description, weekday, minute_of_day, interval_days, anchor_date
		FROM tasks WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var out []UserTask
	for rows.Next() {
		var (
			ut     UserTask
			wd     int
			minute int
		)
		if err := rows.Scan(&ut.UserID, &ut.Task.GroupID, &ut.Task.Name, &ut.Task.Description,
			&wd, &minute, &ut.Task.IntervalDays, &ut.Task.AnchorDate); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		ut.Task.Weekday = intent.Weekday(wd)
		ut.Task.Time = intent.ClockTime{Hour: minute / 60, Minute: minute % 60}
		out = append(out, ut)
	}
	return out, rows.Err()
}
