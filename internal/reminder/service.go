// Package reminder delivers committed schedules as outbound messages, one
// cron entry per weekly occurrence and a daily probe for interval rules.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/PHILLJAY/lockInBot/internal/bus"
	"github.com/PHILLJAY/lockInBot/internal/schedule"
	"github.com/PHILLJAY/lockInBot/internal/store"
)

type Service struct {
	scheduler *robfigcron.Cron
	bus       *bus.MessageBus
	persist   store.Store

	mu      sync.Mutex
	entries map[string][]robfigcron.EntryID // groupID -> cron entries
}

func NewService(msgBus *bus.MessageBus, persist store.Store) *Service {
	return &Service{
		scheduler: robfigcron.New(),
		bus:       msgBus,
		persist:   persist,
		entries:   make(map[string][]robfigcron.EntryID),
	}
}

// Start begins the cron scheduler.
func (s *Service) Start() {
	s.scheduler.Start()
}

// Stop stops the cron scheduler.
func (s *Service) Stop() {
	s.scheduler.Stop()
}

// RegisterPattern registers cron entries for every occurrence of a freshly
// committed pattern.
func (s *Service) RegisterPattern(userID string, p *schedule.Pattern) error {
	for _, task := range p.Tasks() {
		if err := s.RegisterTask(userID, task); err != nil {
			return err
		}
	}
	return nil
}

// RegisterTask registers one occurrence. Weekly occurrences map directly to
// a cron day-of-week entry; interval occurrences get a daily probe that
// checks the day offset from the anchor date before firing.
func (s *Service) RegisterTask(userID string, task schedule.GeneratedTask) error {
	spec := fmt.Sprintf("%d %d * * %d", task.Time.Minute, task.Time.Hour, task.Weekday.CronDOW())
	fire := func() { s.deliver(userID, task) }

	if task.IntervalDays > 0 {
		anchor, err := time.Parse("2006-01-02", task.AnchorDate)
		if err != nil {
			return fmt.Errorf("bad anchor date %q for group %s: %w", task.AnchorDate, task.GroupID, err)
		}
		spec = fmt.Sprintf("%d %d * * *", task.Time.Minute, task.Time.Hour)
		fire = func() {
			if !onInterval(time.Now(), anchor, task.IntervalDays) {
				return
			}
			s.deliver(userID, task)
		}
	}

	entryID, err := s.scheduler.AddFunc(spec, fire)
	if err != nil {
		return fmt.Errorf("failed to register reminder entry: %w", err)
	}

	s.mu.Lock()
	s.entries[task.GroupID] = append(s.entries[task.GroupID], entryID)
	s.mu.Unlock()
	return nil
}

// RemoveGroup unregisters every cron entry of a schedule group.
func (s *Service) RemoveGroup(groupID string) {
	s.mu.Lock()
	ids := s.entries[groupID]
	delete(s.entries, groupID)
	s.mu.Unlock()

	for _, id := range ids {
		s.scheduler.Remove(id)
	}
}

// Restore re-registers every active task from the persistence boundary,
// called once on startup.
func (s *Service) Restore(ctx context.Context) error {
	tasks, err := s.persist.ListAllTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active tasks: %w", err)
	}
	for _, ut := range tasks {
		if err := s.RegisterTask(ut.UserID, ut.Task); err != nil {
			slog.Warn("failed to restore reminder", "group", ut.Task.GroupID, "error", err)
		}
	}
	slog.Info("reminders restored", "tasks", len(tasks))
	return nil
}

// deliver resolves the user's last known channel and publishes the reminder.
// Delivery is best-effort; a user with no stored session is skipped.
func (s *Service) deliver(userID string, task schedule.GeneratedTask) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := s.persist.LoadSession(ctx, userID)
	if err != nil {
		slog.Warn("no session for reminder delivery", "user", userID, "group", task.GroupID, "error", err)
		return
	}

	text := fmt.Sprintf("Reminder: time to %s!", task.Name)
	if task.Description != "" {
		text = fmt.Sprintf("%s %s", text, task.Description)
	}
	s.bus.PublishOutbound(bus.OutboundMessage{
		Channel: sess.Channel,
		ChatID:  sess.ChatID,
		Text:    text,
		Kind:    "reminder",
		Metadata: map[string]string{
			"group_id": task.GroupID,
			"task":     task.Name,
		},
	})
}

// onInterval reports whether now falls on the interval grid anchored at
// anchor, comparing calendar days in UTC.
func onInterval(now, anchor time.Time, intervalDays int) bool {
	if intervalDays <= 0 {
		return false
	}
	nowDay := now.UTC().Truncate(24 * time.Hour)
	anchorDay := anchor.UTC().Truncate(24 * time.Hour)
	days := int(nowDay.Sub(anchorDay).Hours() / 24)
	return days >= 0 && days%intervalDays == 0
}
