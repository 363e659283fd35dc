// Package schedule expands a fully resolved TaskIntent into a concrete,
// immutable set of calendar occurrences sharing one schedule group ID.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/PHILLJAY/lockInBot/internal/intent"
)

// ErrUnresolved is returned when generation is attempted before every
// required field of the intent is present.
var ErrUnresolved = errors.New("schedule: intent is not fully resolved")

// Occurrence is one recurring reminder slot.
type Occurrence struct {
	Weekday intent.Weekday   `json:"weekday"`
	Time    intent.ClockTime `json:"time"`
}

// GeneratedTask is one materialized occurrence. For interval-based patterns
// IntervalDays is set and Weekday is the anchor date's weekday; the consumer
// evaluates the interval rule against AnchorDate.
type GeneratedTask struct {
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Weekday      intent.Weekday   `json:"weekday"`
	Time         intent.ClockTime `json:"time"`
	GroupID      string           `json:"groupId"`
	IntervalDays int              `json:"intervalDays,omitempty"`
	AnchorDate   string           `json:"anchorDate,omitempty"` // YYYY-MM-DD
}

// Pattern is the immutable output of one successful generation. A change in
// schedule always mints a new group; patterns are never mutated in place.
type Pattern struct {
	GroupID      string           `json:"groupId"`
	TaskName     string           `json:"taskName"`
	Description  string           `json:"description,omitempty"`
	Time         intent.ClockTime `json:"time"`
	Weekdays     []intent.Weekday `json:"weekdays,omitempty"`
	IntervalDays int              `json:"intervalDays,omitempty"`
	AnchorDate   string           `json:"anchorDate,omitempty"` // YYYY-MM-DD
}

// Tasks expands the pattern into its occurrence batch. Every task shares the
// pattern's group ID so the group can later be edited or removed atomically.
func (p *Pattern) Tasks() []GeneratedTask {
	if p.IntervalDays > 0 {
		anchor, _ := time.Parse("2006-01-02", p.AnchorDate)
		return []GeneratedTask{{
			Name:         p.TaskName,
			Description:  p.Description,
			Weekday:      weekdayOf(anchor),
			Time:         p.Time,
			GroupID:      p.GroupID,
			IntervalDays: p.IntervalDays,
			AnchorDate:   p.AnchorDate,
		}}
	}
	tasks := make([]GeneratedTask, 0, len(p.Weekdays))
	for _, wd := range p.Weekdays {
		tasks = append(tasks, GeneratedTask{
			Name:        p.TaskName,
			Description: p.Description,
			Weekday:     wd,
			Time:        p.Time,
			GroupID:     p.GroupID,
		})
	}
	return tasks
}

// Occurrences returns the weekday slots the pattern fires on. Interval
// patterns report their anchor-weekday slot.
func (p *Pattern) Occurrences() []Occurrence {
	tasks := p.Tasks()
	out := make([]Occurrence, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Occurrence{Weekday: t.Weekday, Time: t.Time})
	}
	return out
}

// ConflictError reports a candidate occurrence that collides with one of the
// user's existing active occurrences. The caller surfaces it as a question
// instead of silently shifting the time.
type ConflictError struct {
	TaskName  string
	Candidate Occurrence
	Existing  Occurrence
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflict: %q at %s on %s collides with existing reminder at %s",
		e.TaskName, e.Candidate.Time, e.Candidate.Weekday, e.Existing.Time)
}

// weeklyStride tabulates the canonical weekday set for each weekly count,
// derived from a stride of 7/N starting Monday. Fixed, never randomized.
var weeklyStride = map[int][]intent.Weekday{
	1: {intent.Monday},
	2: {intent.Monday, intent.Thursday},
	3: {intent.Monday, intent.Wednesday, intent.Friday},
	4: {intent.Monday, intent.Tuesday, intent.Thursday, intent.Friday},
	5: {intent.Monday, intent.Tuesday, intent.Wednesday, intent.Thursday, intent.Friday},
	6: {intent.Monday, intent.Tuesday, intent.Wednesday, intent.Thursday, intent.Friday, intent.Saturday},
	7: {intent.Monday, intent.Tuesday, intent.Wednesday, intent.Thursday, intent.Friday, intent.Saturday, intent.Sunday},
}

// WeekdaysForCount exposes the canonical N-per-week weekday mapping.
func WeekdaysForCount(n int) ([]intent.Weekday, bool) {
	days, ok := weeklyStride[n]
	if !ok {
		return nil, false
	}
	return append([]intent.Weekday(nil), days...), true
}

// Generator expands resolved intents. Candidate occurrences within the
// collision window of an existing occurrence on the same weekday abort
// generation with a ConflictError.
type Generator struct {
	window time.Duration
}

// DefaultCollisionWindow is how close two reminders on the same weekday may
// sit before they are considered colliding, in either direction.
const DefaultCollisionWindow = 15 * time.Minute

func NewGenerator(window time.Duration) *Generator {
	if window <= 0 {
		window = DefaultCollisionWindow
	}
	return &Generator{window: window}
}

// Generate is a pure function of its inputs: the same intent, existing
// occurrences, anchor date and group ID always produce an identical pattern.
func (g *Generator) Generate(it intent.TaskIntent, existing []Occurrence, anchor time.Time, groupID string) (*Pattern, error) {
	if !it.Resolved() || it.ResolvedTime == nil {
		return nil, ErrUnresolved
	}

	p := &Pattern{
		GroupID:     groupID,
		TaskName:    it.TaskName,
		Description: it.Description,
		Time:        *it.ResolvedTime,
	}

	switch it.Frequency {
	case intent.FrequencyDaily:
		p.Weekdays, _ = WeekdaysForCount(7)
	case intent.FrequencyWeeklyCount:
		days, ok := WeekdaysForCount(it.WeeklyCount)
		if !ok {
			return nil, fmt.Errorf("schedule: weekly count %d out of range", it.WeeklyCount)
		}
		p.Weekdays = days
	case intent.FrequencySpecificDays:
		p.Weekdays = intent.SortWeekdays(it.Days)
		if len(p.Weekdays) == 0 {
			return nil, fmt.Errorf("schedule: no weekdays in specific-days intent")
		}
	case intent.FrequencyInterval:
		// Weekday repetition of a non-divisor interval shifts over calendar
		// time, so the pattern carries an explicit interval-in-days rule for
		// the consumer instead of a weekday set.
		p.IntervalDays = it.IntervalDays
		p.AnchorDate = anchor.UTC().Format("2006-01-02")
	case intent.FrequencyBiWeekly:
		// Biweekly means every 14 days from the anchor date here; see the
		// design notes for the twice-per-month reading that was rejected.
		p.IntervalDays = 14
		p.AnchorDate = anchor.UTC().Format("2006-01-02")
	default:
		return nil, fmt.Errorf("schedule: unknown frequency type %q", it.Frequency)
	}

	for _, cand := range p.Occurrences() {
		if hit, collides := g.findCollision(cand, existing); collides {
			return nil, &ConflictError{TaskName: it.TaskName, Candidate: cand, Existing: hit}
		}
	}
	return p, nil
}

func (g *Generator) findCollision(cand Occurrence, existing []Occurrence) (Occurrence, bool) {
	windowMinutes := int(g.window / time.Minute)
	for _, ex := range existing {
		if ex.Weekday != cand.Weekday {
			continue
		}
		delta := cand.Time.MinuteOfDay() - ex.Time.MinuteOfDay()
		if delta < 0 {
			delta = -delta
		}
		if delta <= windowMinutes {
			return ex, true
		}
	}
	return Occurrence{}, false
}

func weekdayOf(t time.Time) intent.Weekday {
	// time.Weekday counts Sunday=0; ours counts Monday=0.
	return intent.Weekday((int(t.Weekday()) + 6) % 7)
}
