package intent

import (
	"fmt"
	"sort"
	"strings"
)

// FrequencyType classifies how often a recurring task repeats.
type FrequencyType string

const (
	FrequencyDaily        FrequencyType = "daily"
	FrequencyWeeklyCount  FrequencyType = "weekly_count"
	FrequencySpecificDays FrequencyType = "specific_days"
	FrequencyInterval     FrequencyType = "interval"
	FrequencyBiWeekly     FrequencyType = "bi_weekly"
)

// Field names a slot of a TaskIntent that extraction must fill.
type Field string

const (
	FieldTaskName  Field = "task_name"
	FieldFrequency Field = "frequency"
	FieldTime      Field = "time"
)

// ClarificationOrder is the fixed precedence used when more than one
// field is missing: ask for the task name first, then frequency, then time.
var ClarificationOrder = []Field{FieldTaskName, FieldFrequency, FieldTime}

// Weekday is a day of week with Monday = 0 through Sunday = 6.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func (w Weekday) String() string {
	if w < 0 || w > 6 {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// CronDOW converts to the cron day-of-week numbering (Sunday = 0).
func (w Weekday) CronDOW() int {
	return (int(w) + 1) % 7
}

// ParseWeekday maps a lowercase English day name to a Weekday.
func ParseWeekday(name string) (Weekday, bool) {
	for i, n := range weekdayNames {
		if strings.EqualFold(name, n) {
			return Weekday(i), true
		}
	}
	return 0, false
}

// SortWeekdays returns a sorted, de-duplicated copy.
func SortWeekdays(days []Weekday) []Weekday {
	seen := make(map[Weekday]bool, len(days))
	out := make([]Weekday, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ClockTime is a minute-precision time of day.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// MinuteOfDay returns minutes since midnight.
func (c ClockTime) MinuteOfDay() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) Valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

// PartialIntent is one extractor's view of a turn: proposed field values plus
// a per-field confidence map. Absent fields carry no confidence entry.
type PartialIntent struct {
	TaskName     string
	Frequency    FrequencyType
	WeeklyCount  int
	Days         []Weekday
	IntervalDays int
	TimePhrase   string
	Time         *ClockTime
	Description  string
	Confidence   map[Field]float64
}

// Has reports whether the extractor proposed a value for the field.
func (p PartialIntent) Has(f Field) bool {
	_, ok := p.Confidence[f]
	return ok
}

// TaskIntent is the arbitrated, validated task request. ResolvedTime stays nil
// until every other required field for the chosen frequency type is present.
type TaskIntent struct {
	TaskName        string             `json:"taskName"`
	Frequency       FrequencyType      `json:"frequency"`
	WeeklyCount     int                `json:"weeklyCount,omitempty"`
	Days            []Weekday          `json:"days,omitempty"`
	IntervalDays    int                `json:"intervalDays,omitempty"`
	TimePhrase      string             `json:"timePhrase,omitempty"`
	PendingTime     *ClockTime         `json:"pendingTime,omitempty"`
	ResolvedTime    *ClockTime         `json:"resolvedTime,omitempty"`
	Description     string             `json:"description,omitempty"`
	FieldConfidence map[Field]float64  `json:"fieldConfidence"`
	MissingFields   []Field            `json:"missingFields"`
	Rejections      map[Field]string   `json:"rejections,omitempty"`
}

// Missing reports whether the field is still unresolved.
func (t TaskIntent) Missing(f Field) bool {
	for _, m := range t.MissingFields {
		if m == f {
			return true
		}
	}
	return false
}

// NextMissing returns the highest-priority missing field.
func (t TaskIntent) NextMissing() (Field, bool) {
	for _, f := range ClarificationOrder {
		if t.Missing(f) {
			return f, true
		}
	}
	return "", false
}

// Resolved reports whether no required field is missing.
func (t TaskIntent) Resolved() bool {
	return len(t.MissingFields) == 0
}

// OverallConfidence is the minimum confidence over resolved fields, not an
// average: the weakest link decides whether the intent may proceed.
func (t TaskIntent) OverallConfidence() float64 {
	min := 0.0
	first := true
	for _, f := range ClarificationOrder {
		if t.Missing(f) {
			continue
		}
		c, ok := t.FieldConfidence[f]
		if !ok {
			continue
		}
		if first || c < min {
			min = c
			first = false
		}
	}
	if first {
		return 0
	}
	return min
}

// Clamp01 bounds a confidence value to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
