package intent

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	minTaskNameLen    = 2
	maxTaskNameLen    = 100
	maxDescriptionLen = 500

	// Frequency bounds: a weekly count cannot exceed the days in a week,
	// an interval beyond two weeks is treated as out of scope.
	MinWeeklyCount  = 1
	MaxWeeklyCount  = 7
	MinIntervalDays = 1
	MaxIntervalDays = 14
)

var invalidNameChars = regexp.MustCompile(`[<>@#&]`)

// ValidateTaskName enforces the task-name contract: non-empty after trimming,
// 2-100 characters, no channel-control characters.
func ValidateTaskName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("task name cannot be empty")
	}
	if len(name) < minTaskNameLen {
		return fmt.Errorf("task name must be at least %d characters", minTaskNameLen)
	}
	if len(name) > maxTaskNameLen {
		return fmt.Errorf("task name must be %d characters or less", maxTaskNameLen)
	}
	if invalidNameChars.MatchString(name) {
		return fmt.Errorf("task name contains invalid characters")
	}
	return nil
}

// ValidateDescription checks the optional description length.
func ValidateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) > maxDescriptionLen {
		return fmt.Errorf("description must be %d characters or less", maxDescriptionLen)
	}
	return nil
}

// ValidateFrequency range-checks the frequency value for its type. Values out
// of range are rejected, never clamped.
func ValidateFrequency(p PartialIntent) error {
	switch p.Frequency {
	case FrequencyDaily, FrequencyBiWeekly:
		return nil
	case FrequencyWeeklyCount:
		if p.WeeklyCount < MinWeeklyCount || p.WeeklyCount > MaxWeeklyCount {
			return fmt.Errorf("weekly count %d out of range [%d,%d]", p.WeeklyCount, MinWeeklyCount, MaxWeeklyCount)
		}
		return nil
	case FrequencyInterval:
		if p.IntervalDays < MinIntervalDays || p.IntervalDays > MaxIntervalDays {
			return fmt.Errorf("interval of %d days out of range [%d,%d]", p.IntervalDays, MinIntervalDays, MaxIntervalDays)
		}
		return nil
	case FrequencySpecificDays:
		if len(SortWeekdays(p.Days)) == 0 {
			return fmt.Errorf("no valid weekdays given")
		}
		return nil
	default:
		return fmt.Errorf("unknown frequency type %q", p.Frequency)
	}
}
