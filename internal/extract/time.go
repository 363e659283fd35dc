package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PHILLJAY/lockInBot/internal/intent"
)

// timeLexiconEntry maps a relative time phrase to a normalized clock time.
// Entries are matched in order so longer phrases win over their substrings
// ("early morning" before "morning").
type timeLexiconEntry struct {
	phrase string
	at     intent.ClockTime
}

var timeLexicon = []timeLexiconEntry{
	{"early morning", intent.ClockTime{Hour: 6}},
	{"late morning", intent.ClockTime{Hour: 10}},
	{"early afternoon", intent.ClockTime{Hour: 13}},
	{"late afternoon", intent.ClockTime{Hour: 16}},
	{"early evening", intent.ClockTime{Hour: 17}},
	{"late evening", intent.ClockTime{Hour: 20}},
	{"before work", intent.ClockTime{Hour: 7}},
	{"after work", intent.ClockTime{Hour: 17, Minute: 30}},
	{"lunch time", intent.ClockTime{Hour: 12}},
	{"lunchtime", intent.ClockTime{Hour: 12}},
	{"before bed", intent.ClockTime{Hour: 21, Minute: 30}},
	{"wake up", intent.ClockTime{Hour: 7}},
	{"morning", intent.ClockTime{Hour: 8}},
	{"afternoon", intent.ClockTime{Hour: 14}},
	{"evening", intent.ClockTime{Hour: 18}},
	{"night", intent.ClockTime{Hour: 21}},
}

var (
	clock12Full  = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*([ap])\.?m?\.?\b`)
	clock12Short = regexp.MustCompile(`(?i)\b(\d{1,2})\s*([ap])m\b`)
	clock24      = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
)

// ParseClock parses an exact clock expression anywhere in text: 12-hour with
// or without minutes ("7:30 AM", "9pm") or 24-hour ("07:30").
func ParseClock(text string) (intent.ClockTime, bool) {
	if m := clock12Full.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		if t, ok := from12Hour(h, min, m[3]); ok {
			return t, true
		}
	}
	if m := clock12Short.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		if t, ok := from12Hour(h, 0, m[2]); ok {
			return t, true
		}
	}
	if m := clock24.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		t := intent.ClockTime{Hour: h, Minute: min}
		if t.Valid() {
			return t, true
		}
	}
	return intent.ClockTime{}, false
}

func from12Hour(hour, minute int, period string) (intent.ClockTime, bool) {
	if hour < 1 || hour > 12 {
		return intent.ClockTime{}, false
	}
	switch strings.ToLower(period) {
	case "p":
		if hour != 12 {
			hour += 12
		}
	case "a":
		if hour == 12 {
			hour = 0
		}
	}
	t := intent.ClockTime{Hour: hour, Minute: minute}
	return t, t.Valid()
}

// ParseTimePhrase finds a time preference in text: an exact clock expression
// or a lexicon phrase. Exact clock expressions win, so "7pm tonight" resolves
// to 19:00 rather than the "night" default. Returns the normalized time, the
// raw phrase that matched, whether the match was an exact clock expression,
// and ok.
func ParseTimePhrase(text string) (intent.ClockTime, string, bool, bool) {
	if m := clock12Full.FindString(text); m != "" {
		t, _ := ParseClock(m)
		return t, m, true, true
	}
	if m := clock12Short.FindString(text); m != "" {
		t, _ := ParseClock(m)
		return t, m, true, true
	}
	if m := clock24.FindString(text); m != "" {
		t, ok := ParseClock(m)
		if ok {
			return t, m, true, true
		}
	}
	lower := strings.ToLower(text)
	for _, e := range timeLexicon {
		if strings.Contains(lower, e.phrase) {
			return e.at, e.phrase, false, true
		}
	}
	return intent.ClockTime{}, "", false, false
}
