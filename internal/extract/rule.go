// Package extract turns a raw conversational turn into a PartialIntent via
// two independent strategies: a deterministic rule-based pass and a
// generative adapter. The arbiter package reconciles the two.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PHILLJAY/lockInBot/internal/intent"
)

// Rule-based confidences sit in a narrow band: pattern matches are reliable
// but shallow, so they never report 0 or 1.
const (
	confNameLexicon  = 0.70
	confNameStripped = 0.60
	confFrequency    = 0.70
	confDailyDefault = 0.40
	confTimeClock    = 0.75
	confTimeLexicon  = 0.65
)

type frequencyMatch struct {
	freq         intent.FrequencyType
	weeklyCount  int
	intervalDays int
	days         []intent.Weekday
	phrase       string
}

type frequencyPattern struct {
	re    *regexp.Regexp
	apply func(m []string) frequencyMatch
}

var weekdaySet = map[string][]intent.Weekday{
	"weekday": {intent.Monday, intent.Tuesday, intent.Wednesday, intent.Thursday, intent.Friday},
	"workday": {intent.Monday, intent.Tuesday, intent.Wednesday, intent.Thursday, intent.Friday},
	"weekend": {intent.Saturday, intent.Sunday},
}

var countWords = map[string]int{
	"once": 1, "twice": 2, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7,
}

// frequencyPatterns is priority ordered: the most specific phrasing is
// checked first so "3 times a week" never degrades to the daily default.
var frequencyPatterns = []frequencyPattern{
	{
		re: regexp.MustCompile(`(?i)\b(\d+)\s*times?\s*(?:a|per)\s*week\b`),
		apply: func(m []string) frequencyMatch {
			n, _ := strconv.Atoi(m[1])
			return frequencyMatch{freq: intent.FrequencyWeeklyCount, weeklyCount: n, phrase: m[0]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(once|twice|two|three|four|five|six|seven)\s*(?:times?\s*)?(?:a|per)\s*week\b`),
		apply: func(m []string) frequencyMatch {
			return frequencyMatch{freq: intent.FrequencyWeeklyCount, weeklyCount: countWords[strings.ToLower(m[1])], phrase: m[0]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bevery\s+two\s+weeks\b|\bbi-?weekly\b|\btwice\s+a\s+month\b`),
		apply: func(m []string) frequencyMatch {
			return frequencyMatch{freq: intent.FrequencyBiWeekly, intervalDays: 14, phrase: m[0]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bevery\s+other\s+day\b`),
		apply: func(m []string) frequencyMatch {
			return frequencyMatch{freq: intent.FrequencyInterval, intervalDays: 2, phrase: m[0]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bevery\s+(\d+|two|three|four|five|six|seven)\s+days\b`),
		apply: func(m []string) frequencyMatch {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				n = countWords[strings.ToLower(m[1])]
			}
			return frequencyMatch{freq: intent.FrequencyInterval, intervalDays: n, phrase: m[0]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(weekday|workday|weekend)s?(?:\s+only)?\b`),
		apply: func(m []string) frequencyMatch {
			return frequencyMatch{freq: intent.FrequencySpecificDays, days: weekdaySet[strings.ToLower(m[1])], phrase: m[0]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\s*(?:through|to|-)\s*(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		apply: func(m []string) frequencyMatch {
			from, _ := intent.ParseWeekday(m[1])
			to, _ := intent.ParseWeekday(m[2])
			var days []intent.Weekday
			for d := from; ; d = (d + 1) % 7 {
				days = append(days, d)
				if d == to {
					break
				}
			}
			return frequencyMatch{freq: intent.FrequencySpecificDays, days: days, phrase: m[0]}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bdaily\b|\bevery\s+day\b|\beach\s+day\b|\bevery\s+night\b|\bevery\s+morning\b|\bevery\s+evening\b`),
		apply: func(m []string) frequencyMatch {
			return frequencyMatch{freq: intent.FrequencyDaily, phrase: m[0]}
		},
	},
}

var (
	dayNameRe = regexp.MustCompile(`(?i)\b(?:every\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)s?\b`)
	fillerRe  = regexp.MustCompile(`(?i)^\s*(?:i\s+(?:want|need|would\s+like)\s+to|i\s+should|i'?m\s+going\s+to|my\s+goal\s+is\s+to|goal\s+is\s+to|plan\s+to|remind\s+me\s+to|let'?s)\s+`)
	danglerRe = regexp.MustCompile(`(?i)\s*\b(?:at|in\s+the|on|every|each|a|per|the)\s*$`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// activityLexicon lists common recurring activities, multi-word entries
// first. A hit both names the task and raises name confidence.
var activityLexicon = []string{
	"work out", "meal prep",
	"exercise", "run", "jog", "lift", "gym",
	"read", "study", "learn", "practice",
	"meditate", "yoga", "stretch",
	"write", "journal", "blog",
	"cook", "eat",
	"walk", "hike", "bike",
	"code", "program", "develop",
	"clean", "organize", "tidy",
}

// RuleBased deterministically extracts a PartialIntent from raw text. It is
// synchronous, does no I/O, and always proposes a frequency: when no pattern
// matches it defaults to daily at a lowered confidence marking the guess.
func RuleBased(text string) intent.PartialIntent {
	p := intent.PartialIntent{Confidence: make(map[intent.Field]float64)}
	stripped := text

	// Frequency: priority table first, then bare weekday mentions.
	matched := false
	for _, fp := range frequencyPatterns {
		m := fp.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		fm := fp.apply(m)
		p.Frequency = fm.freq
		p.WeeklyCount = fm.weeklyCount
		p.IntervalDays = fm.intervalDays
		p.Days = intent.SortWeekdays(fm.days)
		p.Confidence[intent.FieldFrequency] = confFrequency
		stripped = removeAll(stripped, fp.re)
		matched = true
		break
	}
	if !matched {
		if days := findDayNames(text); len(days) > 0 {
			p.Frequency = intent.FrequencySpecificDays
			p.Days = days
			p.Confidence[intent.FieldFrequency] = confFrequency
			stripped = removeAll(stripped, dayNameRe)
			matched = true
		}
	}
	if !matched {
		p.Frequency = intent.FrequencyDaily
		p.Confidence[intent.FieldFrequency] = confDailyDefault
	}

	// Time preference.
	if at, phrase, exact, ok := ParseTimePhrase(text); ok {
		t := at
		p.Time = &t
		p.TimePhrase = phrase
		if exact {
			p.Confidence[intent.FieldTime] = confTimeClock
		} else {
			p.Confidence[intent.FieldTime] = confTimeLexicon
		}
		stripped = removePhrase(stripped, phrase)
	}

	// Task name: a known activity wins outright, otherwise whatever remains
	// after stripping recognized phrases and leading filler.
	lower := strings.ToLower(text)
	for _, act := range activityLexicon {
		if containsWord(lower, act) {
			p.TaskName = act
			p.Confidence[intent.FieldTaskName] = confNameLexicon
			break
		}
	}
	if p.TaskName == "" {
		name := cleanRemainder(stripped)
		if len(name) >= 2 {
			p.TaskName = name
			p.Confidence[intent.FieldTaskName] = confNameStripped
		}
	}

	return p
}

func findDayNames(text string) []intent.Weekday {
	var days []intent.Weekday
	for _, m := range dayNameRe.FindAllStringSubmatch(text, -1) {
		if d, ok := intent.ParseWeekday(m[1]); ok {
			days = append(days, d)
		}
	}
	return intent.SortWeekdays(days)
}

func removeAll(text string, re *regexp.Regexp) string {
	return re.ReplaceAllString(text, " ")
}

func removePhrase(text, phrase string) string {
	if phrase == "" {
		return text
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(phrase))
	if err != nil {
		return text
	}
	return re.ReplaceAllString(text, " ")
}

func cleanRemainder(text string) string {
	text = fillerRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	for {
		next := danglerRe.ReplaceAllString(text, "")
		if next == text {
			break
		}
		text = next
	}
	text = strings.Trim(text, " ,.!?\t\n")
	return text
}

func containsWord(text, word string) bool {
	idx := strings.Index(text, word)
	for idx >= 0 {
		beforeOK := idx == 0 || !isLetter(text[idx-1])
		end := idx + len(word)
		afterOK := end >= len(text) || !isLetter(text[end])
		if beforeOK && afterOK {
			return true
		}
		rest := strings.Index(text[idx+1:], word)
		if rest < 0 {
			return false
		}
		idx = idx + 1 + rest
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
