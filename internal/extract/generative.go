package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/PHILLJAY/lockInBot/internal/intent"
	"github.com/PHILLJAY/lockInBot/internal/providers"
)

const (
	// DefaultTimeout bounds the single external request. On expiry the
	// adapter reports unavailable; retry policy belongs to the caller.
	DefaultTimeout = 5 * time.Second

	defaultFieldConfidence = 0.5
)

const extractionPrompt = `Parse this recurring-task request and extract structured information.

Input: %q
%s
Respond with ONLY this JSON:
{
  "task_name": "extracted activity or null",
  "frequency_type": "daily|weekly_count|specific_days|interval|bi_weekly|unknown",
  "frequency_value": "number, or list of lowercase day names",
  "time_preference": "extracted time phrase or null",
  "confidence": {"task_name": 0-100, "frequency": 0-100, "time": 0-100}
}

Examples:
- "work out 3 times a week" -> {"task_name": "work out", "frequency_type": "weekly_count", "frequency_value": 3, "confidence": {"task_name": 90, "frequency": 90}}
- "read every weekday morning" -> {"task_name": "read", "frequency_type": "specific_days", "frequency_value": ["monday","tuesday","wednesday","thursday","friday"], "time_preference": "morning", "confidence": {"task_name": 95, "frequency": 95, "time": 85}}
- "exercise" -> {"task_name": "exercise", "frequency_type": "unknown", "confidence": {"task_name": 70}}`

// Generative wraps a single LLM extraction request behind a hard timeout.
// Any failure past this boundary degrades to unavailable, never an error.
type Generative struct {
	provider providers.Provider
	model    string
	timeout  time.Duration
}

func NewGenerative(p providers.Provider, model string, timeout time.Duration) *Generative {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generative{provider: p, model: model, timeout: timeout}
}

// Extract asks the model to structure the turn. history is the bounded
// recent-turn context; ok=false means the extractor was unavailable this
// turn and the caller should proceed rule-based only.
func (g *Generative) Extract(ctx context.Context, text string, history []string) (intent.PartialIntent, bool) {
	if g == nil || g.provider == nil {
		return intent.PartialIntent{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var contextBlock string
	if len(history) > 0 {
		contextBlock = fmt.Sprintf("\nRecent conversation turns, oldest first:\n%s\n", strings.Join(history, "\n"))
	}

	resp, err := g.provider.Chat(ctx, providers.ChatRequest{
		Model: g.model,
		Messages: []providers.Message{
			{Role: "user", Content: fmt.Sprintf(extractionPrompt, text, contextBlock)},
		},
		MaxTokens:   300,
		Temperature: 0.3,
	})
	if err != nil {
		slog.Warn("generative extractor unavailable", "error", err)
		return intent.PartialIntent{}, false
	}

	p, ok := parseExtraction(resp.Content)
	if !ok {
		slog.Warn("generative extractor returned malformed response")
		return intent.PartialIntent{}, false
	}
	return p, true
}

// parseExtraction pulls the intent fields out of the model reply. Models wrap
// JSON in prose, so the reply is sliced to its outermost braces first and
// then read with gjson, which tolerates minor sloppiness.
func parseExtraction(content string) (intent.PartialIntent, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return intent.PartialIntent{}, false
	}
	doc := content[start : end+1]
	if !gjson.Valid(doc) {
		return intent.PartialIntent{}, false
	}

	p := intent.PartialIntent{Confidence: make(map[intent.Field]float64)}

	if name := gjson.Get(doc, "task_name"); name.Type == gjson.String && strings.TrimSpace(name.String()) != "" {
		p.TaskName = strings.TrimSpace(name.String())
		p.Confidence[intent.FieldTaskName] = fieldConfidence(doc, "task_name")
	}

	freq := intent.FrequencyType(gjson.Get(doc, "frequency_type").String())
	value := gjson.Get(doc, "frequency_value")
	if applyFrequency(&p, freq, value) {
		p.Confidence[intent.FieldFrequency] = fieldConfidence(doc, "frequency")
	}

	if pref := gjson.Get(doc, "time_preference"); pref.Type == gjson.String && strings.TrimSpace(pref.String()) != "" {
		p.TimePhrase = strings.TrimSpace(pref.String())
		if at, _, _, ok := ParseTimePhrase(p.TimePhrase); ok {
			t := at
			p.Time = &t
		}
		p.Confidence[intent.FieldTime] = fieldConfidence(doc, "time")
	}

	if desc := gjson.Get(doc, "description"); desc.Type == gjson.String {
		p.Description = strings.TrimSpace(desc.String())
	}

	return p, true
}

func applyFrequency(p *intent.PartialIntent, freq intent.FrequencyType, value gjson.Result) bool {
	switch freq {
	case intent.FrequencyDaily:
		p.Frequency = freq
		return true
	case intent.FrequencyBiWeekly:
		p.Frequency = freq
		p.IntervalDays = 14
		return true
	case intent.FrequencyWeeklyCount:
		p.Frequency = freq
		p.WeeklyCount = int(value.Int())
		return true
	case intent.FrequencyInterval:
		p.Frequency = freq
		p.IntervalDays = int(value.Int())
		return true
	case intent.FrequencySpecificDays:
		var days []intent.Weekday
		for _, d := range value.Array() {
			if wd, ok := intent.ParseWeekday(d.String()); ok {
				days = append(days, wd)
			}
		}
		if len(days) == 0 {
			return false
		}
		p.Frequency = freq
		p.Days = intent.SortWeekdays(days)
		return true
	default:
		return false
	}
}

// fieldConfidence reads a 0-100 score, clamped to [0,1]; absent scores
// default to 0.5.
func fieldConfidence(doc, field string) float64 {
	r := gjson.Get(doc, "confidence."+field)
	if !r.Exists() {
		// Older prompt revisions reported a single top-level score.
		r = gjson.Get(doc, "confidence")
		if r.Type != gjson.Number {
			return defaultFieldConfidence
		}
	}
	if r.Type != gjson.Number {
		return defaultFieldConfidence
	}
	return intent.Clamp01(r.Float() / 100.0)
}
