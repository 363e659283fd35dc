// Package arbiter reconciles the two extraction strategies into a single
// confidence-scored TaskIntent. Ties break toward the rule-based extractor:
// generative output is nondeterministic across calls and must not decide them.
package arbiter

import (
	"fmt"

	"github.com/PHILLJAY/lockInBot/internal/intent"
)

// AcceptanceThreshold is the minimum winning confidence for a field to be
// considered resolved; anything lower is demoted to missing and asked about.
const AcceptanceThreshold = 0.5

// Merge combines one turn's rule-based and generative results. genOK=false
// means the generative extractor was unavailable: the rule-based value is
// taken outright, its own confidence acting as the ceiling.
func Merge(rule, gen intent.PartialIntent, genOK bool) intent.TaskIntent {
	t := intent.TaskIntent{
		FieldConfidence: make(map[intent.Field]float64),
		Rejections:      make(map[intent.Field]string),
	}

	mergeTaskName(&t, rule, gen, genOK)
	mergeFrequency(&t, rule, gen, genOK)
	mergeTime(&t, rule, gen, genOK)

	// Description is optional: never in missingFields, dropped when too long.
	desc := rule.Description
	if genOK && gen.Description != "" {
		desc = gen.Description
	}
	if intent.ValidateDescription(desc) == nil {
		t.Description = desc
	}

	Normalize(&t)
	return t
}

// pick chooses between the two candidates for one field. Returns which
// extractor won and whether any candidate exists.
func pick(f intent.Field, rule, gen intent.PartialIntent, genOK bool) (useGen bool, conf float64, ok bool) {
	ruleHas := rule.Has(f)
	genHas := genOK && gen.Has(f)
	switch {
	case ruleHas && genHas:
		// Exact tie goes to the rule-based value: deterministic, reproducible.
		if gen.Confidence[f] > rule.Confidence[f] {
			return true, gen.Confidence[f], true
		}
		return false, rule.Confidence[f], true
	case ruleHas:
		return false, rule.Confidence[f], true
	case genHas:
		return true, gen.Confidence[f], true
	default:
		return false, 0, false
	}
}

func mergeTaskName(t *intent.TaskIntent, rule, gen intent.PartialIntent, genOK bool) {
	useGen, conf, ok := pick(intent.FieldTaskName, rule, gen, genOK)
	if !ok {
		markMissing(t, intent.FieldTaskName, "")
		return
	}
	name := rule.TaskName
	if useGen {
		name = gen.TaskName
	}
	t.TaskName = name
	t.FieldConfidence[intent.FieldTaskName] = intent.Clamp01(conf)
	if conf < AcceptanceThreshold {
		markMissing(t, intent.FieldTaskName, "")
		return
	}
	if err := intent.ValidateTaskName(name); err != nil {
		markMissing(t, intent.FieldTaskName, err.Error())
	}
}

func mergeFrequency(t *intent.TaskIntent, rule, gen intent.PartialIntent, genOK bool) {
	useGen, conf, ok := pick(intent.FieldFrequency, rule, gen, genOK)
	if !ok {
		markMissing(t, intent.FieldFrequency, "")
		return
	}
	src := rule
	if useGen {
		src = gen
	}
	t.Frequency = src.Frequency
	t.WeeklyCount = src.WeeklyCount
	t.IntervalDays = src.IntervalDays
	t.Days = intent.SortWeekdays(src.Days)
	t.FieldConfidence[intent.FieldFrequency] = intent.Clamp01(conf)
	if conf < AcceptanceThreshold {
		markMissing(t, intent.FieldFrequency, "")
		return
	}
	// Range checks reject out-of-bounds values outright; the field is demoted
	// to missing with the reason retained for the next clarifying question.
	if err := intent.ValidateFrequency(src); err != nil {
		markMissing(t, intent.FieldFrequency, err.Error())
	}
}

func mergeTime(t *intent.TaskIntent, rule, gen intent.PartialIntent, genOK bool) {
	useGen, conf, ok := pick(intent.FieldTime, rule, gen, genOK)
	if !ok {
		markMissing(t, intent.FieldTime, "")
		return
	}
	src := rule
	if useGen {
		src = gen
	}
	t.TimePhrase = src.TimePhrase
	t.FieldConfidence[intent.FieldTime] = intent.Clamp01(conf)
	if conf < AcceptanceThreshold {
		markMissing(t, intent.FieldTime, "")
		return
	}
	if src.Time == nil || !src.Time.Valid() {
		markMissing(t, intent.FieldTime, fmt.Sprintf("could not understand %q as a time of day", src.TimePhrase))
		return
	}
	at := *src.Time
	t.PendingTime = &at
}

func markMissing(t *intent.TaskIntent, f intent.Field, reason string) {
	if !t.Missing(f) {
		t.MissingFields = append(t.MissingFields, f)
	}
	if reason != "" {
		t.Rejections[f] = reason
	}
}

// Fold merges a newly arbitrated turn into the pending intent. A field is
// overwritten only when the new merge result carries strictly higher
// confidence, so a correction can override an earlier guess while a
// restatement cannot regress it.
func Fold(prev, next intent.TaskIntent) intent.TaskIntent {
	out := prev
	out.FieldConfidence = copyConf(prev.FieldConfidence)
	out.Rejections = copyReasons(prev.Rejections)
	out.MissingFields = append([]intent.Field(nil), prev.MissingFields...)

	if takeNext(prev, next, intent.FieldTaskName) {
		out.TaskName = next.TaskName
		adoptField(&out, next, intent.FieldTaskName)
	} else {
		adoptReason(&out, next, intent.FieldTaskName)
	}

	if takeNext(prev, next, intent.FieldFrequency) {
		out.Frequency = next.Frequency
		out.WeeklyCount = next.WeeklyCount
		out.IntervalDays = next.IntervalDays
		out.Days = next.Days
		adoptField(&out, next, intent.FieldFrequency)
	} else {
		adoptReason(&out, next, intent.FieldFrequency)
	}

	if takeNext(prev, next, intent.FieldTime) {
		out.TimePhrase = next.TimePhrase
		out.PendingTime = next.PendingTime
		adoptField(&out, next, intent.FieldTime)
	} else {
		adoptReason(&out, next, intent.FieldTime)
	}

	if next.Description != "" {
		out.Description = next.Description
	}

	Normalize(&out)
	return out
}

// takeNext reports whether next's value for f should replace prev's.
func takeNext(prev, next intent.TaskIntent, f intent.Field) bool {
	if next.Missing(f) {
		return false
	}
	if prev.Missing(f) {
		return true
	}
	return next.FieldConfidence[f] > prev.FieldConfidence[f]
}

func adoptField(t *intent.TaskIntent, next intent.TaskIntent, f intent.Field) {
	t.FieldConfidence[f] = next.FieldConfidence[f]
	delete(t.Rejections, f)
	kept := t.MissingFields[:0]
	for _, m := range t.MissingFields {
		if m != f {
			kept = append(kept, m)
		}
	}
	t.MissingFields = kept
}

// adoptReason keeps the freshest rejection explanation for a still-missing
// field so the next clarifying question can cite it.
func adoptReason(t *intent.TaskIntent, next intent.TaskIntent, f intent.Field) {
	if t.Missing(f) && next.Rejections[f] != "" {
		t.Rejections[f] = next.Rejections[f]
	}
}

// Normalize enforces the resolution invariant: ResolvedTime stays nil until
// every other required field is present.
func Normalize(t *intent.TaskIntent) {
	if t.Missing(intent.FieldTaskName) || t.Missing(intent.FieldFrequency) || t.Missing(intent.FieldTime) {
		t.ResolvedTime = nil
		return
	}
	if t.PendingTime != nil {
		at := *t.PendingTime
		t.ResolvedTime = &at
	}
}

func copyConf(m map[intent.Field]float64) map[intent.Field]float64 {
	out := make(map[intent.Field]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyReasons(m map[intent.Field]string) map[intent.Field]string {
	out := make(map[intent.Field]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
