package extract

import (
	"testing"

	"github.com/PHILLJAY/lockInBot/internal/intent"
)

func TestRuleBasedWeeklyCount(t *testing.T) {
	p := RuleBased("I want to work out 3 times a week")

	if p.TaskName != "work out" {
		t.Errorf("TaskName = %q, want %q", p.TaskName, "work out")
	}
	if p.Confidence[intent.FieldTaskName] < 0.7 {
		t.Errorf("name confidence = %v, want >= 0.7", p.Confidence[intent.FieldTaskName])
	}
	if p.Frequency != intent.FrequencyWeeklyCount || p.WeeklyCount != 3 {
		t.Errorf("frequency = %v/%d, want weekly_count/3", p.Frequency, p.WeeklyCount)
	}
	if p.Confidence[intent.FieldFrequency] != 0.7 {
		t.Errorf("frequency confidence = %v, want 0.7", p.Confidence[intent.FieldFrequency])
	}
	if p.Has(intent.FieldTime) {
		t.Errorf("unexpected time extraction: %v", p.Time)
	}
}

func TestRuleBasedWordCount(t *testing.T) {
	p := RuleBased("meditate twice a week")
	if p.Frequency != intent.FrequencyWeeklyCount || p.WeeklyCount != 2 {
		t.Fatalf("frequency = %v/%d, want weekly_count/2", p.Frequency, p.WeeklyCount)
	}
	if p.TaskName != "meditate" {
		t.Errorf("TaskName = %q, want %q", p.TaskName, "meditate")
	}
}

func TestRuleBasedDailyDefault(t *testing.T) {
	p := RuleBased("I want to read more")

	if p.TaskName != "read" {
		t.Errorf("TaskName = %q, want %q", p.TaskName, "read")
	}
	if p.Frequency != intent.FrequencyDaily {
		t.Errorf("frequency = %v, want daily default", p.Frequency)
	}
	if got := p.Confidence[intent.FieldFrequency]; got != 0.4 {
		t.Errorf("default frequency confidence = %v, want 0.4", got)
	}
}

func TestRuleBasedBareDayNames(t *testing.T) {
	p := RuleBased("gym on mondays and thursdays")

	if p.Frequency != intent.FrequencySpecificDays {
		t.Fatalf("frequency = %v, want specific_days", p.Frequency)
	}
	want := []intent.Weekday{intent.Monday, intent.Thursday}
	if len(p.Days) != len(want) {
		t.Fatalf("days = %v, want %v", p.Days, want)
	}
	for i, d := range want {
		if p.Days[i] != d {
			t.Errorf("days[%d] = %v, want %v", i, p.Days[i], d)
		}
	}
	if p.TaskName != "gym" {
		t.Errorf("TaskName = %q, want %q", p.TaskName, "gym")
	}
}

func TestRuleBasedWeekdaySet(t *testing.T) {
	p := RuleBased("stretch on weekdays")
	if p.Frequency != intent.FrequencySpecificDays || len(p.Days) != 5 {
		t.Fatalf("frequency = %v days %v, want specific_days Mon-Fri", p.Frequency, p.Days)
	}
	if p.Days[0] != intent.Monday || p.Days[4] != intent.Friday {
		t.Errorf("days = %v, want Monday..Friday", p.Days)
	}
}

func TestRuleBasedBiweekly(t *testing.T) {
	p := RuleBased("meal prep every two weeks")
	if p.Frequency != intent.FrequencyBiWeekly || p.IntervalDays != 14 {
		t.Fatalf("frequency = %v/%d, want bi_weekly/14", p.Frequency, p.IntervalDays)
	}
	if p.TaskName != "meal prep" {
		t.Errorf("TaskName = %q, want %q", p.TaskName, "meal prep")
	}
}

func TestRuleBasedInterval(t *testing.T) {
	p := RuleBased("water the plants every 3 days")
	if p.Frequency != intent.FrequencyInterval || p.IntervalDays != 3 {
		t.Fatalf("frequency = %v/%d, want interval/3", p.Frequency, p.IntervalDays)
	}
}

func TestRuleBasedEveryOtherDay(t *testing.T) {
	p := RuleBased("jog every other day")
	if p.Frequency != intent.FrequencyInterval || p.IntervalDays != 2 {
		t.Fatalf("frequency = %v/%d, want interval/2", p.Frequency, p.IntervalDays)
	}
}

func TestRuleBasedClockTime(t *testing.T) {
	p := RuleBased("run at 7:30 am")

	if p.Time == nil {
		t.Fatal("expected a time extraction")
	}
	if p.Time.Hour != 7 || p.Time.Minute != 30 {
		t.Errorf("time = %v, want 07:30", p.Time)
	}
	if got := p.Confidence[intent.FieldTime]; got != 0.75 {
		t.Errorf("clock time confidence = %v, want 0.75", got)
	}
}

func TestRuleBasedLexiconTime(t *testing.T) {
	p := RuleBased("read every day before bed")

	if p.Time == nil {
		t.Fatal("expected a time extraction")
	}
	if p.Time.Hour != 21 || p.Time.Minute != 30 {
		t.Errorf("time = %v, want 21:30", p.Time)
	}
	if got := p.Confidence[intent.FieldTime]; got != 0.65 {
		t.Errorf("lexicon time confidence = %v, want 0.65", got)
	}
	if p.Frequency != intent.FrequencyDaily || p.Confidence[intent.FieldFrequency] != 0.7 {
		t.Errorf("frequency = %v @ %v, want daily @ 0.7", p.Frequency, p.Confidence[intent.FieldFrequency])
	}
}

func TestRuleBasedStrippedName(t *testing.T) {
	p := RuleBased("I want to water the plants every day at 8pm")

	if p.TaskName != "water the plants" {
		t.Errorf("TaskName = %q, want %q", p.TaskName, "water the plants")
	}
	if got := p.Confidence[intent.FieldTaskName]; got != 0.6 {
		t.Errorf("stripped name confidence = %v, want 0.6", got)
	}
	if p.Time == nil || p.Time.Hour != 20 || p.Time.Minute != 0 {
		t.Errorf("time = %v, want 20:00", p.Time)
	}
}

func TestRuleBasedNoName(t *testing.T) {
	p := RuleBased("every day")
	if p.Has(intent.FieldTaskName) {
		t.Errorf("unexpected task name %q", p.TaskName)
	}
	if p.Frequency != intent.FrequencyDaily || p.Confidence[intent.FieldFrequency] != 0.7 {
		t.Errorf("frequency = %v @ %v, want daily @ 0.7", p.Frequency, p.Confidence[intent.FieldFrequency])
	}
}

func TestRuleBasedDeterministic(t *testing.T) {
	const text = "exercise 4 times per week in the early morning"
	a := RuleBased(text)
	b := RuleBased(text)

	if a.TaskName != b.TaskName || a.Frequency != b.Frequency || a.WeeklyCount != b.WeeklyCount {
		t.Fatalf("extraction not deterministic: %+v vs %+v", a, b)
	}
	for f, c := range a.Confidence {
		if b.Confidence[f] != c {
			t.Errorf("confidence[%s] differs: %v vs %v", f, c, b.Confidence[f])
		}
	}
}
