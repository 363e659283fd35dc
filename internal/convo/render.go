package convo

import (
	"fmt"
	"strings"

	"github.com/PHILLJAY/lockInBot/internal/intent"
	"github.com/PHILLJAY/lockInBot/internal/schedule"
)

// Render turns an OutboundAction into the plain text sent back on the
// channel the turn arrived on.
func Render(a OutboundAction) string {
	var b strings.Builder
	if a.PriorExpired && a.Kind != ActionExpired {
		b.WriteString("Your previous reminder setup expired, so let's start fresh. ")
	}
	switch a.Kind {
	case ActionAskClarification:
		if a.Reason != "" {
			b.WriteString(a.Reason)
			b.WriteString(" ")
		}
		b.WriteString(askFor(a.Field))
	case ActionProposeSchedule:
		b.WriteString(describePattern(a.Pattern))
		b.WriteString("\nShall I set that up? (yes/no)")
	case ActionReportConflict:
		c := a.Conflict
		b.WriteString(fmt.Sprintf("That time collides with an existing reminder on %s at %s (yours would be %s at %s).",
			c.Existing.Weekday, c.Existing.Time, c.Candidate.Weekday, c.Candidate.Time))
		b.WriteString(" What other time would work?")
	case ActionMaterialized:
		b.WriteString(fmt.Sprintf("Done! Your %q reminders are set.", a.Pattern.TaskName))
	case ActionExpired:
		b.WriteString("That conversation expired, so nothing was scheduled. Tell me about the habit again and we'll set it up from scratch.")
	}
	return b.String()
}

func askFor(f intent.Field) string {
	switch f {
	case intent.FieldTaskName:
		return "What habit or task should I remind you about?"
	case intent.FieldFrequency:
		return "How often should this happen? (daily, N times a week, specific days, or every N days)"
	case intent.FieldTime:
		return "What time of day works for you?"
	default:
		return "Tell me more about the reminder you want."
	}
}

func describePattern(p *schedule.Pattern) string {
	if p == nil {
		return "I have a schedule ready."
	}
	when := p.Time.String()
	switch {
	case p.IntervalDays > 0:
		every := fmt.Sprintf("every %d days", p.IntervalDays)
		if p.IntervalDays == 14 {
			every = "every two weeks"
		}
		return fmt.Sprintf("Here's the plan: %q %s at %s, starting %s.", p.TaskName, every, when, p.AnchorDate)
	case len(p.Weekdays) == 7:
		return fmt.Sprintf("Here's the plan: %q every day at %s.", p.TaskName, when)
	default:
		names := make([]string, len(p.Weekdays))
		for i, d := range p.Weekdays {
			names[i] = d.String()
		}
		return fmt.Sprintf("Here's the plan: %q on %s at %s.", p.TaskName, strings.Join(names, ", "), when)
	}
}
