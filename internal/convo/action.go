package convo

import (
	"github.com/PHILLJAY/lockInBot/internal/intent"
	"github.com/PHILLJAY/lockInBot/internal/schedule"
)

// ActionKind enumerates what the engine wants said back to the user.
type ActionKind int

const (
	// ActionAskClarification targets one specific missing field.
	ActionAskClarification ActionKind = iota
	// ActionProposeSchedule presents a generated pattern for confirmation.
	ActionProposeSchedule
	// ActionReportConflict surfaces a collision with an existing reminder.
	ActionReportConflict
	// ActionMaterialized confirms the schedule group was committed.
	ActionMaterialized
	// ActionExpired tells the user their previous conversation lapsed.
	ActionExpired
)

func (k ActionKind) String() string {
	switch k {
	case ActionAskClarification:
		return "ask_clarification"
	case ActionProposeSchedule:
		return "propose_schedule"
	case ActionReportConflict:
		return "report_conflict"
	case ActionMaterialized:
		return "materialized"
	case ActionExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// OutboundAction is the engine's answer to one turn.
type OutboundAction struct {
	Kind     ActionKind
	Field    intent.Field            // set for AskClarification
	Reason   string                  // rejection reason, when one was retained
	Pattern  *schedule.Pattern       // set for ProposeSchedule and Materialized
	Conflict *schedule.ConflictError // set for ReportConflict
	GroupID  string                  // set for Materialized
	// PriorExpired marks that an expired session was torn down before this
	// turn was processed as the start of a fresh one.
	PriorExpired bool
}
