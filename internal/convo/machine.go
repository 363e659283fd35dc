package convo

import "github.com/PHILLJAY/lockInBot/internal/session"

// Event is a semantic classification of what one processed turn did.
type Event int

const (
	// EventIntentIncomplete: the merge left one or more fields missing.
	EventIntentIncomplete Event = iota
	// EventIntentResolved: all fields present and a schedule was generated.
	EventIntentResolved
	// EventConflict: schedule generation collided with an existing reminder.
	EventConflict
	// EventAffirm / EventNegate: confirmation vocabulary matched.
	EventAffirm
	EventNegate
	// EventExpire: the inactivity window elapsed.
	EventExpire
)

// Events lists every event, for exhaustive-transition tests.
var Events = []Event{
	EventIntentIncomplete, EventIntentResolved, EventConflict,
	EventAffirm, EventNegate, EventExpire,
}

// States lists every state, for exhaustive-transition tests.
var States = []session.State{
	session.StateIdle, session.StateClarifying, session.StateConfirming,
	session.StateMaterialized, session.StateExpired,
}

// Transition is the single pure transition function of the conversation
// state machine. It is total over (state, event); the engine owns the side
// effects implied by the returned action kind.
func Transition(s session.State, ev Event) (session.State, ActionKind) {
	if ev == EventExpire {
		return session.StateExpired, ActionExpired
	}

	switch s {
	case session.StateConfirming:
		switch ev {
		case EventAffirm:
			return session.StateMaterialized, ActionMaterialized
		case EventNegate:
			return session.StateClarifying, ActionAskClarification
		case EventIntentIncomplete:
			return session.StateClarifying, ActionAskClarification
		case EventIntentResolved:
			return session.StateConfirming, ActionProposeSchedule
		case EventConflict:
			return session.StateClarifying, ActionReportConflict
		}
	default:
		// Idle and Clarifying share rules; the terminal states behave like
		// Idle because the engine resets them before dispatching.
		switch ev {
		case EventIntentIncomplete:
			return session.StateClarifying, ActionAskClarification
		case EventIntentResolved:
			return session.StateConfirming, ActionProposeSchedule
		case EventConflict:
			return session.StateClarifying, ActionReportConflict
		case EventAffirm, EventNegate:
			// Nothing proposed yet; keep asking for a task.
			return session.StateIdle, ActionAskClarification
		}
	}
	return s, ActionAskClarification
}

type confirmation int

const (
	confirmUnknown confirmation = iota
	confirmYes
	confirmNo
)

var affirmatives = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "yup": true,
	"sure": true, "ok": true, "okay": true, "sounds good": true, "do it": true,
}

var negatives = map[string]bool{
	"no": true, "n": true, "nah": true, "nope": true, "cancel": true,
}

// classifyConfirmation checks a turn against the small fixed
// affirmative/negative vocabulary used in the Confirming state.
func classifyConfirmation(text string) confirmation {
	switch {
	case affirmatives[text]:
		return confirmYes
	case negatives[text]:
		return confirmNo
	default:
		return confirmUnknown
	}
}
