package bus

import "time"

// InboundTurn is one user turn delivered by a messaging channel.
type InboundTurn struct {
	Channel  string            // source channel name (e.g. "discord", "telegram")
	SenderID string            // sender identifier
	ChatID   string            // chat/DM identifier
	Text     string            // raw turn text
	At       time.Time         // delivery timestamp
	Metadata map[string]string // arbitrary metadata
}

// UserKey is the per-user routing key used for session ownership.
func (t InboundTurn) UserKey() string {
	return t.Channel + ":" + t.SenderID
}

// OutboundMessage is rendered text to be delivered back to a channel.
type OutboundMessage struct {
	Channel  string            // target channel
	ChatID   string            // target chat
	Text     string            // rendered text
	Kind     string            // "reply", "reminder", "error"
	Metadata map[string]string // arbitrary metadata
}
