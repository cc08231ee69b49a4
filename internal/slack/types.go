// Package slack implements the Slack surface: the JSON Web API client
// and the socket mode transport that delivers event envelopes.
package slack

import "encoding/json"

// Envelope is one socket mode frame. Payload stays raw so the store
// can keep it verbatim while typed views are decoded on demand.
type Envelope struct {
	EnvelopeID   string          `json:"envelope_id"`
	Type         string          `json:"type"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	RetryAttempt int             `json:"retry_attempt,omitempty"`
	RetryReason  string          `json:"retry_reason,omitempty"`
}

// Envelope types seen on a socket mode connection.
const (
	EnvelopeEventsAPI   = "events_api"
	EnvelopeInteractive = "interactive"
	EnvelopeSlashCmds   = "slash_commands"
	EnvelopeHello       = "hello"
	EnvelopeDisconnect  = "disconnect"
)

// PayloadMap decodes the payload into a generic map, nil when absent
// or undecodable. Used for verbatim storage.
func (e Envelope) PayloadMap() map[string]any {
	if len(e.Payload) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(e.Payload, &m); err != nil {
		return nil
	}
	return m
}

// MessageEvent is the inner event of an events_api envelope.
type MessageEvent struct {
	Type     string `json:"type"`
	Subtype  string `json:"subtype,omitempty"`
	Channel  string `json:"channel"`
	User     string `json:"user"`
	Text     string `json:"text"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts,omitempty"`
	BotID    string `json:"bot_id,omitempty"`
	AppID    string `json:"app_id,omitempty"`
	EventTS  string `json:"event_ts,omitempty"`
}

type eventsAPIPayload struct {
	Event MessageEvent `json:"event"`
}

// MessageEvent extracts the plain channel message carried by an
// events_api envelope. It reports false for other envelope types, for
// non-message events and for message subtypes (edits, joins). A
// subtype-less bot post passes here and is caught by the origin
// filter via its bot_id.
func (e Envelope) MessageEvent() (MessageEvent, bool) {
	if e.Type != EnvelopeEventsAPI || len(e.Payload) == 0 {
		return MessageEvent{}, false
	}
	var payload eventsAPIPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return MessageEvent{}, false
	}
	if payload.Event.Type != "message" || payload.Event.Subtype != "" {
		return MessageEvent{}, false
	}
	return payload.Event, true
}

// Identity is the authenticated identity from auth.test.
type Identity struct {
	UserID string `json:"user_id"`
	BotID  string `json:"bot_id"`
	AppID  string `json:"app_id,omitempty"`
	Team   string `json:"team"`
	TeamID string `json:"team_id"`
}

// Channel is one conversation from conversations.list.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsChannel  bool   `json:"is_channel"`
	IsPrivate  bool   `json:"is_private"`
	IsArchived bool   `json:"is_archived"`
	IsMember   bool   `json:"is_member"`
	NumMembers int    `json:"num_members"`
}
