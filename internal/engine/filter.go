package engine

import (
	"time"

	"tether/internal/slack"
	"tether/pkg/chat"
)

// Origin classifies where a message came from.
type Origin int

const (
	// OriginExternal is a message from someone else.
	OriginExternal Origin = iota
	// OriginSelf is a message this bot (or another app) produced.
	OriginSelf
)

// String returns the origin name.
func (o Origin) String() string {
	if o == OriginSelf {
		return "self"
	}
	return "external"
}

// classifyOrigin decides whether an event originated from the bot
// itself. Self events are appended for audit but never dispatched;
// replying to them would loop the engine on its own output.
//
// A message counts as self when it carries a bot_id, when its user is
// the authenticated bot user, or when it carries an app_id.
func classifyOrigin(ev chat.Event, id *slack.Identity) Origin {
	if ev.BotID != "" {
		return OriginSelf
	}
	if id != nil && ev.User != "" && ev.User == id.UserID {
		return OriginSelf
	}
	if ev.AppID != "" {
		return OriginSelf
	}
	return OriginExternal
}

// eventFromEnvelope converts a socket envelope carrying a message
// into the engine's event shape. Raw keeps the inner event map so
// downstream consumers see fields the typed struct does not model.
func eventFromEnvelope(env slack.Envelope, msg slack.MessageEvent) chat.Event {
	ev := chat.Event{
		EnvelopeID: env.EnvelopeID,
		Type:       msg.Type,
		Channel:    msg.Channel,
		User:       msg.User,
		Text:       msg.Text,
		Ref:        msg.TS,
		ThreadRef:  msg.ThreadTS,
		BotID:      msg.BotID,
		AppID:      msg.AppID,
		Received:   time.Now(),
	}
	if payload := env.PayloadMap(); payload != nil {
		if inner, ok := payload["event"].(map[string]any); ok {
			ev.Raw = inner
		}
	}
	return ev
}

