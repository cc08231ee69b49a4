// Package chat defines the platform-neutral message types shared by the
// event engine, the store, and the transport layer.
package chat

import "time"

// Event is a normalized inbound chat message.
type Event struct {
	EnvelopeID string         `json:"envelopeId"`
	Type       string         `json:"type"`
	Channel    string         `json:"channel"`
	User       string         `json:"user"`
	Text       string         `json:"text"`
	Ref        string         `json:"ref"`
	ThreadRef  string         `json:"threadRef,omitempty"`
	BotID      string         `json:"botId,omitempty"`
	AppID      string         `json:"appId,omitempty"`
	Received   time.Time      `json:"received"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// Key returns the identity of the message for reaction and dedup purposes.
func (e Event) Key() Key {
	return Key{Channel: e.Channel, Ref: e.Ref}
}

// Key is the (channel, message ref) pair that identifies a single message.
type Key struct {
	Channel string `json:"channel"`
	Ref     string `json:"ref"`
}

func (k Key) String() string {
	return k.Channel + ":" + k.Ref
}

// Reply is an outbound message.
type Reply struct {
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	ThreadRef string `json:"threadRef,omitempty"`
}
