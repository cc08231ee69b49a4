// Package v1 provides the admin API route handlers and data types.
package v1

import (
	"tether/internal/cron"
	"tether/internal/engine"
	"tether/internal/store"
)

// IdentityView is the authenticated workspace identity.
type IdentityView struct {
	UserID string `json:"user_id"`
	BotID  string `json:"bot_id"`
	Team   string `json:"team,omitempty"`
}

// StatusResponse describes the engine and its background machinery.
type StatusResponse struct {
	State         string               `json:"state"`
	Identity      *IdentityView        `json:"identity,omitempty"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	InFlight      int                  `json:"in_flight"`
	Stats         engine.StatsSnapshot `json:"stats"`
	Tasks         []cron.TaskStatus    `json:"tasks,omitempty"`
}

// EngineConfigView mirrors the mutable engine settings.
type EngineConfigView struct {
	AutoReply       bool   `json:"auto_reply"`
	ListenOnlyTag   string `json:"listen_only_tag"`
	HistoryDepth    int    `json:"history_depth"`
	DispatchTimeout string `json:"dispatch_timeout"`
}

// UpdateEngineConfigRequest carries a partial engine settings update.
// Pointer fields distinguish "leave unchanged" from a zero value.
type UpdateEngineConfigRequest struct {
	AutoReply       *bool   `json:"auto_reply,omitempty"`
	ListenOnlyTag   *string `json:"listen_only_tag,omitempty"`
	HistoryDepth    *int    `json:"history_depth,omitempty"`
	DispatchTimeout *string `json:"dispatch_timeout,omitempty"`
}

// EventsResponse is a slice of the stored event log, oldest first.
type EventsResponse struct {
	Events []store.Record `json:"events"`
	Count  int            `json:"count"`
}

// ChannelView is one conversation visible to the bot.
type ChannelView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPrivate bool   `json:"is_private"`
	IsMember  bool   `json:"is_member"`
}

// ChannelsResponse lists the conversations visible to the bot.
type ChannelsResponse struct {
	Channels []ChannelView `json:"channels"`
	Count    int           `json:"count"`
}

// ActionView describes one registered action.
type ActionView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ActionsResponse lists the registered actions.
type ActionsResponse struct {
	Actions []ActionView `json:"actions"`
}

// ExecuteActionRequest carries the arguments for an action invocation.
type ExecuteActionRequest struct {
	Args map[string]any `json:"args,omitempty"`
}

// ExecuteActionResponse is the outcome of an action invocation.
type ExecuteActionResponse struct {
	Action   string         `json:"action"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
