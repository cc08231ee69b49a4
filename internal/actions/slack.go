package actions

import (
	"context"
	"fmt"

	"tether/internal/slack"
)

// API is the platform surface the built-in actions call. The Web API
// client satisfies it.
type API interface {
	AuthTest(ctx context.Context) (*slack.Identity, error)
	PostMessage(ctx context.Context, channel, text, threadTS string) (string, error)
	AddReaction(ctx context.Context, channel, name, ref string) error
	RemoveReaction(ctx context.Context, channel, name, ref string) error
	ListChannels(ctx context.Context, limit int) ([]slack.Channel, error)
}

// RegisterSlackActions wires the allow-listed platform actions.
func RegisterSlackActions(r *Registry, api API) error {
	builtins := []Action{
		&PostMessageAction{api: api},
		&AddReactionAction{api: api},
		&RemoveReactionAction{api: api},
		&ListChannelsAction{api: api},
		&AuthTestAction{api: api},
	}

	for _, action := range builtins {
		if err := r.Register(action); err != nil {
			return err
		}
	}

	return nil
}

// NewSlackRegistry creates a registry holding exactly the allow-list.
func NewSlackRegistry(api API) *Registry {
	r := NewRegistry()
	if err := RegisterSlackActions(r, api); err != nil {
		panic(err)
	}
	return r
}

// ActionNames returns the names of the built-in allow-list.
func ActionNames() []string {
	return []string{
		"post_message",
		"add_reaction",
		"remove_reaction",
		"list_channels",
		"auth_test",
	}
}

// PostMessageAction publishes text to a channel.
type PostMessageAction struct {
	api API
}

func (a *PostMessageAction) Name() string { return "post_message" }

func (a *PostMessageAction) Description() string {
	return "Post a text message to a channel, optionally threaded"
}

func (a *PostMessageAction) Execute(ctx context.Context, args map[string]any) (Result, error) {
	channel, ok := stringArg(args, "channel")
	if !ok || channel == "" {
		return Result{}, NewInvalidArgsError(a.Name(), "channel is required", nil)
	}
	text, ok := stringArg(args, "text")
	if !ok || text == "" {
		return Result{}, NewInvalidArgsError(a.Name(), "text is required", nil)
	}
	threadTS, _ := stringArg(args, "thread_ts")

	ref, err := a.api.PostMessage(ctx, channel, text, threadTS)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Content:  fmt.Sprintf("posted to %s", channel),
		Metadata: map[string]any{"channel": channel, "ref": ref},
	}, nil
}

// AddReactionAction puts an emoji marker on a message.
type AddReactionAction struct {
	api API
}

func (a *AddReactionAction) Name() string { return "add_reaction" }

func (a *AddReactionAction) Description() string {
	return "Add an emoji reaction to a message"
}

func (a *AddReactionAction) Execute(ctx context.Context, args map[string]any) (Result, error) {
	channel, name, ref, err := reactionArgs(a.Name(), args)
	if err != nil {
		return Result{}, err
	}

	if err := a.api.AddReaction(ctx, channel, name, ref); err != nil {
		return Result{}, err
	}

	return Result{Content: fmt.Sprintf("added :%s:", name)}, nil
}

// RemoveReactionAction clears an emoji marker from a message.
type RemoveReactionAction struct {
	api API
}

func (a *RemoveReactionAction) Name() string { return "remove_reaction" }

func (a *RemoveReactionAction) Description() string {
	return "Remove an emoji reaction from a message"
}

func (a *RemoveReactionAction) Execute(ctx context.Context, args map[string]any) (Result, error) {
	channel, name, ref, err := reactionArgs(a.Name(), args)
	if err != nil {
		return Result{}, err
	}

	if err := a.api.RemoveReaction(ctx, channel, name, ref); err != nil {
		return Result{}, err
	}

	return Result{Content: fmt.Sprintf("removed :%s:", name)}, nil
}

func reactionArgs(action string, args map[string]any) (channel, name, ref string, err error) {
	channel, ok := stringArg(args, "channel")
	if !ok || channel == "" {
		return "", "", "", NewInvalidArgsError(action, "channel is required", nil)
	}
	name, ok = stringArg(args, "name")
	if !ok || name == "" {
		return "", "", "", NewInvalidArgsError(action, "name is required", nil)
	}
	ref, ok = stringArg(args, "timestamp")
	if !ok || ref == "" {
		return "", "", "", NewInvalidArgsError(action, "timestamp is required", nil)
	}
	return channel, name, ref, nil
}

// ListChannelsAction lists visible conversations.
type ListChannelsAction struct {
	api API
}

func (a *ListChannelsAction) Name() string { return "list_channels" }

func (a *ListChannelsAction) Description() string {
	return "List the channels visible to the bot"
}

func (a *ListChannelsAction) Execute(ctx context.Context, args map[string]any) (Result, error) {
	limit, _ := intArg(args, "limit")
	if limit < 0 {
		return Result{}, NewInvalidArgsError(a.Name(), "limit must not be negative", nil)
	}

	channels, err := a.api.ListChannels(ctx, limit)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Content:  fmt.Sprintf("%d channels", len(channels)),
		Metadata: map[string]any{"channels": channels},
	}, nil
}

// AuthTestAction reports the authenticated identity.
type AuthTestAction struct {
	api API
}

func (a *AuthTestAction) Name() string { return "auth_test" }

func (a *AuthTestAction) Description() string {
	return "Verify credentials and report the bot identity"
}

func (a *AuthTestAction) Execute(ctx context.Context, args map[string]any) (Result, error) {
	id, err := a.api.AuthTest(ctx)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Content: fmt.Sprintf("authenticated as %s in %s", id.UserID, id.Team),
		Metadata: map[string]any{
			"user_id": id.UserID,
			"bot_id":  id.BotID,
			"team":    id.Team,
			"team_id": id.TeamID,
		},
	}, nil
}
