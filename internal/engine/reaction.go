package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"tether/pkg/chat"
	"tether/pkg/logger"
)

// ReactionState is where a message sits in the marker lifecycle.
type ReactionState int

const (
	// ReactionNone means no marker has been placed yet.
	ReactionNone ReactionState = iota
	// ReactionThinking means the message is being processed.
	ReactionThinking
	// ReactionDone means processing finished.
	ReactionDone
	// ReactionError means processing failed.
	ReactionError
)

// String returns the state name.
func (s ReactionState) String() string {
	switch s {
	case ReactionThinking:
		return "thinking"
	case ReactionDone:
		return "done"
	case ReactionError:
		return "error"
	default:
		return "none"
	}
}

// reactionAPI is the slice of the Web API the tracker drives.
type reactionAPI interface {
	AddReaction(ctx context.Context, channel, name, ref string) error
	RemoveReaction(ctx context.Context, channel, name, ref string) error
}

// reactionTracker owns the marker emoji lifecycle of every tracked
// message: none -> thinking -> done or error, no other paths. Entries
// are never removed, so a redelivered message can never restart the
// lifecycle within the process. The logical transition always happens
// before the platform call, and a failed call is logged rather than
// returned, so a flaky reactions API can never wedge a pipeline or
// double-resolve a message.
type reactionTracker struct {
	api      reactionAPI
	settings Settings
	log      *zerolog.Logger

	mu     sync.Mutex
	states map[chat.Key]ReactionState
}

func newReactionTracker(api reactionAPI, settings Settings) *reactionTracker {
	return &reactionTracker{
		api:      api,
		settings: settings,
		log:      logger.Component("reaction"),
		states:   make(map[chat.Key]ReactionState),
	}
}

// MarkThinking places the thinking marker on an untracked message and
// reports whether the transition happened. A message that is already
// tracked, in any state, is left alone.
func (t *reactionTracker) MarkThinking(ctx context.Context, key chat.Key) bool {
	t.mu.Lock()
	if _, ok := t.states[key]; ok {
		t.mu.Unlock()
		return false
	}
	t.states[key] = ReactionThinking
	t.mu.Unlock()

	thinking, _, _ := t.settings.Reactions()
	if thinking == "" {
		return true
	}
	if err := t.api.AddReaction(ctx, key.Channel, thinking, key.Ref); err != nil {
		t.log.Warn().Err(err).
			Str("key", key.String()).
			Str("reaction", thinking).
			Msg("Failed to add thinking reaction")
	}
	return true
}

// Resolve moves a thinking message to done or error and reports
// whether the transition happened. Resolving a message twice, or one
// that never reached thinking, is a no-op.
func (t *reactionTracker) Resolve(ctx context.Context, key chat.Key, success bool) bool {
	next := ReactionDone
	if !success {
		next = ReactionError
	}

	t.mu.Lock()
	if t.states[key] != ReactionThinking {
		t.mu.Unlock()
		return false
	}
	t.states[key] = next
	t.mu.Unlock()

	thinking, done, failed := t.settings.Reactions()
	marker := done
	if !success {
		marker = failed
	}

	if thinking != "" {
		if err := t.api.RemoveReaction(ctx, key.Channel, thinking, key.Ref); err != nil {
			t.log.Warn().Err(err).
				Str("key", key.String()).
				Str("reaction", thinking).
				Msg("Failed to remove thinking reaction")
		}
	}
	if marker != "" {
		if err := t.api.AddReaction(ctx, key.Channel, marker, key.Ref); err != nil {
			t.log.Warn().Err(err).
				Str("key", key.String()).
				Str("reaction", marker).
				Msg("Failed to add resolution reaction")
		}
	}
	return true
}

// State returns the tracked state of a message.
func (t *reactionTracker) State(key chat.Key) ReactionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[key]
}

// Len returns the number of tracked messages.
func (t *reactionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.states)
}
