package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tether/internal/agent"
	"tether/pkg/chat"
)

// runPipeline processes one external message end to end: thinking
// marker, gate, responder, publish, resolution, durable completion
// mark. Faults stay inside the pipeline; nothing here can take down
// the receive loop.
func (e *Engine) runPipeline(ev chat.Event) {
	defer e.pipelines.Done()
	key := ev.Key()
	defer e.inflight.done(key)

	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			e.stats.failed.Add(1)
			e.log.Error().
				Interface("panic", r).
				Str("key", key.String()).
				Msg("Pipeline panicked")
			e.reactions.Resolve(ctx, key, false)
		}
	}()

	if !e.reactions.MarkThinking(ctx, key) {
		e.log.Debug().Str("key", key.String()).Msg("Message already tracked, skipped")
		return
	}

	ok := e.dispatch(ctx, ev)
	e.reactions.Resolve(ctx, key, ok)

	// Completion is recorded only after the reaction resolved, so a
	// crash in between leaves the key eligible for a redelivery retry.
	if err := e.deps.Ledger.MarkSeen(key.String()); err != nil {
		e.log.Warn().Err(err).Str("key", key.String()).Msg("Failed to record completion")
	}
}

// dispatch gates, invokes the responder and publishes. It reports
// whether the message resolved cleanly; a gated or silent message is
// still a clean resolution.
func (e *Engine) dispatch(ctx context.Context, ev chat.Event) bool {
	key := ev.Key()

	if gate := chat.CheckTag(ev, e.deps.Settings.ListenTag()); !gate.ShouldDispatch {
		e.stats.skipped.Add(1)
		e.log.Debug().
			Str("key", key.String()).
			Str("reason", gate.SkipReason).
			Msg("Message gated, nothing to do")
		return true
	}

	req := e.buildRequest(ev)

	e.stats.dispatched.Add(1)
	dispatchCtx, cancel := context.WithTimeout(ctx, e.deps.Settings.DispatchTimeout())
	defer cancel()

	resp, err := e.deps.Responder.Respond(dispatchCtx, req)
	if err != nil {
		e.stats.failed.Add(1)
		e.log.Error().Err(err).
			Str("key", key.String()).
			Bool("timeout", agent.IsTimeout(err)).
			Msg("Responder failed")
		e.publishFailureNotice(ctx, ev, err)
		return false
	}

	if resp == nil {
		e.log.Debug().Str("key", key.String()).Msg("Responder stayed silent")
		return true
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		e.log.Debug().Str("key", key.String()).Msg("Responder stayed silent")
		return true
	}

	// Auto-reply is read at send time: flipping it off while the
	// responder runs suppresses an already-computed reply.
	if !e.deps.Settings.AutoReply() {
		e.log.Debug().Str("key", key.String()).Msg("Auto-reply disabled, reply suppressed")
		return true
	}

	ref, err := e.deps.API.PostMessage(ctx, ev.Channel, text, ev.Ref)
	if err != nil {
		e.stats.failed.Add(1)
		e.log.Error().Err(err).Str("key", key.String()).Msg("Failed to publish reply")
		return false
	}
	e.stats.published.Add(1)
	e.log.Info().
		Str("key", key.String()).
		Str("reply_ref", ref).
		Msg("Reply published")
	return true
}

// buildRequest assembles the responder request: the message itself as
// the prompt, the raw event and the most recent stored records as
// context blocks.
func (e *Engine) buildRequest(ev chat.Event) agent.Request {
	var blocks []string

	current := any(ev)
	if ev.Raw != nil {
		current = ev.Raw
	}
	if data, err := json.Marshal(current); err == nil {
		blocks = append(blocks, "Current: "+string(data))
	}

	if recs, err := e.deps.Store.Tail(e.deps.Settings.HistoryDepth()); err != nil {
		e.log.Warn().Err(err).Msg("History read failed, dispatching without it")
	} else if len(recs) > 0 {
		if data, err := json.Marshal(recs); err == nil {
			blocks = append(blocks, "Recent Slack Events: "+string(data))
		}
	}

	return agent.Request{
		Prompt:  fmt.Sprintf("[Channel: %s] User %s says: %s", ev.Channel, ev.User, ev.Text),
		Context: blocks,
	}
}

// publishFailureNotice posts the processing failure into the message's
// thread when auto-reply allows it.
func (e *Engine) publishFailureNotice(ctx context.Context, ev chat.Event, cause error) {
	if !e.deps.Settings.AutoReply() {
		return
	}
	notice := fmt.Sprintf("Error processing message: %v", cause)
	if _, err := e.deps.API.PostMessage(ctx, ev.Channel, notice, ev.Ref); err != nil {
		e.log.Warn().Err(err).
			Str("key", ev.Key().String()).
			Msg("Failed to publish failure notice")
	}
}
