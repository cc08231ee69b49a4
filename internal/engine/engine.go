// Package engine runs the event pipeline: it owns the socket mode
// connection, acknowledges and stores every envelope, filters out the
// bot's own messages and dispatches the rest to the responder with
// reaction markers tracking each message's progress.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"tether/internal/agent"
	"tether/internal/slack"
	"tether/internal/storage"
	"tether/internal/store"
	"tether/pkg/logger"
)

// ConnectionState is the engine's connection lifecycle position.
type ConnectionState int32

const (
	// StateDisconnected means no connection exists.
	StateDisconnected ConnectionState = iota
	// StateConnecting means Start is establishing the connection.
	StateConnecting
	// StateConnected means the receive loop is live.
	StateConnected
)

// String returns the state name.
func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Transport is the socket mode connection the engine drives. Close is
// terminal for a transport instance; each Start builds a fresh one.
type Transport interface {
	Connect(ctx context.Context) error
	Listen(ctx context.Context) error
	Ack(env slack.Envelope) error
	Close() error
}

// API is the slice of the Web API the engine calls directly.
type API interface {
	AuthTest(ctx context.Context) (*slack.Identity, error)
	PostMessage(ctx context.Context, channel, text, threadTS string) (string, error)
	AddReaction(ctx context.Context, channel, name, ref string) error
	RemoveReaction(ctx context.Context, channel, name, ref string) error
}

// EventLog is the durable record of everything received.
type EventLog interface {
	Append(rec store.Record) error
	Tail(n int) ([]store.Record, error)
}

// Settings is the live view of the runtime knobs. Implementations read
// the backing store on every call so mid-flight toggles take effect.
type Settings interface {
	AutoReply() bool
	ListenTag() string
	HistoryDepth() int
	DispatchTimeout() time.Duration
	Reactions() (thinking, done, failed string)
	ValidateCredentials() error
}

// Ledger durably marks completed delivery keys and mirrors the
// authenticated identity.
type Ledger interface {
	MarkSeen(key string) error
	Seen(key string) (bool, error)
	SaveIdentity(id storage.Identity) error
}

// Deps carries every collaborator the engine needs. All fields are
// required; there are no package-level fallbacks.
type Deps struct {
	API          API
	NewTransport func(slack.Handler) Transport
	Store        EventLog
	Responder    agent.Responder
	Settings     Settings
	Ledger       Ledger
}

// Engine connects the transport to the dispatch pipeline. One engine
// owns at most one live connection; Start and Stop are idempotent and
// safe for concurrent use.
type Engine struct {
	deps Deps
	log  *zerolog.Logger

	state     atomic.Int32
	identity  atomic.Pointer[slack.Identity]
	startedAt atomic.Int64

	// startMu serializes Start and Stop so concurrent callers observe
	// one connection and identical results.
	startMu sync.Mutex

	// connMu guards the live transport handles. It is held only for
	// field access, never across a blocking call.
	connMu    sync.Mutex
	transport Transport
	runCancel context.CancelFunc

	listenWG  sync.WaitGroup
	pipelines sync.WaitGroup

	reactions *reactionTracker
	inflight  *inflightRegistry
	stats     stats
}

// New creates an engine from its collaborators.
func New(deps Deps) *Engine {
	return &Engine{
		deps:      deps,
		log:       logger.Component("engine"),
		reactions: newReactionTracker(deps.API, deps.Settings),
		inflight:  newInflightRegistry(),
	}
}

// Start validates credentials, resolves the bot identity and brings up
// the socket connection. A second call while connected returns nil
// without touching the live connection. Credential validation fails
// before anything is dialed.
func (e *Engine) Start(ctx context.Context) error {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	if e.State() == StateConnected {
		e.log.Debug().Msg("Start ignored, already connected")
		return nil
	}
	e.state.Store(int32(StateConnecting))

	if err := e.deps.Settings.ValidateCredentials(); err != nil {
		e.state.Store(int32(StateDisconnected))
		return err
	}

	id, err := e.deps.API.AuthTest(ctx)
	if err != nil {
		e.state.Store(int32(StateDisconnected))
		return err
	}
	e.identity.Store(id)
	if err := e.deps.Ledger.SaveIdentity(storage.Identity{
		UserID: id.UserID,
		BotID:  id.BotID,
		AppID:  id.AppID,
		Team:   id.Team,
	}); err != nil {
		e.log.Warn().Err(err).Msg("Failed to mirror identity to ledger")
	}

	t := e.deps.NewTransport(e.ingest)
	if err := t.Connect(ctx); err != nil {
		e.state.Store(int32(StateDisconnected))
		return err
	}

	// The receive loop outlives the Start context; only Stop ends it.
	runCtx, cancel := context.WithCancel(context.Background())
	e.connMu.Lock()
	e.transport = t
	e.runCancel = cancel
	e.connMu.Unlock()

	e.listenWG.Add(1)
	go func() {
		defer e.listenWG.Done()
		if err := t.Listen(runCtx); err != nil {
			e.log.Error().Err(err).Msg("Socket listener exited")
			e.state.CompareAndSwap(int32(StateConnected), int32(StateDisconnected))
		}
	}()

	e.state.Store(int32(StateConnected))
	e.startedAt.Store(time.Now().UnixNano())
	e.log.Info().
		Str("user_id", id.UserID).
		Str("team", id.Team).
		Msg("Engine connected")
	return nil
}

// Stop closes the connection and drains in-flight pipelines. Each
// pipeline is already bounded by the dispatch deadline; ctx caps the
// wait when the caller cannot afford the full drain. Safe from any
// state.
func (e *Engine) Stop(ctx context.Context) error {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	if e.State() == StateDisconnected {
		return nil
	}

	e.connMu.Lock()
	t := e.transport
	cancel := e.runCancel
	e.transport = nil
	e.runCancel = nil
	e.connMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if t != nil {
		if err := t.Close(); err != nil {
			e.log.Warn().Err(err).Msg("Transport close failed")
		}
	}
	e.listenWG.Wait()

	done := make(chan struct{})
	go func() {
		e.pipelines.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		e.log.Warn().
			Int("in_flight", e.inflight.size()).
			Msg("Stopped with pipelines still draining")
	}

	e.state.Store(int32(StateDisconnected))
	e.startedAt.Store(0)
	e.log.Info().Msg("Engine stopped")
	return nil
}

// ingest handles one envelope from the receive loop: ack first, then
// store, then route. Runs synchronously in the read loop so acks and
// appends keep delivery order; everything per-message happens on a
// pipeline goroutine.
func (e *Engine) ingest(env slack.Envelope) {
	e.stats.received.Add(1)

	e.connMu.Lock()
	t := e.transport
	e.connMu.Unlock()
	if t != nil {
		if err := t.Ack(env); err != nil {
			e.log.Warn().Err(err).
				Str("envelope_id", env.EnvelopeID).
				Msg("Failed to ack envelope")
		}
	}

	if err := e.deps.Store.Append(store.NewRecord(env.Type, env.PayloadMap(), env.EnvelopeID)); err != nil {
		e.log.Error().Err(err).
			Str("envelope_id", env.EnvelopeID).
			Msg("Failed to append event record")
	} else {
		e.stats.stored.Add(1)
	}

	msg, ok := env.MessageEvent()
	if !ok {
		e.log.Debug().
			Str("type", env.Type).
			Str("envelope_id", env.EnvelopeID).
			Msg("Envelope stored, nothing to dispatch")
		return
	}

	ev := eventFromEnvelope(env, msg)
	key := ev.Key()

	if classifyOrigin(ev, e.Identity()) == OriginSelf {
		e.stats.filtered.Add(1)
		e.log.Debug().Str("key", key.String()).Msg("Own message skipped")
		return
	}

	if seen, err := e.deps.Ledger.Seen(key.String()); err != nil {
		e.log.Warn().Err(err).Str("key", key.String()).Msg("Ledger lookup failed")
	} else if seen {
		e.stats.skipped.Add(1)
		e.log.Debug().Str("key", key.String()).Msg("Completed key redelivered, skipped")
		return
	}

	if !e.inflight.begin(key) {
		e.stats.skipped.Add(1)
		e.log.Debug().Str("key", key.String()).Msg("Pipeline already in flight, skipped")
		return
	}

	e.pipelines.Add(1)
	go e.runPipeline(ev)
}

// State returns the connection state.
func (e *Engine) State() ConnectionState {
	return ConnectionState(e.state.Load())
}

// Identity returns the cached identity, nil before the first Start.
func (e *Engine) Identity() *slack.Identity {
	return e.identity.Load()
}

// InFlight returns the number of running pipelines.
func (e *Engine) InFlight() int {
	return e.inflight.size()
}

// Uptime returns how long the current connection has been up, zero
// when disconnected.
func (e *Engine) Uptime() time.Duration {
	started := e.startedAt.Load()
	if started == 0 {
		return 0
	}
	return time.Since(time.Unix(0, started))
}

// Stats returns a point-in-time counter snapshot.
func (e *Engine) Stats() StatsSnapshot {
	return e.stats.snapshot()
}
