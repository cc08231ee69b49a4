package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"tether/internal/actions"
	"tether/internal/cron"
	"tether/internal/engine"
	"tether/internal/gateway/handlers"
	"tether/internal/slack"
	"tether/internal/store"
)

// Engine is the view of the event engine the status endpoint serves.
type Engine interface {
	State() engine.ConnectionState
	Identity() *slack.Identity
	Uptime() time.Duration
	InFlight() int
	Stats() engine.StatsSnapshot
}

// ChannelLister lists the conversations visible to the bot. The Web API
// client satisfies it.
type ChannelLister interface {
	ListChannels(ctx context.Context, limit int) ([]slack.Channel, error)
}

// RouterDeps holds dependencies for the v1 API router.
type RouterDeps struct {
	Engine   Engine
	EventLog *store.Log
	Actions  *actions.Registry
	Cron     *cron.Scheduler
	Channels ChannelLister
	Version  string
}

// Router wraps v1 API dependencies.
type Router struct {
	engine   Engine
	eventLog *store.Log
	actions  *actions.Registry
	cron     *cron.Scheduler
	channels ChannelLister
	version  string
}

// NewRouter creates a new v1 API router.
func NewRouter(deps *RouterDeps) *Router {
	if deps == nil {
		deps = &RouterDeps{}
	}
	return &Router{
		engine:   deps.Engine,
		eventLog: deps.EventLog,
		actions:  deps.Actions,
		cron:     deps.Cron,
		channels: deps.Channels,
		version:  deps.Version,
	}
}

// RegisterRoutes registers all v1 API routes.
func (r *Router) RegisterRoutes(router *mux.Router) {
	v1 := router.PathPrefix("/api/v1").Subrouter()

	// Health
	v1.HandleFunc("/health", handlers.HealthHandler(r.version)).Methods(http.MethodGet)

	// Engine status
	v1.HandleFunc("/status", r.HandleStatus).Methods(http.MethodGet)

	// Engine config
	v1.HandleFunc("/engine/config", r.HandleGetEngineConfig).Methods(http.MethodGet)
	v1.HandleFunc("/engine/config", r.HandleUpdateEngineConfig).Methods(http.MethodPut)

	// Event log
	v1.HandleFunc("/events", r.HandleListEvents).Methods(http.MethodGet)

	// Channels
	v1.HandleFunc("/channels", r.HandleListChannels).Methods(http.MethodGet)

	// Actions
	v1.HandleFunc("/actions", r.HandleListActions).Methods(http.MethodGet)
	v1.HandleFunc("/actions/{name}", r.HandleExecuteAction).Methods(http.MethodPost)
}
