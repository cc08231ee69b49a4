// Package server wires the engine, storage, maintenance scheduler and
// admin gateway into one process. The CLI serve command drives it.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	v1 "tether/api/v1"
	"tether/internal/actions"
	"tether/internal/agent"
	"tether/internal/config"
	"tether/internal/cron"
	"tether/internal/engine"
	"tether/internal/gateway"
	"tether/internal/slack"
	"tether/internal/storage"
	"tether/internal/store"
	"tether/pkg/logger"
)

// Options configures the server build. Host and Port override the
// loaded gateway settings when set; the CLI maps its flags here so an
// override never has to be written back to the config file.
type Options struct {
	ConfigPath string
	Version    string
	Host       string
	Port       int
}

// Server owns every long-lived component of a running instance.
type Server struct {
	cfg     *config.Config
	log     *zerolog.Logger
	version string

	db       *storage.DB
	eventLog *store.Log
	client   *slack.Client
	engine   *engine.Engine
	registry *actions.Registry
	sched    *cron.Scheduler
	gateway  *gateway.Server
	watcher  *config.Watcher

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
	errChan   chan error
}

// New loads configuration and builds all components without starting
// anything.
func New(opts Options) (*Server, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if opts.Host != "" {
		cfg.Gateway.Host = opts.Host
	}
	if opts.Port > 0 {
		cfg.Gateway.Port = opts.Port
	}

	s := &Server{
		cfg:     cfg,
		log:     logger.Component("server"),
		version: opts.Version,
		errChan: make(chan error, 1),
	}

	if err := s.build(); err != nil {
		if s.db != nil {
			s.db.Close()
		}
		return nil, err
	}
	return s, nil
}

// build constructs the component graph.
func (s *Server) build() error {
	db, err := storage.Open(s.cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	s.db = db

	storeDir, err := config.ExpandPath(s.cfg.Store.Dir)
	if err != nil {
		return fmt.Errorf("expand event log dir: %w", err)
	}
	eventLog, err := store.Open(storeDir, store.Options{
		MaxBytes: s.cfg.Store.MaxBytes,
		MaxFiles: s.cfg.Store.MaxFiles,
	})
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	s.eventLog = eventLog

	s.client = slack.NewClient(slack.Config{
		BotToken: s.cfg.Slack.BotToken,
		AppToken: s.cfg.Slack.AppToken,
		APIBase:  s.cfg.Slack.APIBase,
	})

	responder, err := newResponder(s.cfg.Agent)
	if err != nil {
		return err
	}

	s.engine = engine.New(engine.Deps{
		API: s.client,
		NewTransport: func(h slack.Handler) engine.Transport {
			return slack.NewSocket(s.client, h)
		},
		Store:     s.eventLog,
		Responder: responder,
		Settings:  config.Runtime{},
		Ledger:    s.db,
	})

	s.registry = actions.NewSlackRegistry(s.client)

	s.sched = cron.NewScheduler()
	if err := s.sched.Register(cron.RotationTask(s.eventLog)); err != nil {
		return fmt.Errorf("register rotation task: %w", err)
	}
	if err := s.sched.Register(cron.LedgerPurgeTask(s.db)); err != nil {
		return fmt.Errorf("register ledger purge task: %w", err)
	}

	if s.cfg.Gateway.Enabled {
		s.gateway = gateway.NewServer(s.cfg, &v1.RouterDeps{
			Engine:   s.engine,
			EventLog: s.eventLog,
			Actions:  s.registry,
			Cron:     s.sched,
			Channels: s.client,
			Version:  s.version,
		})
	}

	return nil
}

// newResponder builds the configured responder implementation.
func newResponder(cfg config.AgentConfig) (agent.Responder, error) {
	switch cfg.Kind {
	case "command":
		return agent.NewCommandResponder(agent.CommandConfig{
			Command: cfg.Command,
			Args:    cfg.Args,
		}), nil
	case "http":
		return agent.NewHTTPResponder(agent.HTTPConfig{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown agent kind %q (want command or http)", cfg.Kind)
	}
}

// Start brings up the engine, the maintenance scheduler, the admin
// gateway and the config watcher. The engine connection is mandatory;
// everything else degrades to a warning.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.engine.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	if err := s.sched.Start(); err != nil {
		s.log.Warn().Err(err).Msg("Maintenance scheduler not started")
	}

	if s.gateway != nil {
		go func() {
			if err := s.gateway.Start(); err != nil {
				s.errChan <- err
			}
		}()
	}

	if path := config.Path(); path != "" {
		w, err := config.NewWatcher(path, func() {
			s.log.Info().Msg("Runtime settings refreshed")
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("Config watcher not started")
		} else if err := w.Start(); err != nil {
			s.log.Warn().Err(err).Msg("Config watcher not started")
		} else {
			s.watcher = w
		}
	}

	s.mu.Lock()
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.log.Info().
		Str("version", s.version).
		Bool("gateway", s.gateway != nil).
		Msg("Server started")

	return nil
}

// Stop tears components down in reverse order of Start, bounded by ctx.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}

	if s.gateway != nil {
		if err := s.gateway.Shutdown(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Gateway shutdown failed")
		}
	}

	if err := s.sched.Stop(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Scheduler stop failed")
	}

	if err := s.engine.Stop(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Engine stop failed")
	}

	if err := s.db.Close(); err != nil {
		s.log.Warn().Err(err).Msg("Ledger close failed")
	}

	s.log.Info().Msg("Server stopped")
	return nil
}

// ErrorChan surfaces fatal errors from components running in the
// background, currently only the gateway listener.
func (s *Server) ErrorChan() <-chan error {
	return s.errChan
}

// IsRunning reports whether Start has completed and Stop has not.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Engine exposes the event engine, primarily for status inspection.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

// Uptime reports how long the server has been running.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}
