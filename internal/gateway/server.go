// Package gateway provides the admin HTTP server.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	v1 "tether/api/v1"
	"tether/internal/config"
	"tether/internal/gateway/handlers"
	"tether/internal/gateway/middleware"
	"tether/pkg/logger"
)

// Server represents the admin HTTP server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.Config
	apiRouter  *v1.Router
}

// NewServer creates the admin server and registers its routes.
func NewServer(cfg *config.Config, deps *v1.RouterDeps) *Server {
	router := mux.NewRouter()

	// Apply middleware chain: Recovery -> Logging -> RequestID
	handler := middleware.Recovery(
		middleware.Logging(
			middleware.RequestID(router),
		),
	)

	server := &Server{
		httpServer: &http.Server{
			Handler:      handler,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		router: router,
		config: cfg,
	}

	server.setupRoutes(deps)

	return server
}

// setupRoutes configures the server routes.
func (s *Server) setupRoutes(deps *v1.RouterDeps) {
	s.apiRouter = v1.NewRouter(deps)
	s.apiRouter.RegisterRoutes(s.router)

	version := ""
	if deps != nil {
		version = deps.Version
	}
	s.router.HandleFunc("/health", handlers.HealthHandler(version)).Methods(http.MethodGet)
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	handlers.InitStartTime()

	addr := fmt.Sprintf("%s:%d", s.config.Gateway.Host, s.config.Gateway.Port)
	s.httpServer.Addr = addr

	logger.Info().
		Str("addr", addr).
		Msg("Starting admin server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info().Msg("Shutting down admin server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	return nil
}

// Router returns the underlying router for testing.
func (s *Server) Router() *mux.Router {
	return s.router
}
