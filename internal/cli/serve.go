package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tether/internal/config"
	"tether/internal/server"
	"tether/pkg/logger"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Tether event engine",
		Long: `Start the Tether event engine.

This command connects to Slack over Socket Mode and runs:
- the event engine (dedup, dispatch, reply publishing)
- the durable event log with rotation
- the admin gateway (default: localhost:18791)

The engine keeps running until interrupted.`,
		Example: `  # Start with default configuration
  tether serve

  # Start with a custom admin gateway port
  tether serve --port 8080

  # Start with verbose logging
  tether serve --verbose`,
		RunE: runServe,
	}

	cmd.Flags().IntP("port", "p", 0, "admin gateway port (overrides config)")
	cmd.Flags().String("host", "", "admin gateway host (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")

	log := logger.Get()
	log.Info().Msg("Starting Tether...")

	srv, err := server.New(server.Options{
		ConfigPath: config.Path(),
		Version:    Version,
		Host:       host,
		Port:       port,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.Start(cmd.Context()); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	cfg := config.GetConfig()
	if cfg.Gateway.Enabled {
		log.Info().
			Str("address", fmt.Sprintf("http://%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)).
			Msg("Admin gateway listening")
	}
	log.Info().Msg("Tether started, press Ctrl+C to stop")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info().Msg("Shutting down...")
	case err := <-srv.ErrorChan():
		if err != nil {
			log.Error().Err(err).Msg("Server error")
			return err
		}
	}

	// Graceful shutdown
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
		return err
	}

	log.Info().Msg("Tether stopped")
	return nil
}
