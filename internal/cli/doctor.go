package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"tether/internal/config"
	"tether/internal/slack"
	"tether/internal/storage"
	"tether/internal/store"
)

// NewDoctorCmd creates the doctor command.
func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose setup health",
		Long: `Run diagnostic checks on your Tether installation.

This command checks:
- Configuration file validity
- Workspace token status
- Slack API reachability (auth.test)
- Socket Mode availability (apps.connections.open)
- Ledger and event log state
- Admin gateway status`,
		RunE: runDoctor,
	}

	return cmd
}

type checkResult struct {
	name    string
	status  string // ok, warning, error
	message string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("Tether Doctor")
	fmt.Println("=============")
	fmt.Println()

	cfg := config.GetConfig()
	ctx := cmd.Context()

	client := slack.NewClient(slack.Config{
		BotToken: cfg.Slack.BotToken,
		AppToken: cfg.Slack.AppToken,
		APIBase:  cfg.Slack.APIBase,
	})

	var results []checkResult

	// 1. System info
	results = append(results, checkSystemInfo())

	// 2. Config file
	results = append(results, checkConfigFile())

	// 3. Workspace tokens
	results = append(results, checkTokens(cfg))

	// 4. Slack API access
	results = append(results, checkWorkspaceAuth(ctx, cfg, client))

	// 5. Socket Mode availability
	results = append(results, checkSocketMode(ctx, cfg, client))

	// 6. Local state
	results = append(results, checkLedger(cfg))
	results = append(results, checkEventLog(cfg))

	// 7. Admin gateway
	results = append(results, checkGateway(cfg))

	// Print results
	fmt.Println()
	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		icon := "✓"
		if r.status == "warning" {
			icon = "⚠️"
			hasWarnings = true
		} else if r.status == "error" {
			icon = "✗"
			hasErrors = true
		}

		fmt.Printf("%s %s: %s\n", icon, r.name, r.message)
	}

	// Summary
	fmt.Println()
	if hasErrors {
		fmt.Println("❌ Some checks failed. Please address the issues above.")
		return nil
	} else if hasWarnings {
		fmt.Println("⚠️  Some warnings detected. Your setup should work but may have issues.")
	} else {
		fmt.Println("✅ All checks passed! Tether is ready to use.")
	}

	return nil
}

func checkSystemInfo() checkResult {
	return checkResult{
		name:   "System",
		status: "ok",
		message: fmt.Sprintf("Go %s on %s/%s",
			runtime.Version(),
			runtime.GOOS,
			runtime.GOARCH,
		),
	}
}

func checkConfigFile() checkResult {
	configPath := config.Path()
	if configPath == "" {
		return checkResult{
			name:    "Config File",
			status:  "warning",
			message: "None in use (env and defaults only)",
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return checkResult{
			name:    "Config File",
			status:  "warning",
			message: fmt.Sprintf("Not found: %s (using defaults)", configPath),
		}
	}

	return checkResult{
		name:    "Config File",
		status:  "ok",
		message: fmt.Sprintf("Found: %s", configPath),
	}
}

func checkTokens(cfg *config.Config) checkResult {
	switch {
	case cfg.Slack.BotToken == "" && cfg.Slack.AppToken == "":
		return checkResult{
			name:    "Tokens",
			status:  "error",
			message: "No tokens configured. Run: tether auth set",
		}
	case cfg.Slack.BotToken == "":
		return checkResult{
			name:    "Tokens",
			status:  "error",
			message: "Bot token missing. Run: tether auth set",
		}
	case cfg.Slack.AppToken == "":
		return checkResult{
			name:    "Tokens",
			status:  "error",
			message: "App-level token missing. Run: tether auth set",
		}
	}

	return checkResult{
		name:   "Tokens",
		status: "ok",
		message: fmt.Sprintf("Bot %s, app %s",
			maskToken(cfg.Slack.BotToken),
			maskToken(cfg.Slack.AppToken),
		),
	}
}

func checkWorkspaceAuth(ctx context.Context, cfg *config.Config, client *slack.Client) checkResult {
	if cfg.Slack.BotToken == "" {
		return checkResult{
			name:    "Slack API",
			status:  "warning",
			message: "Skipped (no bot token configured)",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	identity, err := client.AuthTest(ctx)
	if err != nil {
		return checkResult{
			name:    "Slack API",
			status:  "error",
			message: fmt.Sprintf("auth.test failed: %v", err),
		}
	}

	return checkResult{
		name:    "Slack API",
		status:  "ok",
		message: fmt.Sprintf("Authenticated to %s as %s", identity.Team, identity.UserID),
	}
}

func checkSocketMode(ctx context.Context, cfg *config.Config, client *slack.Client) checkResult {
	if cfg.Slack.AppToken == "" {
		return checkResult{
			name:    "Socket Mode",
			status:  "warning",
			message: "Skipped (no app-level token configured)",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// The issued URL carries a one-shot ticket, so it is not echoed.
	if _, err := client.ConnectionsOpen(ctx); err != nil {
		return checkResult{
			name:    "Socket Mode",
			status:  "error",
			message: fmt.Sprintf("apps.connections.open failed: %v", err),
		}
	}

	return checkResult{
		name:    "Socket Mode",
		status:  "ok",
		message: "Connection URL issued",
	}
}

func checkLedger(cfg *config.Config) checkResult {
	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return checkResult{
			name:    "Ledger",
			status:  "error",
			message: fmt.Sprintf("Cannot open %s: %v", cfg.Storage.Path, err),
		}
	}
	defer db.Close()

	count, err := db.SeenCount()
	if err != nil {
		return checkResult{
			name:    "Ledger",
			status:  "error",
			message: fmt.Sprintf("Cannot read dedup marks: %v", err),
		}
	}

	msg := fmt.Sprintf("%s (%d dedup marks", db.Path(), count)
	if id, err := db.LoadIdentity(); err == nil {
		msg += fmt.Sprintf(", cached identity %s", id.UserID)
	}
	msg += ")"

	return checkResult{name: "Ledger", status: "ok", message: msg}
}

func checkEventLog(cfg *config.Config) checkResult {
	dir, err := config.ExpandPath(cfg.Store.Dir)
	if err != nil {
		return checkResult{
			name:    "Event Log",
			status:  "error",
			message: fmt.Sprintf("Cannot resolve %s: %v", cfg.Store.Dir, err),
		}
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return checkResult{
			name:    "Event Log",
			status:  "ok",
			message: fmt.Sprintf("Will be created: %s", dir),
		}
	}

	eventLog, err := store.Open(dir, store.Options{})
	if err != nil {
		return checkResult{
			name:    "Event Log",
			status:  "error",
			message: fmt.Sprintf("Cannot open %s: %v", dir, err),
		}
	}

	size, err := eventLog.Size()
	if err != nil {
		return checkResult{
			name:    "Event Log",
			status:  "warning",
			message: fmt.Sprintf("Found %s but cannot stat active file: %v", dir, err),
		}
	}

	sizeMB := float64(size) / 1024 / 1024
	return checkResult{
		name:    "Event Log",
		status:  "ok",
		message: fmt.Sprintf("Found: %s (active file: %.2f MB)", dir, sizeMB),
	}
}

func checkGateway(cfg *config.Config) checkResult {
	if !cfg.Gateway.Enabled {
		return checkResult{
			name:    "Admin Gateway",
			status:  "ok",
			message: "Disabled in config",
		}
	}

	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("http://%s:%d/health", cfg.Gateway.Host, cfg.Gateway.Port)

	resp, err := client.Get(url)
	if err != nil {
		return checkResult{
			name:    "Admin Gateway",
			status:  "warning",
			message: "Not running. Start with: tether serve",
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return checkResult{
			name:    "Admin Gateway",
			status:  "warning",
			message: fmt.Sprintf("Unexpected status %d from %s", resp.StatusCode, url),
		}
	}

	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err == nil && health.Version != "" {
		return checkResult{
			name:    "Admin Gateway",
			status:  "ok",
			message: fmt.Sprintf("Running at %s (version: %s)", url, health.Version),
		}
	}

	return checkResult{
		name:    "Admin Gateway",
		status:  "ok",
		message: fmt.Sprintf("Running at %s", url),
	}
}
