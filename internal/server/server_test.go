package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tether/internal/config"
)

func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	body := "store:\n  dir: " + filepath.Join(dir, "events") + "\n" +
		"storage:\n  path: " + filepath.Join(dir, "tether.db") + "\n" +
		extra
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Cleanup(config.Reset)
	return path
}

func clearTokens(t *testing.T) {
	t.Helper()
	t.Setenv("SLACK_BOT_TOKEN", "")
	t.Setenv("SLACK_APP_TOKEN", "")
	t.Setenv("TETHER_SLACK_BOT_TOKEN", "")
	t.Setenv("TETHER_SLACK_APP_TOKEN", "")
}

func TestNewBuildsComponents(t *testing.T) {
	clearTokens(t)
	s, err := New(Options{ConfigPath: writeTestConfig(t, ""), Version: "test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.db.Close()

	if s.engine == nil {
		t.Error("engine not built")
	}
	if s.gateway == nil {
		t.Error("gateway not built despite default enabled")
	}
	if s.registry == nil || s.registry.Len() == 0 {
		t.Error("action registry empty")
	}
	if got := s.sched.Entries(); got != 2 {
		t.Errorf("scheduled tasks = %d, want 2", got)
	}
	if s.IsRunning() {
		t.Error("IsRunning() = true before Start")
	}
	if s.Uptime() != 0 {
		t.Errorf("Uptime() = %v, want 0", s.Uptime())
	}
}

func TestNewGatewayDisabled(t *testing.T) {
	clearTokens(t)
	path := writeTestConfig(t, "gateway:\n  enabled: false\n")
	s, err := New(Options{ConfigPath: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.db.Close()

	if s.gateway != nil {
		t.Error("gateway built despite enabled: false")
	}
}

func TestNewRejectsUnknownAgentKind(t *testing.T) {
	clearTokens(t)
	path := writeTestConfig(t, "agent:\n  kind: carrier-pigeon\n")
	if _, err := New(Options{ConfigPath: path}); err == nil {
		t.Fatal("New() accepted unknown agent kind")
	}
}

func TestStartFailsWithoutCredentials(t *testing.T) {
	clearTokens(t)
	s, err := New(Options{ConfigPath: writeTestConfig(t, "")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.db.Close()

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start() succeeded without workspace tokens")
	}
	if s.IsRunning() {
		t.Error("IsRunning() = true after failed Start")
	}
}

func TestStopBeforeStart(t *testing.T) {
	clearTokens(t)
	s, err := New(Options{ConfigPath: writeTestConfig(t, "")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.db.Close()

	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
