package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tether/internal/cron"
	"tether/internal/engine"
	"tether/internal/slack"
)

func TestHandleStatus(t *testing.T) {
	sched := cron.NewScheduler()
	if err := sched.Register(cron.Task{
		Name:     "rotate",
		Schedule: "@hourly",
		Run:      func(ctx context.Context) error { return nil },
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	router := NewRouter(&RouterDeps{
		Engine: &mockEngine{
			state:    engine.StateConnected,
			identity: &slack.Identity{UserID: "U_BOT", BotID: "B_BOT", Team: "acme"},
			uptime:   90 * time.Second,
			inFlight: 2,
			stats:    engine.StatsSnapshot{Received: 7, Published: 3},
		},
		Cron: sched,
	})

	w := serve(router, httptest.NewRequest("GET", "/api/v1/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if resp.State != "connected" {
		t.Errorf("state = %s, want connected", resp.State)
	}
	if resp.Identity == nil || resp.Identity.UserID != "U_BOT" {
		t.Errorf("identity = %+v, want U_BOT", resp.Identity)
	}
	if resp.UptimeSeconds != 90 {
		t.Errorf("uptime = %d, want 90", resp.UptimeSeconds)
	}
	if resp.InFlight != 2 {
		t.Errorf("in flight = %d, want 2", resp.InFlight)
	}
	if resp.Stats.Received != 7 || resp.Stats.Published != 3 {
		t.Errorf("stats = %+v", resp.Stats)
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].Name != "rotate" {
		t.Errorf("tasks = %+v, want one entry named rotate", resp.Tasks)
	}
}

func TestHandleStatusDisconnected(t *testing.T) {
	router := NewRouter(&RouterDeps{Engine: &mockEngine{}})

	w := serve(router, httptest.NewRequest("GET", "/api/v1/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if resp.State != "disconnected" {
		t.Errorf("state = %s, want disconnected", resp.State)
	}
	if resp.Identity != nil {
		t.Errorf("identity = %+v, want nil", resp.Identity)
	}
	if resp.Tasks != nil {
		t.Errorf("tasks = %+v, want none", resp.Tasks)
	}
}
