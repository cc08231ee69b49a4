package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tether/internal/config"
	"tether/internal/store"
)

// NewEventsCmd creates the events command.
func NewEventsCmd() *cobra.Command {
	var (
		count   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent events",
		Long: `Show the most recent events from the durable event log.

Events are read from the local log that serve maintains. The engine
does not need to be running.`,
		Example: `  # Show the last 20 events
  tether events

  # Show the last 5 events as JSON lines
  tether events -n 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(count, jsonOut)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 20, "number of events to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON lines")

	return cmd
}

func runEvents(count int, jsonOut bool) error {
	if count <= 0 {
		return fmt.Errorf("count must be positive")
	}

	cfg := config.GetConfig()
	dir, err := config.ExpandPath(cfg.Store.Dir)
	if err != nil {
		return fmt.Errorf("resolve event log dir: %w", err)
	}

	// Read-only use: rotation limits stay with the serve process.
	eventLog, err := store.Open(dir, store.Options{})
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}

	records, err := eventLog.Tail(count)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No events recorded yet.")
		return nil
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	}

	for _, rec := range records {
		ts := time.Unix(0, int64(rec.Timestamp*float64(time.Second)))
		fmt.Printf("%s  %-16s %s\n",
			ts.Format("2006-01-02 15:04:05"),
			rec.EventType,
			summarizeEvent(rec.Payload),
		)
	}

	return nil
}

// summarizeEvent renders a one-line hint of what the envelope carried.
func summarizeEvent(payload map[string]any) string {
	event, ok := payload["event"].(map[string]any)
	if !ok {
		return ""
	}

	var parts []string
	if t, ok := event["type"].(string); ok && t != "" {
		parts = append(parts, t)
	}
	if ch, ok := event["channel"].(string); ok && ch != "" {
		parts = append(parts, "channel="+ch)
	}
	if user, ok := event["user"].(string); ok && user != "" {
		parts = append(parts, "user="+user)
	}
	if text, ok := event["text"].(string); ok && text != "" {
		parts = append(parts, truncate(text, 48))
	}
	return strings.Join(parts, " ")
}

// truncate shortens s to at most max runes, marking the cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
