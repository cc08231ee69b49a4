package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tether/internal/actions"
	"tether/internal/config"
	"tether/internal/slack"
)

// NewChannelsCmd creates the channels command.
func NewChannelsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List workspace channels",
		Long: `List the channels visible to the bot token.

Membership matters: the engine only receives messages from channels
the bot has been invited to.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChannels(cmd.Context(), limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 200, "maximum channels to fetch")

	return cmd
}

func runChannels(ctx context.Context, limit int) error {
	cfg := config.GetConfig()
	if cfg.Slack.BotToken == "" {
		return fmt.Errorf("no bot token configured, run: tether auth set")
	}

	client := slack.NewClient(slack.Config{
		BotToken: cfg.Slack.BotToken,
		AppToken: cfg.Slack.AppToken,
		APIBase:  cfg.Slack.APIBase,
	})
	registry := actions.NewSlackRegistry(client)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := registry.Execute(ctx, "list_channels", map[string]any{"limit": limit})
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	channels, _ := result.Metadata["channels"].([]slack.Channel)
	if len(channels) == 0 {
		fmt.Println("No channels visible to the bot.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVISIBILITY\tMEMBER")
	for _, ch := range channels {
		visibility := "public"
		if ch.IsPrivate {
			visibility = "private"
		}
		member := "-"
		if ch.IsMember {
			member = "yes"
		}
		fmt.Fprintf(w, "%s\t#%s\t%s\t%s\n", ch.ID, ch.Name, visibility, member)
	}
	return w.Flush()
}
