package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tether/internal/config"
	"tether/internal/slack"
	"tether/internal/storage"
)

// NewAuthCmd creates the auth command.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Manage the Slack workspace tokens Tether connects with.`,
	}

	cmd.AddCommand(newAuthSetCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

func newAuthSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Configure workspace tokens",
		Long: `Configure the Slack workspace tokens.

Tether needs two tokens from your Slack app:
1. A bot token (xoxb-...) from OAuth & Permissions
2. An app-level token (xapp-...) with the connections:write scope,
   from Basic Information > App-Level Tokens

Both tokens are stored in your Tether configuration file.`,
		Example: `  # Interactive setup (recommended, input stays hidden)
  tether auth set

  # Provide tokens directly
  tether auth set --bot-token xoxb-xxxxx --app-token xapp-xxxxx`,
		RunE: runAuthSet,
	}

	cmd.Flags().String("bot-token", "", "bot token (if not provided, will prompt)")
	cmd.Flags().String("app-token", "", "app-level token (if not provided, will prompt)")

	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check authentication status",
		Long:  `Display the stored tokens (masked) and verify them against the workspace.`,
		RunE:  runAuthStatus,
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove workspace tokens",
		Long:  `Remove the stored workspace tokens and the cached bot identity.`,
		RunE:  runAuthLogout,
	}
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	botToken, _ := cmd.Flags().GetString("bot-token")
	appToken, _ := cmd.Flags().GetString("app-token")

	// Prompt for whatever the flags did not provide
	if botToken == "" || appToken == "" {
		fmt.Println("Slack Workspace Authentication")
		fmt.Println("------------------------------")
		fmt.Println("")
		fmt.Println("Tether needs a bot token (xoxb-...) and an app-level")
		fmt.Println("token (xapp-...) with the connections:write scope.")
		fmt.Println("")
	}

	if botToken == "" {
		var err error
		botToken, err = readSecret("Enter bot token (xoxb-...): ")
		if err != nil {
			return fmt.Errorf("failed to read bot token: %w", err)
		}
	}
	if botToken == "" {
		return fmt.Errorf("bot token cannot be empty")
	}

	if appToken == "" {
		var err error
		appToken, err = readSecret("Enter app-level token (xapp-...): ")
		if err != nil {
			return fmt.Errorf("failed to read app-level token: %w", err)
		}
	}
	if appToken == "" {
		return fmt.Errorf("app-level token cannot be empty")
	}

	// Validate token format (basic check)
	if !strings.HasPrefix(botToken, "xoxb-") || !strings.HasPrefix(appToken, "xapp-") {
		fmt.Println("")
		fmt.Println("⚠️  Warning: tokens don't look like a Slack bot/app-level token pair")
		fmt.Print("Continue anyway? (y/N): ")

		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			return fmt.Errorf("authentication cancelled")
		}
	}

	if err := config.Set("slack.bot_token", botToken); err != nil {
		return fmt.Errorf("failed to save bot token: %w", err)
	}
	if err := config.Set("slack.app_token", appToken); err != nil {
		return fmt.Errorf("failed to save app token: %w", err)
	}

	fmt.Println("")
	fmt.Println("✓ Workspace tokens saved successfully!")
	fmt.Println("")
	fmt.Printf("Configuration saved to: %s\n", config.Path())
	fmt.Println("")
	fmt.Println("Verify them with: tether auth status")

	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	fmt.Println("Authentication Status")
	fmt.Println("---------------------")
	fmt.Println("")

	if cfg.Slack.BotToken == "" || cfg.Slack.AppToken == "" {
		fmt.Println("Status: ❌ Not authenticated")
		fmt.Println("")
		fmt.Println("Run 'tether auth set' to configure workspace tokens.")
		return nil
	}

	fmt.Println("Status: ✓ Tokens configured")
	fmt.Printf("Bot token: %s\n", maskToken(cfg.Slack.BotToken))
	fmt.Printf("App token: %s\n", maskToken(cfg.Slack.AppToken))
	fmt.Println("")

	// Verify against the workspace
	fmt.Println("Verifying workspace access...")
	client := slack.NewClient(slack.Config{
		BotToken: cfg.Slack.BotToken,
		AppToken: cfg.Slack.AppToken,
		APIBase:  cfg.Slack.APIBase,
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	identity, err := client.AuthTest(ctx)
	if err != nil {
		fmt.Println("")
		fmt.Println("⚠️  Workspace verification failed:")
		fmt.Printf("   %v\n", err)
		fmt.Println("")
		fmt.Println("Possible causes:")
		fmt.Println("  1. The bot token was revoked or rotated")
		fmt.Println("  2. The app was removed from the workspace")
		fmt.Println("  3. No network path to the Slack API")
		return nil
	}

	fmt.Printf("✓ Authenticated to %s as %s\n", identity.Team, identity.UserID)
	fmt.Println("")
	fmt.Println("You can start the engine with: tether serve")

	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	if cfg.Slack.BotToken == "" && cfg.Slack.AppToken == "" {
		fmt.Println("No workspace tokens configured.")
		return nil
	}

	if err := config.Set("slack.bot_token", ""); err != nil {
		return fmt.Errorf("failed to clear bot token: %w", err)
	}
	if err := config.Set("slack.app_token", ""); err != nil {
		return fmt.Errorf("failed to clear app token: %w", err)
	}

	// The cached identity belongs to the old tokens.
	if db, err := storage.Open(cfg.Storage.Path); err == nil {
		_ = db.ClearIdentity()
		db.Close()
	}

	fmt.Println("✓ Workspace tokens removed successfully!")

	return nil
}

// readSecret reads a line from the terminal without echoing it.
func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // New line after hidden input
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
