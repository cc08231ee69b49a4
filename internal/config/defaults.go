package config

import (
	"time"

	"github.com/spf13/viper"
)

// Engine defaults referenced by Runtime when a stored value is unusable.
const (
	DefaultHistoryDepth    = 42
	DefaultDispatchTimeout = 120 * time.Second
)

// SetDefaults registers the default value for every configuration key.
func SetDefaults() {
	// Slack
	viper.SetDefault("slack.bot_token", "")
	viper.SetDefault("slack.app_token", "")
	viper.SetDefault("slack.api_base", "https://slack.com/api")

	// Engine
	viper.SetDefault("engine.auto_reply", true)
	viper.SetDefault("engine.listen_only_tag", "")
	viper.SetDefault("engine.history_depth", DefaultHistoryDepth)
	viper.SetDefault("engine.dispatch_timeout", DefaultDispatchTimeout)
	viper.SetDefault("engine.reaction_thinking", "thinking_face")
	viper.SetDefault("engine.reaction_done", "white_check_mark")
	viper.SetDefault("engine.reaction_error", "x")

	// Event log
	viper.SetDefault("store.dir", "~/.tether/events")
	viper.SetDefault("store.max_bytes", int64(32*1024*1024))
	viper.SetDefault("store.max_files", 5)

	// Ledger
	viper.SetDefault("storage.path", "~/.tether/tether.db")

	// Agent
	viper.SetDefault("agent.kind", "command")
	viper.SetDefault("agent.command", "claude")
	viper.SetDefault("agent.args", []string{"--print"})
	viper.SetDefault("agent.endpoint", "http://localhost:11434")
	viper.SetDefault("agent.model", "llama3.2")

	// Gateway
	viper.SetDefault("gateway.enabled", true)
	viper.SetDefault("gateway.host", "localhost")
	viper.SetDefault("gateway.port", 18791)

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.file", "")
}
