package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Slack   SlackConfig   `mapstructure:"slack" yaml:"slack"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Gateway GatewayConfig `mapstructure:"gateway" yaml:"gateway"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// SlackConfig holds the workspace credentials and API location.
type SlackConfig struct {
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
	AppToken string `mapstructure:"app_token" yaml:"app_token"`
	APIBase  string `mapstructure:"api_base" yaml:"api_base"`
}

// EngineConfig holds the event pipeline settings. The auto_reply,
// listen_only_tag and history_depth fields are mutable at runtime and
// must be read through Runtime, not from a loaded snapshot.
type EngineConfig struct {
	AutoReply        bool          `mapstructure:"auto_reply" yaml:"auto_reply"`
	ListenOnlyTag    string        `mapstructure:"listen_only_tag" yaml:"listen_only_tag"`
	HistoryDepth     int           `mapstructure:"history_depth" yaml:"history_depth"`
	DispatchTimeout  time.Duration `mapstructure:"dispatch_timeout" yaml:"dispatch_timeout"`
	ReactionThinking string        `mapstructure:"reaction_thinking" yaml:"reaction_thinking"`
	ReactionDone     string        `mapstructure:"reaction_done" yaml:"reaction_done"`
	ReactionError    string        `mapstructure:"reaction_error" yaml:"reaction_error"`
}

// StoreConfig holds the event log location and rotation bound.
type StoreConfig struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes" yaml:"max_bytes"`
	MaxFiles int    `mapstructure:"max_files" yaml:"max_files"`
}

// StorageConfig holds the sqlite ledger location.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AgentConfig selects and configures the responder implementation.
type AgentConfig struct {
	Kind     string   `mapstructure:"kind" yaml:"kind"` // command, http
	Command  string   `mapstructure:"command" yaml:"command"`
	Args     []string `mapstructure:"args" yaml:"args"`
	Endpoint string   `mapstructure:"endpoint" yaml:"endpoint"`
	Model    string   `mapstructure:"model" yaml:"model"`
}

// GatewayConfig holds the admin HTTP server settings.
type GatewayConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

var (
	globalConfig *Config
	configPath   string
	mu           sync.RWMutex
)

// Load reads configuration with priority ENV > file > defaults.
func Load(path string) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	SetDefaults()

	viper.SetEnvPrefix("TETHER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Workspace tokens are conventionally exported under their Slack
	// names, so accept those alongside the prefixed forms.
	_ = viper.BindEnv("slack.bot_token", "TETHER_SLACK_BOT_TOKEN", "SLACK_BOT_TOKEN")
	_ = viper.BindEnv("slack.app_token", "TETHER_SLACK_APP_TOKEN", "SLACK_APP_TOKEN")

	if path != "" {
		expandedPath, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		configPath = expandedPath

		viper.SetConfigFile(expandedPath)
		if err := viper.ReadInConfig(); err != nil {
			// A missing file falls back to env and defaults; a file
			// that exists but does not parse is a real failure.
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) && !os.IsNotExist(err) {
				if _, ok := err.(viper.ConfigParseError); ok {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// GetConfig returns the currently loaded configuration.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

// Path returns the config file path in use, empty if none.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return configPath
}

// GetString returns a string value for key.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an integer value for key.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a boolean value for key.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration value for key.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// Set updates a value and persists it when a config file is in use.
func Set(key string, value any) error {
	mu.Lock()
	defer mu.Unlock()

	viper.Set(key, value)

	if configPath != "" {
		return save()
	}
	return nil
}

// Save writes the current settings to the config file.
func Save() error {
	mu.Lock()
	defer mu.Unlock()
	return save()
}

// save writes the file; callers must hold the lock.
func save() error {
	if configPath == "" {
		return errors.New("config path not set")
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	allSettings := viper.AllSettings()

	data, err := yaml.Marshal(allSettings)
	if err != nil {
		return err
	}

	// 0600: the file carries workspace tokens.
	return os.WriteFile(configPath, data, 0600)
}

// Reload re-reads the config file in place, keeping defaults and env
// bindings. Used by the file watcher.
func Reload() error {
	mu.Lock()
	defer mu.Unlock()

	if configPath == "" {
		return errors.New("config path not set")
	}
	if err := viper.ReadInConfig(); err != nil {
		return err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return err
	}
	globalConfig = &cfg
	return nil
}

// Reset clears all configuration state. Primarily for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	configPath = ""
	viper.Reset()
}
