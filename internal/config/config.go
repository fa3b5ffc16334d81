package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// SyncConfig holds tuning knobs for the mailbox sync engine.
type SyncConfig struct {
	// IncrementalLookbackDays is the search window for an account+folder
	// that already has synced messages.
	IncrementalLookbackDays int `mapstructure:"incremental_lookback_days" yaml:"incremental_lookback_days"`

	// FullLookbackDays is the search window for a full resync or a
	// first run against an empty folder.
	FullLookbackDays int `mapstructure:"full_lookback_days" yaml:"full_lookback_days"`

	// FetchBatchSize is how many sequence numbers go into one FETCH.
	FetchBatchSize int `mapstructure:"fetch_batch_size" yaml:"fetch_batch_size"`

	// ConnectTimeoutSec bounds the TLS dial.
	ConnectTimeoutSec int `mapstructure:"connect_timeout_sec" yaml:"connect_timeout_sec"`

	// CommandTimeoutSec bounds each IMAP command round trip.
	CommandTimeoutSec int `mapstructure:"command_timeout_sec" yaml:"command_timeout_sec"`

	// MaxMessageSize is the byte cap above which a message is skipped.
	MaxMessageSize int64 `mapstructure:"max_message_size" yaml:"max_message_size"`
}

// ConnectTimeout returns ConnectTimeoutSec as a duration.
func (c SyncConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSec) * time.Second
}

// CommandTimeout returns CommandTimeoutSec as a duration.
func (c SyncConfig) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSec) * time.Second
}

// Config is the top-level application configuration.
type Config struct {
	// DatabasePath is where the SQLite database lives.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// LogJSON switches the CLI to JSON log output.
	LogJSON bool `mapstructure:"log_json" yaml:"log_json"`

	Sync SyncConfig `mapstructure:"sync" yaml:"sync"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/salonik/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "salonik", "config.yaml")
}

// defaultConfig returns a sensible default configuration.
func defaultConfig() *Config {
	return &Config{
		DatabasePath: filepath.Join(".", "salonik.db"),
		LogLevel:     "info",
		Sync: SyncConfig{
			IncrementalLookbackDays: 30,
			FullLookbackDays:        90,
			FetchBatchSize:          50,
			ConnectTimeoutSec:       15,
			CommandTimeoutSec:       60,
			MaxMessageSize:          5 << 20,
		},
	}
}

// Load reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("database_path", filepath.Join(".", "salonik.db"))
	v.SetDefault("log_level", "info")
	v.SetDefault("sync.incremental_lookback_days", 30)
	v.SetDefault("sync.full_lookback_days", 90)
	v.SetDefault("sync.fetch_batch_size", 50)
	v.SetDefault("sync.connect_timeout_sec", 15)
	v.SetDefault("sync.command_timeout_sec", 60)
	v.SetDefault("sync.max_message_size", 5<<20)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
