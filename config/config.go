// Package config loads process configuration from the environment, with an
// optional config file on top.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Storage backends selectable at startup.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	// BotToken authenticates the bot against the messaging transport.
	BotToken string
	// ReviewerChatID receives completed submissions. Zero means no reviewer
	// is configured and notifications are skipped.
	ReviewerChatID int64
	// StorageBackend selects "postgres" or "memory".
	StorageBackend string
	// PostgresDSN is required for the postgres backend.
	PostgresDSN string
	// RetentionDays is how long completed submissions are kept.
	RetentionDays int
	// PollTimeout bounds one long-poll request.
	PollTimeout time.Duration
}

// Load reads configuration from INTAKE_* environment variables and, when
// path is non-empty, a config file. Environment values win.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("storage_backend", BackendPostgres)
	v.SetDefault("retention_days", 3)
	v.SetDefault("poll_timeout_seconds", 30)

	v.SetEnvPrefix("INTAKE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		BotToken:       v.GetString("bot_token"),
		ReviewerChatID: v.GetInt64("reviewer_chat_id"),
		StorageBackend: v.GetString("storage_backend"),
		PostgresDSN:    v.GetString("postgres_dsn"),
		RetentionDays:  v.GetInt("retention_days"),
		PollTimeout:    time.Duration(v.GetInt("poll_timeout_seconds")) * time.Second,
	}

	if cfg.BotToken == "" {
		return nil, errors.New("bot_token must be set")
	}
	switch cfg.StorageBackend {
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("postgres_dsn must be set for the postgres backend")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if cfg.RetentionDays <= 0 {
		return nil, errors.New("retention_days must be positive")
	}

	return cfg, nil
}

// RetentionAge converts the configured retention into a purge age.
func (c *Config) RetentionAge() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
