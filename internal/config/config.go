package config

import (
	"os"
	"strconv"
	"time"

	"edadash/internal/errors"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig
	Engine   EngineConfig
	Database DatabaseConfig
}

// ServerConfig holds dashboard web server settings.
type ServerConfig struct {
	Port string
}

// EngineConfig holds analysis engine settings. When URL is empty the
// in-process engine is used; otherwise uploads are forwarded to the remote
// engine at URL.
type EngineConfig struct {
	URL            string
	UploadTimeout  time.Duration
	MaxUploadBytes int64
	PreviewRows    int
	CategoryCutoff int
}

// DatabaseConfig holds the optional upload-ledger database settings. An
// empty URL disables the ledger.
type DatabaseConfig struct {
	URL string
}

// Load builds configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envOr("PORT", "8080"),
		},
		Engine: EngineConfig{
			URL:            os.Getenv("ENGINE_URL"),
			UploadTimeout:  envDurationOr("UPLOAD_TIMEOUT", 60*time.Second),
			MaxUploadBytes: envInt64Or("MAX_UPLOAD_BYTES", 32<<20),
			PreviewRows:    envIntOr("PREVIEW_ROWS", 5),
			CategoryCutoff: envIntOr("CATEGORY_CUTOFF", 20),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.New(errors.CodeConfigInvalid, "PORT must not be empty")
	}
	if c.Engine.UploadTimeout <= 0 {
		return errors.New(errors.CodeConfigInvalid, "UPLOAD_TIMEOUT must be positive")
	}
	if c.Engine.PreviewRows < 1 {
		return errors.New(errors.CodeConfigInvalid, "PREVIEW_ROWS must be at least 1")
	}
	if c.Engine.CategoryCutoff < 1 {
		return errors.New(errors.CodeConfigInvalid, "CATEGORY_CUTOFF must be at least 1")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
