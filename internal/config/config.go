// Package config loads the service configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting of the relay service.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`

	SQLitePath      string        `envconfig:"SQLITE_PATH" default:"chatrelay.db"`
	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	HistoryCacheTTL time.Duration `envconfig:"HISTORY_CACHE_TTL" default:"30s"`

	MaxMessageSize          int64         `envconfig:"MAX_MESSAGE_SIZE" default:"4096"`
	RateLimitBurst          int           `envconfig:"RATE_LIMIT_BURST" default:"5"`
	RateLimitRefillInterval time.Duration `envconfig:"RATE_LIMIT_REFILL_INTERVAL" default:"1s"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads the configuration from the environment. A .env file is loaded
// first when present; missing files are not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	cfg.sanitize()
	return &cfg, nil
}

func (c *Config) sanitize() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 4096
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 5
	}
	if c.RateLimitRefillInterval <= 0 {
		c.RateLimitRefillInterval = time.Second
	}
	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, origin := range c.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.AllowedOrigins = origins
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// IsProduction reports whether diagnostic detail must be withheld from
// error responses.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// SlogLevel maps the configured log level onto slog's levels, defaulting
// to info for unknown values.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
