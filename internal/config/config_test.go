package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "chatrelay.db", cfg.SQLitePath)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.Equal(t, time.Second, cfg.RateLimitRefillInterval)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.AllowedOrigins)
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("HISTORY_CACHE_TTL", "2m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(1024), cfg.MaxMessageSize)
	assert.Equal(t, 2*time.Minute, cfg.HistoryCacheTTL)
}

func TestSanitizeRepairsInvalidValues(t *testing.T) {
	cfg := &Config{
		AllowedOrigins:          []string{" https://a.example.com ", "", "  "},
		MaxMessageSize:          -1,
		RateLimitBurst:          0,
		RateLimitRefillInterval: -time.Second,
	}
	cfg.sanitize()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"https://a.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.Equal(t, time.Second, cfg.RateLimitRefillInterval)
}

func TestSlogLevelMapping(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), "level %q", in)
	}
}
