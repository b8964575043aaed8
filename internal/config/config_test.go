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

	assert.Equal(t, 16*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 16*time.Millisecond, cfg.TickDelta)
	assert.Equal(t, 1000, cfg.MaxSteps)
	assert.Zero(t, cfg.MaxTicks)
	assert.Zero(t, cfg.EffectWorkers)
	assert.Empty(t, cfg.DB)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.OTelEndpoint)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TICKFLOW_TICK_INTERVAL", "0s")
	t.Setenv("TICKFLOW_TICK_DELTA", "33ms")
	t.Setenv("TICKFLOW_MAX_STEPS", "50")
	t.Setenv("TICKFLOW_MAX_TICKS", "600")
	t.Setenv("TICKFLOW_EFFECT_WORKERS", "4")
	t.Setenv("TICKFLOW_DB", "/tmp/tickflow.db")
	t.Setenv("TICKFLOW_LOG_LEVEL", "debug")
	t.Setenv("TICKFLOW_OTEL_ENDPOINT", "localhost:4318")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Zero(t, cfg.TickInterval)
	assert.Equal(t, 33*time.Millisecond, cfg.TickDelta)
	assert.Equal(t, 50, cfg.MaxSteps)
	assert.Equal(t, int64(600), cfg.MaxTicks)
	assert.Equal(t, 4, cfg.EffectWorkers)
	assert.Equal(t, "/tmp/tickflow.db", cfg.DB)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "localhost:4318", cfg.OTelEndpoint)
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("TICKFLOW_MAX_STEPS", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoadValidationError(t *testing.T) {
	t.Setenv("TICKFLOW_MAX_STEPS", "0")
	t.Setenv("TICKFLOW_EFFECT_WORKERS", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max steps must be positive")
	assert.Contains(t, err.Error(), "effect workers must not be negative")
}
