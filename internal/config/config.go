// Package config reads tickflow settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds settings shared by the CLI commands. Command-line flags
// override these values.
type Config struct {
	// TickInterval is the wall-clock pause between frames in `run`.
	// Zero runs frames back to back.
	TickInterval time.Duration `env:"TICKFLOW_TICK_INTERVAL" envDefault:"16ms"`

	// TickDelta is the simulated time each frame advances. Zero uses the
	// measured wall-clock time.
	TickDelta time.Duration `env:"TICKFLOW_TICK_DELTA" envDefault:"16ms"`

	MaxSteps int   `env:"TICKFLOW_MAX_STEPS" envDefault:"1000"`
	MaxTicks int64 `env:"TICKFLOW_MAX_TICKS" envDefault:"0"`

	// EffectWorkers bounds concurrent effects. Zero starts one goroutine
	// per effect.
	EffectWorkers int `env:"TICKFLOW_EFFECT_WORKERS" envDefault:"0"`

	// DB is the SQLite path for the record journal and reactor outcomes.
	// Empty keeps everything in memory.
	DB string `env:"TICKFLOW_DB"`

	LogLevel slog.Level `env:"TICKFLOW_LOG_LEVEL" envDefault:"INFO"`

	// OTelEndpoint enables OTLP/HTTP trace export when set.
	OTelEndpoint string `env:"TICKFLOW_OTEL_ENDPOINT"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.TickInterval < 0 {
		errs = append(errs, fmt.Errorf("tick interval must not be negative, got %s", c.TickInterval))
	}
	if c.TickDelta < 0 {
		errs = append(errs, fmt.Errorf("tick delta must not be negative, got %s", c.TickDelta))
	}
	if c.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("max steps must be positive, got %d", c.MaxSteps))
	}
	if c.MaxTicks < 0 {
		errs = append(errs, fmt.Errorf("max ticks must not be negative, got %d", c.MaxTicks))
	}
	if c.EffectWorkers < 0 {
		errs = append(errs, fmt.Errorf("effect workers must not be negative, got %d", c.EffectWorkers))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
