// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scigrad-ml/scigrad/internal/parallel"
)

// Config captures the SCIGRAD_* environment variables. Zero values mean
// "use the built-in default".
type Config struct {
	// NumWorkers overrides the worker count for parallel sections.
	NumWorkers int `env:"SCIGRAD_NUM_WORKERS"`
	// ParallelMinChunk overrides the per-goroutine chunk threshold.
	ParallelMinChunk int `env:"SCIGRAD_PARALLEL_MIN_CHUNK"`
	// LogLevel sets the CLI log level: debug, info, warn or error.
	LogLevel string `env:"SCIGRAD_LOG_LEVEL" envDefault:"info"`
}

// Load reads the SCIGRAD_* environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if cfg.NumWorkers < 0 {
		return Config{}, fmt.Errorf("config: SCIGRAD_NUM_WORKERS must be non-negative, got %d", cfg.NumWorkers)
	}
	if cfg.ParallelMinChunk < 0 {
		return Config{}, fmt.Errorf("config: SCIGRAD_PARALLEL_MIN_CHUNK must be non-negative, got %d", cfg.ParallelMinChunk)
	}
	return cfg, nil
}

// Parallel converts the loaded settings into a parallel.Config, starting
// from the CPU-count defaults and applying the overrides that were set.
func (c Config) Parallel() parallel.Config {
	cfg := parallel.DefaultConfig()
	if c.NumWorkers > 0 {
		cfg.NumWorkers = c.NumWorkers
		cfg.Enabled = c.NumWorkers > 1
	}
	if c.ParallelMinChunk > 0 {
		cfg.MinChunkSize = c.ParallelMinChunk
	}
	return cfg
}

// ZapLevel maps LogLevel onto a zapcore level, defaulting to info for
// unknown values.
func (c Config) ZapLevel() zapcore.Level {
	switch c.LogLevel {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
