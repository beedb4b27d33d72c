// Package config loads process settings from the environment and an
// optional .env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pfrederiksen/event-ingest/internal/logger"
	"github.com/pfrederiksen/event-ingest/internal/storage"
)

// Environment variable names
const (
	EnvDataDir     = "EVENT_INGEST_DATA_DIR"
	EnvStore       = "EVENT_INGEST_STORE"
	EnvPostgresDSN = "EVENT_INGEST_POSTGRES_DSN"
	EnvSources     = "EVENT_INGEST_SOURCES"
	EnvWorkers     = "EVENT_INGEST_WORKERS"
	EnvMaxRetries  = "EVENT_INGEST_MAX_RETRIES"
	EnvRetryDelay  = "EVENT_INGEST_RETRY_DELAY"
	EnvLogLevel    = "EVENT_INGEST_LOG_LEVEL"
	EnvMetricsAddr = "EVENT_INGEST_METRICS_ADDR"
	EnvSchedule    = "EVENT_INGEST_SCHEDULE"
)

// Store backends
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

var (
	// ErrUnknownStore is returned for a store backend other than file, memory or postgres
	ErrUnknownStore = errors.New("unknown store backend")
	// ErrMissingDSN is returned when the postgres backend has no connection string
	ErrMissingDSN = errors.New("postgres store requires a DSN")
	// ErrInvalidValue is returned when an environment variable cannot be parsed
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Config holds the process settings
type Config struct {
	DataDir     string
	Store       string
	PostgresDSN string
	Sources     string
	Workers     int
	MaxRetries  int
	RetryDelay  time.Duration
	LogLevel    logger.Level
	MetricsAddr string
	Schedule    string
}

// Defaults returns the settings used when nothing is configured
func Defaults() *Config {
	return &Config{
		DataDir:    "~/.event-ingest",
		Store:      StoreFile,
		Sources:    "configs/sources.yaml",
		Workers:    4,
		MaxRetries: 3,
		RetryDelay: 200 * time.Millisecond,
		LogLevel:   logger.LevelInfo,
		Schedule:   "@every 1h",
	}
}

// Load reads envFiles (or .env when none are given) and then the process
// environment. A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
		logger.Debug("No .env file found, using process environment", nil)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, starting from Defaults
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Defaults()

	if v := getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := getenv(EnvStore); v != "" {
		cfg.Store = strings.ToLower(strings.TrimSpace(v))
	}
	cfg.PostgresDSN = getenv(EnvPostgresDSN)
	if v := getenv(EnvSources); v != "" {
		cfg.Sources = v
	}
	if v := getenv(EnvMetricsAddr); v != "" {
		cfg.MetricsAddr = v
	}
	if v := getenv(EnvSchedule); v != "" {
		cfg.Schedule = v
	}

	var err error
	if cfg.Workers, err = intVar(getenv, EnvWorkers, cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = intVar(getenv, EnvMaxRetries, cfg.MaxRetries); err != nil {
		return nil, err
	}
	if v := getenv(EnvRetryDelay); v != "" {
		d, perr := time.ParseDuration(v)
		if perr != nil || d < 0 {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidValue, EnvRetryDelay, v)
		}
		cfg.RetryDelay = d
	}
	if v := getenv(EnvLogLevel); v != "" {
		level, perr := logger.ParseLevel(v)
		if perr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, EnvLogLevel, perr)
		}
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func intVar(getenv func(string) string, key string, fallback int) (int, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v)
	}
	return n, nil
}

// Validate checks the store selection
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return ErrMissingDSN
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store)
	}
	if c.Workers < 1 || c.MaxRetries < 1 {
		return fmt.Errorf("%w: workers and retries must be positive", ErrInvalidValue)
	}
	return nil
}

// OpenStore opens the configured backend
func (c *Config) OpenStore(ctx context.Context, opts ...storage.Option) (storage.Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Store {
	case StoreMemory:
		return storage.NewMemoryStore(opts...), nil
	case StorePostgres:
		store, err := storage.OpenPostgres(ctx, c.PostgresDSN, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := storage.NewFileStore(c.DataDir, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
