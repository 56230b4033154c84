// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the score store: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`
	// StoreDSN is passed to the SQL driver. Empty uses the driver default.
	StoreDSN string `koanf:"store_dsn"`

	// FetchConcurrency bounds parallel per-user fetches while ranking.
	FetchConcurrency int `koanf:"fetch_concurrency"`
	// FetchTimeoutMS bounds a single user's fetch; a timeout skips the user.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// DedupeSize bounds remembered submission ids.
	DedupeSize int `koanf:"dedupe_size"`

	// RatingCache enables per-user memoization of chart bests.
	RatingCache bool `koanf:"rating_cache"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// RedisAddr enables publishing leaderboard snapshots when set.
	RedisAddr string `koanf:"redis_addr"`
	// RedisKey is the sorted set receiving snapshots.
	RedisKey string `koanf:"redis_key"`
}

// New returns a Config holding defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		StoreDriver:         DriverMemory,
		FetchConcurrency:    runtime.NumCPU() * 4,
		FetchTimeoutMS:      2_000,
		DedupeSize:          50_000,
		RatingCache:         true,
		MaxLeaderboardLimit: 100,
		RedisKey:            "rks:leaderboard",
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreDriver != DriverMemory && c.StoreDriver != DriverSQLite && c.StoreDriver != DriverPostgres:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case c.FetchConcurrency < 1:
		return fmt.Errorf("%w: fetch_concurrency must be positive", ErrInvalidConfig)
	case c.FetchTimeoutMS < 1:
		return fmt.Errorf("%w: fetch_timeout_ms must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.RedisAddr != "" && c.RedisKey == "":
		return fmt.Errorf("%w: redis_key must be set with redis_addr", ErrInvalidConfig)
	}
	return nil
}
