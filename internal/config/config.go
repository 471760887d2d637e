// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package config

import (
	"time"

	"github.com/mellowhen/deepcue/internal/recommend"
)

// Config is the root configuration for a Deepcue instance.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	API        APIConfig        `koanf:"api"`
	Database   DatabaseConfig   `koanf:"database"`
	Store      StoreConfig      `koanf:"store"`
	Cache      CacheConfig      `koanf:"cache"`
	Engine     recommend.Config `koanf:"engine"`
	Precompute PrecomputeConfig `koanf:"precompute"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP listen port. Default: 8080
	Port int `koanf:"port"`

	// Host is the HTTP listen address. Default: 0.0.0.0
	Host string `koanf:"host"`

	// Timeout bounds request read/write and graceful shutdown.
	// Default: 30s
	Timeout time.Duration `koanf:"timeout"`

	// Environment is "development", "staging" or "production".
	// Default: development
	Environment string `koanf:"environment"`
}

// APIConfig holds request parameter defaults and limits.
type APIConfig struct {
	// DefaultLimit is the result count when a request omits limit.
	// Default: 20
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the requested result count. Default: 100
	MaxLimit int `koanf:"max_limit"`

	// DefaultMinSimilarity filters similar-track lookups when the
	// request omits min_similarity. Default: 0.5
	DefaultMinSimilarity float64 `koanf:"default_min_similarity"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB file path, or ":memory:". Default: /data/deepcue.duckdb
	Path string `koanf:"path"`

	// MaxMemory is the DuckDB memory cap. Default: 2GB
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count (0 = runtime.NumCPU).
	// Default: 0
	Threads int `koanf:"threads"`
}

// StoreConfig holds BadgerDB similarity store settings.
type StoreConfig struct {
	// Path is the Badger directory. Default: /data/similarity
	Path string `koanf:"path"`

	// TTL is how long precomputed similarity records live
	// (0 = forever). Default: 168h
	TTL time.Duration `koanf:"ttl"`

	// BreakerFailures is the consecutive failure count that opens
	// the store circuit breaker. Default: 5
	BreakerFailures int `koanf:"breaker_failures"`

	// BreakerTimeout is how long the breaker stays open before
	// probing. Default: 30s
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`

	// BreakerMaxRequests is the half-open probe allowance.
	// Default: 3
	BreakerMaxRequests int `koanf:"breaker_max_requests"`
}

// CacheConfig holds in-memory result cache settings.
type CacheConfig struct {
	// TTL is the default lifetime of cached entries. Default: 1h
	TTL time.Duration `koanf:"ttl"`
}

// PrecomputeConfig holds the background precompute scheduler settings.
type PrecomputeConfig struct {
	// Enabled turns the scheduler on. Default: true
	Enabled bool `koanf:"enabled"`

	// Interval is how often a precompute sweep runs. Default: 6h
	Interval time.Duration `koanf:"interval"`

	// WindowSize is the sliding comparison window per sweep
	// (0 = engine default). Default: 0
	WindowSize int `koanf:"window_size"`

	// MinSimilarity is the floor below which compared pairs are not
	// persisted. Default: 0
	MinSimilarity float64 `koanf:"min_similarity"`

	// PairsPerSecond paces pair computation to keep sweeps from
	// starving request traffic. Default: 200
	PairsPerSecond float64 `koanf:"pairs_per_second"`

	// Burst is the rate limiter burst allowance. Default: 50
	Burst int `koanf:"burst"`
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	// RateLimitReqs is the request allowance per window per IP.
	// Default: 100
	RateLimitReqs int `koanf:"rate_limit_reqs"`

	// RateLimitWindow is the rate limit window. Default: 1m
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// RateLimitDisabled turns off rate limiting entirely.
	// Default: false
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`

	// CORSOrigins lists allowed CORS origins. Default: *
	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn,
	// error. Default: info
	Level string `koanf:"level"`

	// Format is json or console. Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line in logs. Default: false
	Caller bool `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultLimit:         20,
			MaxLimit:             100,
			DefaultMinSimilarity: 0.5,
		},
		Database: DatabaseConfig{
			Path:      "/data/deepcue.duckdb",
			MaxMemory: "2GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Store: StoreConfig{
			Path:               "/data/similarity",
			TTL:                7 * 24 * time.Hour,
			BreakerFailures:    5,
			BreakerTimeout:     30 * time.Second,
			BreakerMaxRequests: 3,
		},
		Cache: CacheConfig{
			TTL: time.Hour,
		},
		Engine: recommend.DefaultConfig(),
		Precompute: PrecomputeConfig{
			Enabled:        true,
			Interval:       6 * time.Hour,
			WindowSize:     0, // engine default
			PairsPerSecond: 200,
			Burst:          50,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
