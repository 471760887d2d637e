// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration is complete and coherent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.validatePrecompute(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("DEEPCUE_HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("DEEPCUE_HTTP_TIMEOUT must be positive")
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
		return nil
	default:
		return fmt.Errorf("DEEPCUE_ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
}

func (c *Config) validateAPI() error {
	if c.API.DefaultLimit < 1 {
		return fmt.Errorf("DEEPCUE_API_DEFAULT_LIMIT must be at least 1")
	}
	if c.API.MaxLimit < c.API.DefaultLimit {
		return fmt.Errorf("DEEPCUE_API_MAX_LIMIT (%d) must not be below the default limit (%d)",
			c.API.MaxLimit, c.API.DefaultLimit)
	}
	if c.API.DefaultMinSimilarity < 0 || c.API.DefaultMinSimilarity > 1 {
		return fmt.Errorf("DEEPCUE_API_DEFAULT_MIN_SIMILARITY must be in [0,1]")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DEEPCUE_DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DEEPCUE_DUCKDB_THREADS must not be negative")
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Path == "" {
		return fmt.Errorf("DEEPCUE_STORE_PATH is required")
	}
	if c.Store.TTL < 0 {
		return fmt.Errorf("DEEPCUE_STORE_TTL must not be negative")
	}
	if c.Store.BreakerFailures < 1 {
		return fmt.Errorf("DEEPCUE_STORE_BREAKER_FAILURES must be at least 1")
	}
	if c.Store.BreakerTimeout <= 0 {
		return fmt.Errorf("DEEPCUE_STORE_BREAKER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validatePrecompute() error {
	if !c.Precompute.Enabled {
		return nil
	}
	if c.Precompute.Interval <= 0 {
		return fmt.Errorf("DEEPCUE_PRECOMPUTE_INTERVAL must be positive when the scheduler is enabled")
	}
	if c.Precompute.PairsPerSecond <= 0 {
		return fmt.Errorf("DEEPCUE_PRECOMPUTE_PAIRS_PER_SECOND must be positive")
	}
	if c.Precompute.Burst < 1 {
		return fmt.Errorf("DEEPCUE_PRECOMPUTE_BURST must be at least 1")
	}
	if c.Precompute.MinSimilarity < 0 || c.Precompute.MinSimilarity > 1 {
		return fmt.Errorf("DEEPCUE_PRECOMPUTE_MIN_SIMILARITY must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("DEEPCUE_RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("DEEPCUE_RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("DEEPCUE_LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("DEEPCUE_LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
