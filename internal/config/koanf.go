// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched
// in priority order. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/deepcue/config.yaml",
	"/etc/deepcue/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix is stripped from environment variables before mapping them
// to config paths.
const envPrefix = "DEEPCUE_"

// Load builds the configuration from layered sources:
//
//  1. Defaults from defaultConfig
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
//
// The result is validated before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// DEEPCUE_DATABASE_PATH -> database.path, DEEPCUE_LOG_LEVEL ->
	// logging.level, and so on via envTransformFunc.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.Engine = cfg.Engine.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as
// comma-separated slices when they arrive as env var strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices
// for known slice fields. Env vars come in as strings but the config
// expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config
// paths. Unknown variables map to "" and are skipped, so unrelated
// environment noise never pollutes the config.
//
// Examples:
//   - DEEPCUE_DATABASE_PATH -> database.path
//   - DEEPCUE_HTTP_PORT -> server.port
//   - DEEPCUE_AUDIO_WEIGHT -> engine.similarity.audio_weight
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	key = strings.TrimPrefix(key, strings.ToLower(envPrefix))

	envMappings := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// API mappings
		"api_default_limit":          "api.default_limit",
		"api_max_limit":              "api.max_limit",
		"api_default_min_similarity": "api.default_min_similarity",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Similarity store mappings
		"store_path":                 "store.path",
		"store_ttl":                  "store.ttl",
		"store_breaker_failures":     "store.breaker_failures",
		"store_breaker_timeout":      "store.breaker_timeout",
		"store_breaker_max_requests": "store.breaker_max_requests",

		// Result cache mappings
		"cache_ttl": "cache.ttl",

		// Engine tuning mappings
		"audio_weight":         "engine.similarity.audio_weight",
		"tag_weight":           "engine.similarity.tag_weight",
		"popularity_weight":    "engine.similarity.popularity_weight",
		"candidate_pool_size":  "engine.similarity.candidate_pool_size",
		"similarity_cache_ttl": "engine.similarity.cache_ttl",
		"precompute_window":    "engine.similarity.precompute_window",
		"default_lambda":       "engine.diversity.default_lambda",
		"target_ild":           "engine.diversity.target_ild",
		"max_rerank_size":      "engine.diversity.max_rerank_size",
		"candidate_multiplier": "engine.hybrid.candidate_multiplier",
		"trending_window":      "engine.hybrid.trending_window",
		"max_limit":            "engine.hybrid.max_limit",
		"seed_tracks":          "engine.hybrid.seed_tracks",
		"ceiling_at_zero":      "engine.deepcut.ceiling_at_zero",
		"ceiling_at_one":       "engine.deepcut.ceiling_at_one",
		"deepcut_pool_cap":     "engine.deepcut.pool_cap",
		"deepcut_score_cap":    "engine.deepcut.score_cap",

		// Precompute scheduler mappings
		"precompute_enabled":          "precompute.enabled",
		"precompute_interval":         "precompute.interval",
		"precompute_window_size":      "precompute.window_size",
		"precompute_min_similarity":   "precompute.min_similarity",
		"precompute_pairs_per_second": "precompute.pairs_per_second",
		"precompute_burst":            "precompute.burst",

		// Security mappings
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
