// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

// Package config loads and validates Deepcue configuration.
//
// Configuration is layered with Koanf v2, lowest to highest priority:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML config file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables (DEEPCUE_* and a few legacy aliases)
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("failed to load config:", err)
//	}
//	db, err := database.New(&cfg.Database)
//
// Config is immutable after Load and safe for concurrent reads.
package config
