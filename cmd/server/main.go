// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

// Package main is the entry point for the Deepcue server.
//
// Deepcue is a self-hosted music discovery engine that scores pairwise
// track similarity from audio features and tags, blends multiple
// recommendation sources per user, and surfaces deep cuts from the
// low-popularity end of the catalog.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings from defaults, config file, and
//     environment variables (koanf v2)
//  2. Database: DuckDB catalog with tracks, features, and play history
//  3. Similarity store: BadgerDB persisting precomputed pair records,
//     wrapped in a circuit breaker
//  4. Scoring engine: similarity, hybrid, diversity, and deep-cut
//     components sharing one in-memory cache
//  5. HTTP server: REST API under /api/v1 with Prometheus metrics
//
// Long-running components run under a suture supervisor tree. The
// precompute scheduler lives in the data layer and the HTTP server in
// the API layer, so a scheduler crash never takes the API down.
//
// # Configuration
//
// Configuration is loaded via koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (DEEPCUE_* prefix)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Common settings:
//   - DEEPCUE_HTTP_PORT: listen port (default 8080)
//   - DEEPCUE_DUCKDB_PATH: catalog database file
//   - DEEPCUE_STORE_PATH: BadgerDB similarity store directory
//   - DEEPCUE_PRECOMPUTE_INTERVAL: scheduler cadence (default 6h)
//   - DEEPCUE_LOG_LEVEL, DEEPCUE_LOG_FORMAT: logging
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete
//   - Closes the similarity store and catalog database
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/mellowhen/deepcue/internal/api"
	"github.com/mellowhen/deepcue/internal/cache"
	"github.com/mellowhen/deepcue/internal/config"
	"github.com/mellowhen/deepcue/internal/database"
	"github.com/mellowhen/deepcue/internal/flags"
	"github.com/mellowhen/deepcue/internal/logging"
	"github.com/mellowhen/deepcue/internal/recommend"
	"github.com/mellowhen/deepcue/internal/recommend/storage"
	"github.com/mellowhen/deepcue/internal/supervisor"
	"github.com/mellowhen/deepcue/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("store_path", cfg.Store.Path).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Deepcue")

	// Catalog database.
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Catalog database initialized")

	// Similarity store: BadgerDB behind a circuit breaker so store
	// outages degrade to on-the-fly scoring instead of failing requests.
	badgerOpts := badger.DefaultOptions(cfg.Store.Path)
	badgerOpts.Logger = nil
	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open similarity store")
	}
	defer func() {
		if err := badgerDB.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing similarity store")
		}
	}()

	store := storage.NewBreakerStore(
		storage.NewBadgerSimilarityStore(badgerDB, cfg.Store.TTL),
		storage.BreakerConfig{
			FailureThreshold: uint32(cfg.Store.BreakerFailures),
			Timeout:          cfg.Store.BreakerTimeout,
			MaxRequests:      uint32(cfg.Store.BreakerMaxRequests),
		},
	)
	logging.Info().Str("path", cfg.Store.Path).Dur("ttl", cfg.Store.TTL).Msg("Similarity store initialized")

	// Scoring components share one cache and one feature flag registry.
	fl := flags.New()
	resultCache := cache.New(cfg.Cache.TTL)

	engine := recommend.NewEngine(cfg.Engine, db, store, resultCache, fl)
	optimizer := recommend.NewDiversityOptimizer(engine)
	hybrid := recommend.NewHybridScorer(engine, db, nil)
	deepcuts := recommend.NewDeepCutSelector(engine)
	logging.Info().Msg("Scoring engine initialized")

	handler := api.NewHandler(engine, optimizer, hybrid, deepcuts, db, db, fl, cfg, db)
	router := api.NewRouter(handler, api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
	}))

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DEEPCUE_DISABLE_RATE_LIMIT=true)")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Context for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Supervisor tree. sutureslog wants slog, so the zerolog logger is
	// bridged through the logging package's adapter.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Precompute.Enabled {
		scheduler := services.NewPrecomputeScheduler(engine, db, services.PrecomputeSchedulerConfig{
			Interval:       cfg.Precompute.Interval,
			WindowSize:     cfg.Precompute.WindowSize,
			MinSimilarity:  cfg.Precompute.MinSimilarity,
			PairsPerSecond: cfg.Precompute.PairsPerSecond,
			Burst:          cfg.Precompute.Burst,
			RunOnStartup:   true,
		}, logging.Logger())
		tree.AddDataService(scheduler)
		logging.Info().Dur("interval", cfg.Precompute.Interval).Msg("Precompute scheduler added to supervisor tree")
	} else {
		logging.Info().Msg("Precompute scheduler disabled (DEEPCUE_PRECOMPUTE_ENABLED=false)")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Signal handling.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain the error channel until the supervisor finishes.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Deepcue stopped gracefully")
}
