// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mellowhen/deepcue/internal/models"
)

// PrecomputeCatalog is the catalog slice the scheduler needs.
type PrecomputeCatalog interface {
	ListTracks(ctx context.Context, limit, offset int) ([]models.Track, error)
}

// PrecomputeEngine computes and stores similarity pairs for a batch of
// tracks. Satisfied by *recommend.Engine.
type PrecomputeEngine interface {
	PrecomputeBatch(ctx context.Context, tracks []models.Track, windowSize int, minSimilarity float64) (int, int, error)
}

// PrecomputeSchedulerConfig holds configuration for the scheduler.
type PrecomputeSchedulerConfig struct {
	// Interval is how often a full precompute cycle runs.
	Interval time.Duration

	// WindowSize is the sliding-window width passed to the engine.
	// Zero uses the engine's configured default.
	WindowSize int

	// MinSimilarity is the floor below which compared pairs are not
	// persisted.
	MinSimilarity float64

	// PairsPerSecond throttles store writes across a cycle.
	PairsPerSecond float64

	// Burst is the rate limiter burst size.
	Burst int

	// PageSize is how many tracks each catalog page fetches.
	PageSize int

	// RunOnStartup triggers a cycle as soon as the service starts
	// instead of waiting for the first tick.
	RunOnStartup bool
}

// PrecomputeScheduler periodically walks the catalog and refreshes the
// similarity store through the engine, pacing writes with a rate
// limiter so a cycle never saturates the store.
type PrecomputeScheduler struct {
	engine  PrecomputeEngine
	catalog PrecomputeCatalog
	config  PrecomputeSchedulerConfig
	limiter *rate.Limiter
	logger  zerolog.Logger
	name    string
}

// NewPrecomputeScheduler creates a scheduler service. Zero-valued
// config fields fall back to defaults.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPrecomputeScheduler(engine PrecomputeEngine, catalog PrecomputeCatalog, cfg PrecomputeSchedulerConfig, logger zerolog.Logger) *PrecomputeScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.PairsPerSecond <= 0 {
		cfg.PairsPerSecond = 200
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 50
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}
	return &PrecomputeScheduler{
		engine:  engine,
		catalog: catalog,
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.PairsPerSecond), cfg.Burst),
		logger:  logger.With().Str("service", "precompute").Logger(),
		name:    "precompute-scheduler",
	}
}

// Serve implements suture.Service. It runs precompute cycles on the
// configured interval until the context is canceled.
func (s *PrecomputeScheduler) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.config.Interval).
		Float64("pairs_per_second", s.config.PairsPerSecond).
		Bool("run_on_startup", s.config.RunOnStartup).
		Msg("precompute scheduler starting")

	if s.config.RunOnStartup {
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn().Err(err).Msg("startup precompute cycle failed, will retry on schedule")
		}
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("precompute scheduler shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.RunCycle(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn().Err(err).Msg("scheduled precompute cycle failed")
			}
		}
	}
}

// RunCycle walks the full catalog once and refreshes similarity pairs.
// Exported so an operator trigger can reuse the same pacing.
func (s *PrecomputeScheduler) RunCycle(ctx context.Context) error {
	start := time.Now()

	tracks, err := s.loadCatalog(ctx)
	if err != nil {
		return err
	}
	if len(tracks) < 2 {
		s.logger.Debug().Int("tracks", len(tracks)).Msg("catalog too small to precompute")
		return nil
	}

	window := s.config.WindowSize
	// Chunk the walk so the limiter paces between batches. Chunks
	// overlap by the window width to cover cross-boundary pairs.
	overlap := window
	if overlap <= 1 {
		overlap = 10
	}
	chunkSize := s.config.PageSize
	if chunkSize <= overlap {
		chunkSize = overlap * 2
	}

	var compared, stored int
	for lo := 0; lo < len(tracks); lo += chunkSize - overlap {
		hi := lo + chunkSize
		if hi > len(tracks) {
			hi = len(tracks)
		}

		c, n, err := s.engine.PrecomputeBatch(ctx, tracks[lo:hi], window, s.config.MinSimilarity)
		compared += c
		stored += n
		if err != nil {
			return err
		}

		if err := s.waitForBudget(ctx, c); err != nil {
			return err
		}

		if hi == len(tracks) {
			break
		}
	}

	s.logger.Info().
		Int("tracks", len(tracks)).
		Int("compared", compared).
		Int("stored", stored).
		Dur("duration", time.Since(start)).
		Msg("precompute cycle complete")
	return nil
}

// loadCatalog pages through the full catalog.
func (s *PrecomputeScheduler) loadCatalog(ctx context.Context) ([]models.Track, error) {
	var all []models.Track
	for offset := 0; ; offset += s.config.PageSize {
		page, err := s.catalog.ListTracks(ctx, s.config.PageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < s.config.PageSize {
			return all, nil
		}
	}
}

// waitForBudget charges n pairs against the rate limiter, splitting the
// charge so it never exceeds the burst size.
func (s *PrecomputeScheduler) waitForBudget(ctx context.Context, n int) error {
	burst := s.limiter.Burst()
	for n > 0 {
		take := n
		if take > burst {
			take = burst
		}
		if err := s.limiter.WaitN(ctx, take); err != nil {
			return err
		}
		n -= take
	}
	return nil
}

// String returns the service name for logging.
func (s *PrecomputeScheduler) String() string {
	return s.name
}
