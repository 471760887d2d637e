// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mellowhen/deepcue/internal/metrics"
	"github.com/mellowhen/deepcue/internal/models"
	"github.com/mellowhen/deepcue/internal/recommend"
)

// BreakerConfig tunes the similarity store circuit breaker.
type BreakerConfig struct {
	// Name identifies the breaker in logs and metrics.
	// Default: "similarity-store"
	Name string

	// FailureThreshold is the consecutive failure count that trips
	// the breaker. Default: 5
	FailureThreshold uint32

	// Timeout is how long the breaker stays open before probing.
	// Default: 30s
	Timeout time.Duration

	// MaxRequests is how many probes the half-open state allows.
	// Default: 3
	MaxRequests uint32
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "similarity-store",
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		MaxRequests:      3,
	}
}

// BreakerStore wraps a SimilarityStore with circuit breaker
// protection. When the underlying store fails repeatedly the breaker
// opens and calls fail fast with recommend.ErrCacheUnavailable, which
// callers treat as "no precomputed data".
type BreakerStore struct {
	inner recommend.SimilarityStore
	cb    *gobreaker.CircuitBreaker[interface{}]
}

// NewBreakerStore wraps the store with a circuit breaker.
func NewBreakerStore(inner recommend.SimilarityStore, cfg BreakerConfig) *BreakerStore {
	def := DefaultBreakerConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = def.MaxRequests
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.StoreBreakerState.Set(breakerStateValue(to))
		},
	}

	return &BreakerStore{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[interface{}](settings),
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// State returns the breaker state as a string for health reporting.
func (b *BreakerStore) State() string {
	return b.cb.State().String()
}

func (b *BreakerStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	out, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", recommend.ErrCacheUnavailable, err)
	}
	return out, err
}

// Put stores a record through the breaker.
func (b *BreakerStore) Put(ctx context.Context, rec models.SimilarityRecord) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Put(ctx, rec)
	})
	return err
}

// Get retrieves a pair record through the breaker.
func (b *BreakerStore) Get(ctx context.Context, trackA, trackB string) (*models.SimilarityRecord, error) {
	out, err := b.execute(func() (interface{}, error) {
		return b.inner.Get(ctx, trackA, trackB)
	})
	if err != nil {
		return nil, err
	}
	rec, _ := out.(*models.SimilarityRecord)
	return rec, nil
}

// AllFor retrieves a track's records through the breaker.
func (b *BreakerStore) AllFor(ctx context.Context, trackID string, limit int) ([]models.SimilarityRecord, error) {
	out, err := b.execute(func() (interface{}, error) {
		return b.inner.AllFor(ctx, trackID, limit)
	})
	if err != nil {
		return nil, err
	}
	records, _ := out.([]models.SimilarityRecord)
	return records, nil
}

var _ recommend.SimilarityStore = (*BreakerStore)(nil)
