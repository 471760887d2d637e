// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/mellowhen/deepcue/internal/models"
)

// stubCatalog serves a fixed track list in pages.
type stubCatalog struct {
	tracks  []models.Track
	listErr error
}

func (c *stubCatalog) ListTracks(_ context.Context, limit, offset int) ([]models.Track, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	if offset >= len(c.tracks) {
		return nil, nil
	}
	end := offset + limit
	if end > len(c.tracks) {
		end = len(c.tracks)
	}
	return c.tracks[offset:end], nil
}

// stubEngine records precompute batches.
type stubEngine struct {
	mu           sync.Mutex
	batches      [][]models.Track
	windows      []int
	floors       []float64
	pairsPerCall int
	err          error
}

func (e *stubEngine) PrecomputeBatch(_ context.Context, tracks []models.Track, windowSize int, minSimilarity float64) (int, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return 0, 0, e.err
	}
	e.batches = append(e.batches, tracks)
	e.windows = append(e.windows, windowSize)
	e.floors = append(e.floors, minSimilarity)
	if e.pairsPerCall > 0 {
		return e.pairsPerCall, e.pairsPerCall, nil
	}
	n := len(tracks) - 1
	if n < 0 {
		n = 0
	}
	return n, n, nil
}

func (e *stubEngine) batchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.batches)
}

func fixtureTracks(n int) []models.Track {
	out := make([]models.Track, n)
	for i := range out {
		out[i] = models.Track{ID: fmt.Sprintf("t-%03d", i)}
	}
	return out
}

func TestPrecomputeSchedulerInterface(t *testing.T) {
	var _ suture.Service = (*PrecomputeScheduler)(nil)
}

func TestNewPrecomputeSchedulerDefaults(t *testing.T) {
	s := NewPrecomputeScheduler(&stubEngine{}, &stubCatalog{}, PrecomputeSchedulerConfig{}, zerolog.Nop())

	if s.config.Interval != 6*time.Hour {
		t.Errorf("interval = %v, want 6h", s.config.Interval)
	}
	if s.config.PairsPerSecond != 200 {
		t.Errorf("pairs per second = %f, want 200", s.config.PairsPerSecond)
	}
	if s.config.Burst != 50 {
		t.Errorf("burst = %d, want 50", s.config.Burst)
	}
	if s.config.PageSize != 500 {
		t.Errorf("page size = %d, want 500", s.config.PageSize)
	}
	if s.String() != "precompute-scheduler" {
		t.Errorf("name = %q, want precompute-scheduler", s.String())
	}
}

func TestRunCycleWalksFullCatalog(t *testing.T) {
	catalog := &stubCatalog{tracks: fixtureTracks(25)}
	engine := &stubEngine{}
	s := NewPrecomputeScheduler(engine, catalog, PrecomputeSchedulerConfig{
		WindowSize:     3,
		MinSimilarity:  0.25,
		PageSize:       10,
		PairsPerSecond: 1e6,
		Burst:          1000,
	}, zerolog.Nop())

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if engine.batchCount() == 0 {
		t.Fatal("no batches submitted")
	}
	for _, w := range engine.windows {
		if w != 3 {
			t.Errorf("window = %d, want 3", w)
		}
	}
	for _, f := range engine.floors {
		if f != 0.25 {
			t.Errorf("similarity floor = %f, want 0.25", f)
		}
	}

	// Every track must appear in at least one batch.
	seen := make(map[string]bool)
	for _, batch := range engine.batches {
		for _, tr := range batch {
			seen[tr.ID] = true
		}
	}
	if len(seen) != 25 {
		t.Errorf("tracks covered = %d, want 25", len(seen))
	}
}

func TestRunCycleSkipsTinyCatalog(t *testing.T) {
	engine := &stubEngine{}
	s := NewPrecomputeScheduler(engine, &stubCatalog{tracks: fixtureTracks(1)}, PrecomputeSchedulerConfig{}, zerolog.Nop())

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if engine.batchCount() != 0 {
		t.Errorf("batches = %d, want 0 for single-track catalog", engine.batchCount())
	}
}

func TestRunCyclePropagatesCatalogError(t *testing.T) {
	listErr := errors.New("duckdb: connection closed")
	s := NewPrecomputeScheduler(&stubEngine{}, &stubCatalog{listErr: listErr}, PrecomputeSchedulerConfig{}, zerolog.Nop())

	if err := s.RunCycle(context.Background()); !errors.Is(err, listErr) {
		t.Errorf("RunCycle returned %v, want catalog error", err)
	}
}

func TestRunCyclePropagatesEngineError(t *testing.T) {
	engineErr := errors.New("store unavailable")
	engine := &stubEngine{err: engineErr}
	s := NewPrecomputeScheduler(engine, &stubCatalog{tracks: fixtureTracks(10)}, PrecomputeSchedulerConfig{
		PairsPerSecond: 1e6,
		Burst:          1000,
	}, zerolog.Nop())

	if err := s.RunCycle(context.Background()); !errors.Is(err, engineErr) {
		t.Errorf("RunCycle returned %v, want engine error", err)
	}
}

func TestRunCycleHonorsCancellation(t *testing.T) {
	// A tiny rate with a large pair count forces the limiter to block,
	// so cancellation must unwind the cycle.
	engine := &stubEngine{pairsPerCall: 10000}
	s := NewPrecomputeScheduler(engine, &stubCatalog{tracks: fixtureTracks(50)}, PrecomputeSchedulerConfig{
		PairsPerSecond: 1,
		Burst:          1,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.RunCycle(ctx)
	if err == nil {
		t.Fatal("RunCycle did not stop on cancellation")
	}
}

func TestServeRunsStartupCycle(t *testing.T) {
	catalog := &stubCatalog{tracks: fixtureTracks(10)}
	engine := &stubEngine{}
	s := NewPrecomputeScheduler(engine, catalog, PrecomputeSchedulerConfig{
		Interval:       time.Hour,
		RunOnStartup:   true,
		PairsPerSecond: 1e6,
		Burst:          1000,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for engine.batchCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("startup cycle did not run")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
