// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/mellowhen/deepcue/internal/cache"
	"github.com/mellowhen/deepcue/internal/flags"
	"github.com/mellowhen/deepcue/internal/logging"
	"github.com/mellowhen/deepcue/internal/metrics"
	"github.com/mellowhen/deepcue/internal/models"
)

// Engine computes pairwise track similarity and serves top-K similar
// lookups backed by precomputed records, an in-memory cache and an
// on-the-fly fallback pool.
type Engine struct {
	cfg     Config
	catalog CatalogStore
	store   SimilarityStore
	cache   Cache
	flags   *flags.Flags
	logger  zerolog.Logger
}

// NewEngine creates a similarity engine. store, cache and fl may be
// nil; the engine then computes everything on the fly with no
// persistence.
func NewEngine(cfg Config, catalog CatalogStore, store SimilarityStore, c Cache, fl *flags.Flags) *Engine {
	if fl == nil {
		fl = flags.New()
	}
	return &Engine{
		cfg:     cfg.Normalize(),
		catalog: catalog,
		store:   store,
		cache:   c,
		flags:   fl,
		logger:  logging.WithComponent("similarity"),
	}
}

// Config returns the normalized engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// PairSimilarity computes the similarity record for two tracks.
// Returns ErrMissingFeatures when either track lacks feature data.
//
// The combined score blends three components:
//   - audio: cosine over the feature vectors, rescaled from [-1,1]
//     to [0,1]
//   - tags: position-weighted tag similarity
//   - popularity: 1 - |popA - popB|
func (e *Engine) PairSimilarity(a, b *models.Track) (models.SimilarityRecord, error) {
	if !a.HasFeatures() {
		return models.SimilarityRecord{}, fmt.Errorf("track %s: %w", a.ID, ErrMissingFeatures)
	}
	if !b.HasFeatures() {
		return models.SimilarityRecord{}, fmt.Errorf("track %s: %w", b.ID, ErrMissingFeatures)
	}

	fa := a.Features.Normalize()
	fb := b.Features.Normalize()

	va := fa.Vector()
	vb := fb.Vector()
	audio := cosineSimilarity(va[:], vb[:])
	audioRescaled := (audio + 1) / 2

	tagSim := WeightedTagSimilarity(a.AllTags(), b.AllTags())

	popSim := 1 - math.Abs(fa.Popularity-fb.Popularity)

	combined := e.cfg.Similarity.AudioWeight*audioRescaled +
		e.cfg.Similarity.TagWeight*tagSim +
		e.cfg.Similarity.PopularityWeight*popSim

	return models.SimilarityRecord{
		TrackA:     a.ID,
		TrackB:     b.ID,
		AudioSim:   audio,
		TagSim:     tagSim,
		Combined:   clamp01(combined),
		ComputedAt: time.Now().UTC(),
	}, nil
}

// TopKSimilar returns up to k tracks most similar to the seed track,
// filtered to combined similarity >= minSimilarity. The boolean
// reports whether the result came from cache.
//
// Lookup order: in-memory cache, precomputed similarity records, then
// an on-the-fly scan over a capped candidate pool. A seed without
// feature data yields ErrMissingFeatures; store failures degrade to
// the on-the-fly path.
func (e *Engine) TopKSimilar(ctx context.Context, seedID string, k int, minSimilarity float64) ([]models.ScoredTrack, bool, error) {
	if k < 1 {
		k = 1
	}
	minSimilarity = clamp01(minSimilarity)

	start := time.Now()
	var opErr error
	defer func() {
		metrics.RecordScoring("similar", time.Since(start), opErr)
	}()

	cacheEnabled := e.cache != nil && e.flags.IsEnabled(flags.SimilarityCaching)
	key := cache.SimilarKey(seedID, k, minSimilarity)

	if cacheEnabled {
		if cached, ok := e.cache.Get(key); ok {
			if results, ok := cached.([]models.ScoredTrack); ok {
				metrics.RecordCacheLookup(cache.PrefixSimilar, true)
				return results, true, nil
			}
		}
		metrics.RecordCacheLookup(cache.PrefixSimilar, false)
	}

	seed, err := e.catalog.GetTrack(ctx, seedID)
	if err != nil {
		opErr = err
		return nil, false, err
	}
	if !seed.HasFeatures() {
		opErr = ErrMissingFeatures
		metrics.TracksSkippedNoFeatures.Inc()
		return nil, false, fmt.Errorf("seed track %s: %w", seedID, ErrMissingFeatures)
	}

	results, err := e.fromPrecomputed(ctx, seed, k, minSimilarity)
	if err != nil {
		// Store down or empty; fall back to direct computation.
		if !errors.Is(err, ErrEmptyResult) {
			e.logger.Warn().Err(err).Str("track_id", seedID).Msg("precomputed lookup failed, computing on the fly")
		}
		results, err = e.onTheFly(ctx, seed, k, minSimilarity)
		if err != nil {
			opErr = err
			return nil, false, err
		}
	}

	if cacheEnabled {
		e.cache.SetWithTTL(key, results, e.cfg.Similarity.CacheTTL)
	}
	return results, false, nil
}

// fromPrecomputed serves top-K from stored similarity records.
// Returns ErrEmptyResult when no usable records exist.
func (e *Engine) fromPrecomputed(ctx context.Context, seed *models.Track, k int, minSimilarity float64) ([]models.ScoredTrack, error) {
	if e.store == nil {
		return nil, ErrEmptyResult
	}

	records, err := e.store.AllFor(ctx, seed.ID, e.cfg.Similarity.CandidatePoolSize)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyResult
	}
	metrics.SimilarityComputations.WithLabelValues("precomputed").Add(float64(len(records)))

	results := make([]models.ScoredTrack, 0, len(records))
	for _, rec := range records {
		if rec.Combined < minSimilarity {
			continue
		}
		otherID := rec.TrackB
		if otherID == seed.ID {
			otherID = rec.TrackA
		}
		other, err := e.catalog.GetTrack(ctx, otherID)
		if err != nil {
			continue
		}
		results = append(results, models.ScoredTrack{
			Track:  *other,
			Score:  rec.Combined,
			Reason: "similar audio profile",
		})
	}
	if len(results) == 0 {
		return nil, ErrEmptyResult
	}

	sortByScore(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// onTheFly computes similarity against a capped catalog pool.
func (e *Engine) onTheFly(ctx context.Context, seed *models.Track, k int, minSimilarity float64) ([]models.ScoredTrack, error) {
	pool, err := e.catalog.ListTracks(ctx, e.cfg.Similarity.CandidatePoolSize, 0)
	if err != nil {
		return nil, fmt.Errorf("listing candidate pool: %w", err)
	}

	results := make([]models.ScoredTrack, 0, len(pool))
	for i := range pool {
		if contextCancelled(ctx) {
			return nil, ctx.Err()
		}
		candidate := &pool[i]
		if candidate.ID == seed.ID {
			continue
		}
		rec, err := e.PairSimilarity(seed, candidate)
		if err != nil {
			metrics.TracksSkippedNoFeatures.Inc()
			continue
		}
		metrics.SimilarityComputations.WithLabelValues("on_the_fly").Inc()
		if rec.Combined < minSimilarity {
			continue
		}
		results = append(results, models.ScoredTrack{
			Track:  *candidate,
			Score:  rec.Combined,
			Reason: "similar audio profile",
		})
	}

	sortByScore(results)
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// PrecomputeBatch computes pairwise similarity for a sliding window
// over the given tracks: each track is paired with the next
// windowSize-1 tracks, and pairs with combined similarity >=
// minSimilarity are persisted. Cost is O(n * windowSize); passing
// windowSize >= len(tracks) computes all pairs. Re-running the same
// batch is idempotent. Returns the number of pairs compared and the
// number of records stored.
func (e *Engine) PrecomputeBatch(ctx context.Context, tracks []models.Track, windowSize int, minSimilarity float64) (int, int, error) {
	if e.store == nil {
		return 0, 0, ErrCacheUnavailable
	}
	if windowSize <= 1 {
		windowSize = e.cfg.Similarity.PrecomputeWindow
	}
	minSimilarity = clamp01(minSimilarity)

	start := time.Now()
	compared := 0
	stored := 0
	var batchErr error
	defer func() {
		metrics.RecordPrecomputeBatch(time.Since(start), stored, batchErr)
	}()

	for i := range tracks {
		if contextCancelled(ctx) {
			batchErr = ctx.Err()
			return compared, stored, batchErr
		}
		a := &tracks[i]
		if !a.HasFeatures() {
			metrics.TracksSkippedNoFeatures.Inc()
			continue
		}

		end := i + windowSize
		if end > len(tracks) {
			end = len(tracks)
		}
		for j := i + 1; j < end; j++ {
			b := &tracks[j]
			if !b.HasFeatures() {
				continue
			}
			rec, err := e.PairSimilarity(a, b)
			if err != nil {
				continue
			}
			compared++
			if rec.Combined < minSimilarity {
				continue
			}
			if err := e.store.Put(ctx, rec); err != nil {
				batchErr = fmt.Errorf("storing pair (%s,%s): %w", a.ID, b.ID, err)
				return compared, stored, batchErr
			}
			stored++
		}
	}

	e.logger.Info().
		Int("tracks", len(tracks)).
		Int("window", windowSize).
		Int("compared", compared).
		Int("stored", stored).
		Dur("elapsed", time.Since(start)).
		Msg("precompute batch complete")

	return compared, stored, nil
}
