// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mellowhen/deepcue/internal/flags"
	"github.com/mellowhen/deepcue/internal/logging"
	"github.com/mellowhen/deepcue/internal/metrics"
	"github.com/mellowhen/deepcue/internal/models"
)

// Source names used in score breakdowns and logs.
const (
	SourceContent       = "content"
	SourceCollaborative = "collaborative"
	SourcePopularity    = "popularity"
	SourceTrending      = "trending"
)

// HybridScorer blends candidates from several sources into one ranked
// list, weighted per user.
type HybridScorer struct {
	engine  *Engine
	catalog CatalogStore
	prefs   PreferenceStore
	collab  CollaborativeSource
	flags   *flags.Flags
	cfg     HybridConfig
	logger  zerolog.Logger
}

// HybridOptions tunes a single Recommend call.
type HybridOptions struct {
	// Limit is the number of tracks to return. Clamped to
	// [1, MaxLimit]; zero means 20.
	Limit int

	// SeedTrackID optionally seeds the content source with a specific
	// track instead of the user's recent plays.
	SeedTrackID string

	// Weights overrides the user's persisted weights when non-nil.
	Weights *models.RecommendationWeights

	// DiversityFactor overrides the persisted diversity factor when
	// non-nil. Zero disables the diversity pass.
	DiversityFactor *float64
}

// sourceResult is one source's contribution before merging.
type sourceResult struct {
	name   string
	weight float64
	items  []models.ScoredTrack
}

// NewHybridScorer creates a hybrid scorer. collab may be nil, which
// behaves like NoopCollaborative.
func NewHybridScorer(engine *Engine, prefs PreferenceStore, collab CollaborativeSource) *HybridScorer {
	if collab == nil {
		collab = NoopCollaborative{}
	}
	return &HybridScorer{
		engine:  engine,
		catalog: engine.catalog,
		prefs:   prefs,
		collab:  collab,
		flags:   engine.flags,
		cfg:     engine.cfg.Hybrid,
		logger:  logging.WithComponent("hybrid"),
	}
}

// Recommend produces a blended recommendation list for the user.
//
// Weights resolve in order: explicit option, persisted user weights,
// defaults; the chosen set is normalized before use. Each source
// gathers limit*CandidateMultiplier candidates; a failing source logs
// and contributes nothing. When every source comes back empty the
// scorer falls back to a pure popularity ranking.
func (h *HybridScorer) Recommend(ctx context.Context, userID string, opts HybridOptions) ([]models.ScoredTrack, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > h.cfg.MaxLimit {
		limit = h.cfg.MaxLimit
	}

	start := time.Now()
	var opErr error
	defer func() {
		metrics.RecordScoring("hybrid", time.Since(start), opErr)
	}()

	weights := h.resolveWeights(ctx, userID, opts.Weights)
	gatherLimit := limit * h.cfg.CandidateMultiplier

	sources := h.gather(ctx, userID, opts.SeedTrackID, gatherLimit, weights)
	merged := mergeSources(sources)
	if opts.SeedTrackID != "" {
		merged = dropTrack(merged, opts.SeedTrackID)
	}

	if len(merged) == 0 {
		h.logger.Debug().Str("user_id", userID).Msg("no source candidates, falling back to popularity")
		fallback, err := h.popularitySource(ctx, gatherLimit)
		if err != nil {
			opErr = err
			return nil, fmt.Errorf("popularity fallback: %w", err)
		}
		merged = fallback
		sortByScore(merged)
	}

	diversityFactor := weights.DiversityFactor
	if opts.DiversityFactor != nil {
		diversityFactor = clamp01(*opts.DiversityFactor)
	}
	if diversityFactor > 0 && h.flags.IsEnabled(flags.DiversityReranking) {
		merged = h.diversify(ctx, merged, diversityFactor)
	}

	if len(merged) > limit {
		merged = merged[:limit]
	}

	if h.flags.IsEnabled(flags.RecommendationLogger) {
		h.logRecommendation(userID, sources, merged)
	}

	return merged, nil
}

// resolveWeights picks the weight set for this call.
func (h *HybridScorer) resolveWeights(ctx context.Context, userID string, explicit *models.RecommendationWeights) models.RecommendationWeights {
	if explicit != nil {
		return explicit.Normalize()
	}
	if h.prefs != nil && userID != "" {
		w, err := h.prefs.GetWeights(ctx, userID)
		if err == nil {
			return w.Normalize()
		}
		h.logger.Warn().Err(err).Str("user_id", userID).Msg("loading user weights failed, using defaults")
	}
	return models.DefaultWeights()
}

// gather collects candidates from every enabled source.
func (h *HybridScorer) gather(ctx context.Context, userID, seedTrackID string, limit int, weights models.RecommendationWeights) []sourceResult {
	var sources []sourceResult

	add := func(name string, weight float64, items []models.ScoredTrack, err error) {
		if err != nil {
			if !errors.Is(err, ErrEmptyResult) {
				h.logger.Warn().Err(err).Str("source", name).Msg("recommendation source failed")
			}
			return
		}
		if len(items) == 0 {
			return
		}
		sources = append(sources, sourceResult{name: name, weight: weight, items: items})
	}

	items, err := h.contentSource(ctx, userID, seedTrackID, limit)
	add(SourceContent, weights.Content, items, err)

	if h.flags.IsEnabled(flags.CollaborativeSource) {
		items, err = h.collab.Candidates(ctx, userID, limit)
		add(SourceCollaborative, weights.Collaborative, items, err)
	}

	items, err = h.popularitySource(ctx, limit)
	add(SourcePopularity, weights.Popularity, items, err)

	if h.flags.IsEnabled(flags.TrendingSource) {
		items, err = h.trendingSource(ctx, limit)
		add(SourceTrending, weights.Trending, items, err)
	}

	return sources
}

// contentSource gathers tracks similar to the seed track, or to the
// user's recent plays when no seed is given.
func (h *HybridScorer) contentSource(ctx context.Context, userID, seedTrackID string, limit int) ([]models.ScoredTrack, error) {
	var seeds []models.Track

	if seedTrackID != "" {
		seed, err := h.catalog.GetTrack(ctx, seedTrackID)
		if err != nil {
			return nil, err
		}
		seeds = []models.Track{*seed}
	} else if userID != "" {
		recent, err := h.catalog.RecentTracksForUser(ctx, userID, h.cfg.SeedTracks)
		if err != nil {
			return nil, err
		}
		seeds = recent
	}
	if len(seeds) == 0 {
		return nil, ErrEmptyResult
	}

	perSeed := limit / len(seeds)
	if perSeed < 1 {
		perSeed = 1
	}

	seen := make(map[string]struct{}, len(seeds))
	for i := range seeds {
		seen[seeds[i].ID] = struct{}{}
	}

	var out []models.ScoredTrack
	for i := range seeds {
		similar, _, err := h.engine.TopKSimilar(ctx, seeds[i].ID, perSeed, 0)
		if err != nil {
			if errors.Is(err, ErrMissingFeatures) {
				continue
			}
			return nil, err
		}
		for _, s := range similar {
			if _, dup := seen[s.Track.ID]; dup {
				continue
			}
			seen[s.Track.ID] = struct{}{}
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyResult
	}
	return out, nil
}

// popularitySource scores catalog tracks by play count relative to
// the most played candidate.
func (h *HybridScorer) popularitySource(ctx context.Context, limit int) ([]models.ScoredTrack, error) {
	tracks, err := h.catalog.TopByPlayCount(ctx, limit)
	if err != nil {
		return nil, err
	}
	return scoreByPlayCount(tracks, "high lifetime play count"), nil
}

// trendingSource scores tracks played within the trending window.
func (h *HybridScorer) trendingSource(ctx context.Context, limit int) ([]models.ScoredTrack, error) {
	since := time.Now().Add(-h.cfg.TrendingWindow)
	tracks, err := h.catalog.TrendingSince(ctx, since, limit)
	if err != nil {
		return nil, err
	}
	return scoreByPlayCount(tracks, "trending recently"), nil
}

// scoreByPlayCount normalizes play counts against the maximum in the
// list.
func scoreByPlayCount(tracks []models.Track, reason string) []models.ScoredTrack {
	if len(tracks) == 0 {
		return nil
	}

	var maxPlays int64
	for i := range tracks {
		if tracks[i].PlayCount > maxPlays {
			maxPlays = tracks[i].PlayCount
		}
	}

	out := make([]models.ScoredTrack, 0, len(tracks))
	for i := range tracks {
		score := 0.0
		if maxPlays > 0 {
			score = float64(tracks[i].PlayCount) / float64(maxPlays)
		}
		out = append(out, models.ScoredTrack{
			Track:  tracks[i],
			Score:  score,
			Reason: reason,
		})
	}
	return out
}

// dropTrack removes the track with the given ID, preserving order.
func dropTrack(items []models.ScoredTrack, id string) []models.ScoredTrack {
	out := items[:0]
	for _, item := range items {
		if item.Track.ID != id {
			out = append(out, item)
		}
	}
	return out
}

// mergeSources sums weighted scores per track across sources, keeping
// a per-source breakdown, and sorts descending.
func mergeSources(sources []sourceResult) []models.ScoredTrack {
	byID := make(map[string]*models.ScoredTrack)

	for _, src := range sources {
		for _, item := range src.items {
			weighted := item.Score * src.weight

			entry, ok := byID[item.Track.ID]
			if !ok {
				entry = &models.ScoredTrack{
					Track:     item.Track,
					Breakdown: make(map[string]models.SourceScore),
					Reason:    item.Reason,
				}
				byID[item.Track.ID] = entry
			}
			entry.Score += weighted
			entry.Breakdown[src.name] = models.SourceScore{
				Raw:      item.Score,
				Weighted: weighted,
			}
		}
	}

	merged := make([]models.ScoredTrack, 0, len(byID))
	for _, entry := range byID {
		merged = append(merged, *entry)
	}
	sortByScore(merged)
	return merged
}

// diversify re-ranks greedily: each pick maximizes
// (1-factor)*relevance + factor*(1 - minSimilarityToSelected), where
// similarity is genre overlap with a neutral default when genres are
// missing.
func (h *HybridScorer) diversify(ctx context.Context, items []models.ScoredTrack, factor float64) []models.ScoredTrack {
	if len(items) <= 1 {
		return items
	}

	selected := make([]models.ScoredTrack, 0, len(items))
	remaining := make([]models.ScoredTrack, len(items))
	copy(remaining, items)

	// Highest merged score goes first.
	selected = append(selected, remaining[0])
	remaining = remaining[1:]

	for len(remaining) > 0 {
		if contextCancelled(ctx) {
			selected = append(selected, remaining...)
			break
		}

		bestIdx := 0
		bestScore := -1.0
		for i := range remaining {
			diversity := genreDiversityScore(&remaining[i].Track, selected)
			score := (1-factor)*remaining[i].Score + factor*diversity
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// genreDiversityScore is 1 minus the candidate's smallest genre
// similarity to the selected tracks. Pairs without genre data count
// as moderately similar.
func genreDiversityScore(candidate *models.Track, selected []models.ScoredTrack) float64 {
	if len(selected) == 0 {
		return 1
	}

	minSim := 1.0
	for i := range selected {
		var sim float64
		if len(candidate.Genres) > 0 && len(selected[i].Track.Genres) > 0 {
			sim = jaccardSimilarity(candidate.Genres, selected[i].Track.Genres)
		} else {
			sim = 0.5
		}
		if sim < minSim {
			minSim = sim
		}
	}
	return 1 - minSim
}

// logRecommendation records the outcome for offline analysis.
func (h *HybridScorer) logRecommendation(userID string, sources []sourceResult, results []models.ScoredTrack) {
	ev := h.logger.Info().
		Str("user_id", userID).
		Int("results", len(results))
	for _, src := range sources {
		ev = ev.Int("source_"+src.name, len(src.items))
	}
	ev.Msg("hybrid recommendation served")
}
