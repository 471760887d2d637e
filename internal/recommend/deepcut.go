// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package recommend

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mellowhen/deepcue/internal/logging"
	"github.com/mellowhen/deepcue/internal/metrics"
	"github.com/mellowhen/deepcue/internal/models"
)

// defaultDeepCutSimilarity stands in when pairwise similarity cannot
// be computed for a candidate.
const defaultDeepCutSimilarity = 0.3

// DeepCutSelector surfaces low-popularity tracks related to a seed,
// trading similarity for novelty as the exploration level rises.
type DeepCutSelector struct {
	engine  *Engine
	catalog CatalogStore
	cfg     DeepCutConfig
	logger  zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// DeepCut is a scored deep cut candidate with its component scores
// kept for explanation.
type DeepCut struct {
	Track           models.Track `json:"track"`
	SimilarityScore float64      `json:"similarity_score"`
	PopularityScore float64      `json:"popularity_score"`
	NoveltyScore    float64      `json:"novelty_score"`
	OverallScore    float64      `json:"overall_score"`
}

// DeepCutOptions tunes a single FindDeepCuts call.
type DeepCutOptions struct {
	// ExplorationLevel in [0,1]: 0 stays near popular tracks, 1 digs
	// for the most obscure. Clamped.
	ExplorationLevel float64

	// Limit is the number of cuts to return. Default: 15.
	Limit int

	// MinSimilarity filters candidates below this similarity to the
	// seed when non-nil. An explicit 0 keeps every candidate; nil
	// falls back to the 0.3 default.
	MinSimilarity *float64

	// SameGenre restricts candidates to tracks sharing a genre with
	// the seed.
	SameGenre bool
}

// NewDeepCutSelector creates a selector sharing the engine's pairwise
// similarity.
func NewDeepCutSelector(engine *Engine) *DeepCutSelector {
	return &DeepCutSelector{
		engine:  engine,
		catalog: engine.catalog,
		cfg:     engine.cfg.DeepCut,
		logger:  logging.WithComponent("deepcut"),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// PopularityCeiling computes the play count ceiling for an
// exploration level by log-interpolating between the configured
// anchors: CeilingAtZero at level 0 down to CeilingAtOne at level 1.
func (s *DeepCutSelector) PopularityCeiling(level float64) int64 {
	level = clamp01(level)
	if level <= 0 {
		return s.cfg.CeilingAtZero
	}
	if level >= 1 {
		return s.cfg.CeilingAtOne
	}

	maxLog := math.Log10(float64(s.cfg.CeilingAtZero))
	minLog := math.Log10(float64(s.cfg.CeilingAtOne))
	threshold := maxLog - (maxLog-minLog)*level
	return int64(math.Pow(10, threshold))
}

// FindDeepCuts returns obscure tracks related to the seed track.
//
// The candidate pool is catalog tracks with 0 < playCount <= the
// exploration ceiling, excluding the seed and its artist, optionally
// genre-constrained, shuffled and capped at PoolCap; at most ScoreCap
// of those are scored. Final picks greedily balance overall score
// against diversity from already selected cuts.
func (s *DeepCutSelector) FindDeepCuts(ctx context.Context, seedID string, opts DeepCutOptions) ([]DeepCut, error) {
	level := clamp01(opts.ExplorationLevel)
	limit := opts.Limit
	if limit <= 0 {
		limit = 15
	}
	minSimilarity := defaultDeepCutSimilarity
	if opts.MinSimilarity != nil {
		minSimilarity = clamp01(*opts.MinSimilarity)
	}

	start := time.Now()
	var opErr error
	defer func() {
		metrics.RecordScoring("deepcut", time.Since(start), opErr)
	}()

	seed, err := s.catalog.GetTrack(ctx, seedID)
	if err != nil {
		opErr = err
		return nil, err
	}

	pool, err := s.candidatePool(ctx, seed, level, opts.SameGenre)
	if err != nil {
		opErr = err
		return nil, err
	}
	if len(pool) == 0 {
		s.logger.Debug().Str("seed_id", seedID).Float64("level", level).Msg("no deep cut candidates")
		return []DeepCut{}, nil
	}

	if len(pool) > s.cfg.ScoreCap {
		pool = pool[:s.cfg.ScoreCap]
	}

	scored := make([]DeepCut, 0, len(pool))
	for i := range pool {
		if contextCancelled(ctx) {
			opErr = ctx.Err()
			return nil, opErr
		}
		cut := s.scoreCandidate(ctx, seed, &pool[i], level)
		if cut.SimilarityScore >= minSimilarity {
			scored = append(scored, cut)
		}
	}
	if len(scored) == 0 {
		return []DeepCut{}, nil
	}

	sortDeepCuts(scored)
	selected := s.selectDiverse(scored, limit)

	s.logger.Info().
		Str("seed_id", seedID).
		Float64("level", level).
		Int("pool", len(pool)).
		Int("selected", len(selected)).
		Msg("deep cuts found")

	return selected, nil
}

// candidatePool fetches and shuffles eligible candidates.
func (s *DeepCutSelector) candidatePool(ctx context.Context, seed *models.Track, level float64, sameGenre bool) ([]models.Track, error) {
	ceiling := s.PopularityCeiling(level)

	// Overfetch so exclusions still leave a full pool.
	raw, err := s.catalog.TracksByPlayCountRange(ctx, 0, ceiling, s.cfg.PoolCap*2)
	if err != nil {
		return nil, fmt.Errorf("fetching deep cut pool: %w", err)
	}

	seedGenres := make(map[string]struct{}, len(seed.Genres))
	for _, g := range seed.Genres {
		seedGenres[models.NormalizeTagName(g)] = struct{}{}
	}

	pool := make([]models.Track, 0, len(raw))
	for i := range raw {
		t := raw[i]
		if t.ID == seed.ID {
			continue
		}
		if t.ArtistID != "" && t.ArtistID == seed.ArtistID {
			continue
		}
		if sameGenre && len(seedGenres) > 0 && !sharesGenre(t.Genres, seedGenres) {
			continue
		}
		pool = append(pool, t)
	}

	s.mu.Lock()
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	s.mu.Unlock()

	if len(pool) > s.cfg.PoolCap {
		pool = pool[:s.cfg.PoolCap]
	}
	return pool, nil
}

func sharesGenre(genres []string, want map[string]struct{}) bool {
	for _, g := range genres {
		if _, ok := want[models.NormalizeTagName(g)]; ok {
			return true
		}
	}
	return false
}

// scoreCandidate computes the component and overall scores for one
// candidate. The weights shift with the exploration level: similarity
// dominates near 0, novelty and obscurity take over near 1.
func (s *DeepCutSelector) scoreCandidate(ctx context.Context, seed, candidate *models.Track, level float64) DeepCut {
	similarity := s.pairSimilarityOrDefault(seed, candidate)

	popularity := 1 - math.Min(1, float64(candidate.PlayCount)/float64(s.cfg.CeilingAtZero))

	novelty := s.noveltyScore(ctx, candidate)

	simWeight := 1 - level*0.5
	novWeight := level
	popWeight := level * 0.5

	total := simWeight + novWeight + popWeight
	simWeight /= total
	novWeight /= total
	popWeight /= total

	overall := similarity*simWeight + novelty*novWeight + popularity*popWeight

	return DeepCut{
		Track:           *candidate,
		SimilarityScore: similarity,
		PopularityScore: popularity,
		NoveltyScore:    novelty,
		OverallScore:    overall,
	}
}

// pairSimilarityOrDefault falls back to a moderate constant when the
// pair cannot be scored.
func (s *DeepCutSelector) pairSimilarityOrDefault(a, b *models.Track) float64 {
	rec, err := s.engine.PairSimilarity(a, b)
	if err != nil {
		return defaultDeepCutSimilarity
	}
	return rec.Combined
}

// noveltyScore starts at 0.5, shrinks with the artist's fame and
// grows for tracks with a rich tag set, capped at 1.
func (s *DeepCutSelector) noveltyScore(ctx context.Context, track *models.Track) float64 {
	novelty := 0.5

	if track.ArtistID != "" {
		artistPlays, err := s.catalog.ArtistPlayCount(ctx, track.ArtistID)
		if err == nil && artistPlays > 0 {
			fame := math.Min(1, float64(artistPlays)/float64(s.cfg.ArtistFameScale))
			novelty *= 1 - fame*0.5
		}
	}

	if len(track.AllTags()) > s.cfg.TagBoostThreshold {
		novelty *= 1.2
	}

	return math.Min(1, novelty)
}

// selectDiverse picks cuts greedily: the top overall score first,
// then whichever candidate maximizes
// 0.7*overallScore + 0.3*(1 - minSimilarityToSelected).
func (s *DeepCutSelector) selectDiverse(candidates []DeepCut, limit int) []DeepCut {
	if len(candidates) == 0 {
		return []DeepCut{}
	}

	selected := make([]DeepCut, 0, limit)
	selected = append(selected, candidates[0])
	remaining := make([]DeepCut, len(candidates)-1)
	copy(remaining, candidates[1:])

	for len(selected) < limit && len(remaining) > 0 {
		bestIdx := -1
		bestScore := -1.0

		for i := range remaining {
			minSim := 1.0
			for j := range selected {
				sim := s.pairSimilarityOrDefault(&remaining[i].Track, &selected[j].Track)
				if sim < minSim {
					minSim = sim
				}
			}

			score := remaining[i].OverallScore*0.7 + (1-minSim)*0.3
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

// sortDeepCuts orders by overall score descending, ties by track ID.
func sortDeepCuts(cuts []DeepCut) {
	sort.SliceStable(cuts, func(i, j int) bool {
		if cuts[i].OverallScore != cuts[j].OverallScore {
			return cuts[i].OverallScore > cuts[j].OverallScore
		}
		return cuts[i].Track.ID < cuts[j].Track.ID
	})
}

// ExplorationDescription returns a human-readable label for an
// exploration level, snapping to the nearest described level.
func ExplorationDescription(level float64) string {
	level = clamp01(level)

	descriptions := []struct {
		level float64
		text  string
	}{
		{0.0, "Playing it safe with popular, well-known tracks similar to your seed"},
		{0.3, "Mostly familiar territory with some lesser-known gems"},
		{0.5, "Balanced mix of familiar and undiscovered tracks"},
		{0.7, "Venturing into rarely heard territory"},
		{1.0, "Maximum exploration: the deepest cuts and most obscure tracks"},
	}

	best := descriptions[0]
	for _, d := range descriptions[1:] {
		if math.Abs(d.level-level) < math.Abs(best.level-level) {
			best = d
		}
	}
	return best.text
}
