// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package recommend

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/mellowhen/deepcue/internal/logging"
	"github.com/mellowhen/deepcue/internal/metrics"
	"github.com/mellowhen/deepcue/internal/models"
)

// fallbackSimilarity is assumed when two tracks offer nothing to
// compare: no features on either side and no genre overlap signal.
const fallbackSimilarity = 0.1

// sameArtistSimilarity short-cuts the pairwise computation for tracks
// by the same artist. Two cuts from one artist are near-duplicates for
// diversity purposes regardless of their feature distance.
const sameArtistSimilarity = 0.8

// DiversityOptimizer re-ranks candidate lists with Maximal Marginal
// Relevance and reports list-level diversity metrics.
type DiversityOptimizer struct {
	engine *Engine
	cfg    DiversityConfig
	logger zerolog.Logger
}

// DiversityReport summarizes the diversity of a track list.
type DiversityReport struct {
	// IntraListDiversity is the mean pairwise dissimilarity, in [0,1].
	IntraListDiversity float64 `json:"intra_list_diversity"`

	// GenreCoverage is distinct genres over the coverage scale,
	// capped at 1.
	GenreCoverage float64 `json:"genre_coverage"`

	// ArtistDiversity is distinct artists over list length.
	ArtistDiversity float64 `json:"artist_diversity"`

	// FeatureDiversity is the mean per-dimension standard deviation
	// of the feature vectors.
	FeatureDiversity float64 `json:"feature_diversity"`
}

// RerankReport describes an iterative re-rank run.
type RerankReport struct {
	Iterations  int     `json:"iterations"`
	AchievedILD float64 `json:"achieved_ild"`
	TargetILD   float64 `json:"target_ild"`
	TargetMet   bool    `json:"target_met"`
}

// NewDiversityOptimizer creates an optimizer sharing the engine's
// pairwise similarity.
func NewDiversityOptimizer(engine *Engine) *DiversityOptimizer {
	return &DiversityOptimizer{
		engine: engine,
		cfg:    engine.cfg.Diversity,
		logger: logging.WithComponent("diversity"),
	}
}

// MMR re-ranks candidates with Maximal Marginal Relevance: each pick
// maximizes lambda*relevance - (1-lambda)*maxSimilarityToSelected.
// lambda is clamped into [0,1]; lambda >= 1 degenerates to a plain
// relevance sort. The first pick is always the most relevant
// candidate. Returns at most limit tracks (limit <= 0 means all).
func (d *DiversityOptimizer) MMR(ctx context.Context, candidates []models.ScoredTrack, lambda float64, limit int) []models.ScoredTrack {
	if len(candidates) == 0 {
		return []models.ScoredTrack{}
	}
	lambda = clamp01(lambda)
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	if len(candidates) > d.cfg.MaxRerankSize {
		candidates = candidates[:d.cfg.MaxRerankSize]
	}

	start := time.Now()
	defer func() {
		metrics.RecordScoring("rerank", time.Since(start), nil)
	}()

	if lambda >= 1 {
		out := make([]models.ScoredTrack, len(candidates))
		copy(out, candidates)
		sortByScore(out)
		return out[:limit]
	}

	selected := make([]models.ScoredTrack, 0, limit)
	remaining := make([]models.ScoredTrack, len(candidates))
	copy(remaining, candidates)

	// Pairwise similarities are memoized by candidate index pair;
	// worst case is limit*len(candidates) computations.
	simCache := make(map[[2]string]float64)
	pairSim := func(a, b *models.Track) float64 {
		key := [2]string{a.ID, b.ID}
		if a.ID > b.ID {
			key[0], key[1] = key[1], key[0]
		}
		if s, ok := simCache[key]; ok {
			return s
		}
		s := d.trackSimilarity(a, b)
		simCache[key] = s
		return s
	}

	// First pick: highest relevance.
	best := 0
	for i := 1; i < len(remaining); i++ {
		if remaining[i].Score > remaining[best].Score {
			best = i
		}
	}
	selected = append(selected, remaining[best])
	remaining = append(remaining[:best], remaining[best+1:]...)

	for len(selected) < limit && len(remaining) > 0 {
		if contextCancelled(ctx) {
			break
		}

		bestIdx := -1
		bestScore := math.Inf(-1)
		for i := range remaining {
			maxSim := 0.0
			for j := range selected {
				if s := pairSim(&remaining[i].Track, &selected[j].Track); s > maxSim {
					maxSim = s
				}
			}
			score := lambda*remaining[i].Score - (1-lambda)*maxSim
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

// trackSimilarity computes pairwise similarity for diversity purposes.
// Same-artist pairs short-cut to a high constant; tracks without
// features fall back to genre overlap, then to a low constant.
func (d *DiversityOptimizer) trackSimilarity(a, b *models.Track) float64 {
	if a.ArtistID != "" && a.ArtistID == b.ArtistID {
		return sameArtistSimilarity
	}

	if a.HasFeatures() && b.HasFeatures() {
		rec, err := d.engine.PairSimilarity(a, b)
		if err == nil {
			return rec.Combined
		}
	}

	if len(a.Genres) > 0 && len(b.Genres) > 0 {
		return jaccardSimilarity(a.Genres, b.Genres)
	}

	return fallbackSimilarity
}

// Metrics computes the diversity report for a track list.
func (d *DiversityOptimizer) Metrics(tracks []models.Track) DiversityReport {
	return DiversityReport{
		IntraListDiversity: d.IntraListDiversity(tracks),
		GenreCoverage:      d.GenreCoverage(tracks),
		ArtistDiversity:    d.ArtistDiversity(tracks),
		FeatureDiversity:   d.FeatureDiversity(tracks),
	}
}

// IntraListDiversity is the mean pairwise (1 - similarity) over all
// track pairs. Lists shorter than two have no pairs and score 0.
func (d *DiversityOptimizer) IntraListDiversity(tracks []models.Track) float64 {
	if len(tracks) < 2 {
		return 0
	}

	var sum float64
	pairs := 0
	for i := range tracks {
		for j := i + 1; j < len(tracks); j++ {
			sum += 1 - d.trackSimilarity(&tracks[i], &tracks[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// GenreCoverage is the number of distinct genres relative to the
// configured coverage scale, capped at 1.
func (d *DiversityOptimizer) GenreCoverage(tracks []models.Track) float64 {
	genres := make(map[string]struct{})
	for i := range tracks {
		for _, g := range tracks[i].Genres {
			genres[models.NormalizeTagName(g)] = struct{}{}
		}
	}
	return math.Min(1, float64(len(genres))/float64(d.cfg.GenreCoverageScale))
}

// ArtistDiversity is the ratio of distinct artists to list length.
func (d *DiversityOptimizer) ArtistDiversity(tracks []models.Track) float64 {
	if len(tracks) == 0 {
		return 0
	}
	artists := make(map[string]struct{})
	for i := range tracks {
		artists[tracks[i].ArtistID] = struct{}{}
	}
	return float64(len(artists)) / float64(len(tracks))
}

// FeatureDiversity is the mean per-dimension standard deviation of
// the feature vectors. Tracks without features are excluded.
func (d *DiversityOptimizer) FeatureDiversity(tracks []models.Track) float64 {
	var vectors [][models.FeatureDimensions]float64
	for i := range tracks {
		if tracks[i].HasFeatures() {
			vectors = append(vectors, tracks[i].Features.Normalize().Vector())
		}
	}
	if len(vectors) < 2 {
		return 0
	}

	var total float64
	for dim := 0; dim < models.FeatureDimensions; dim++ {
		var mean float64
		for _, v := range vectors {
			mean += v[dim]
		}
		mean /= float64(len(vectors))

		var variance float64
		for _, v := range vectors {
			diff := v[dim] - mean
			variance += diff * diff
		}
		variance /= float64(len(vectors))
		total += math.Sqrt(variance)
	}
	return total / models.FeatureDimensions
}

// RerankForDiversity runs MMR with progressively stronger diversity
// pressure until the list reaches the target intra-list diversity or
// iterations run out. Iteration n uses lambda = max(0.1, 1 - n*0.1).
// Returns the best list seen and a report of the run.
func (d *DiversityOptimizer) RerankForDiversity(ctx context.Context, candidates []models.ScoredTrack, targetILD float64, maxIterations int) ([]models.ScoredTrack, RerankReport) {
	if targetILD <= 0 {
		targetILD = d.cfg.TargetILD
	}
	if maxIterations <= 0 {
		maxIterations = d.cfg.MaxIterations
	}

	report := RerankReport{TargetILD: targetILD}
	if len(candidates) == 0 {
		return []models.ScoredTrack{}, report
	}

	best := candidates
	bestILD := d.IntraListDiversity(tracksOf(candidates))

	for iter := 1; iter <= maxIterations; iter++ {
		if contextCancelled(ctx) {
			break
		}
		report.Iterations = iter

		lambda := math.Max(0.1, 1-float64(iter)*0.1)
		reranked := d.MMR(ctx, candidates, lambda, len(candidates))
		ild := d.IntraListDiversity(tracksOf(reranked))

		if ild > bestILD {
			best = reranked
			bestILD = ild
		}
		if bestILD >= targetILD {
			break
		}
	}

	report.AchievedILD = bestILD
	report.TargetMet = bestILD >= targetILD

	d.logger.Debug().
		Int("iterations", report.Iterations).
		Float64("achieved_ild", bestILD).
		Float64("target_ild", targetILD).
		Msg("diversity rerank finished")

	return best, report
}

// tracksOf projects scored tracks onto their tracks.
func tracksOf(items []models.ScoredTrack) []models.Track {
	tracks := make([]models.Track, len(items))
	for i := range items {
		tracks[i] = items[i].Track
	}
	return tracks
}
