// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package recommend

import (
	"fmt"
	"time"
)

// Config holds tuning parameters for the scoring core. Zero values
// are replaced with defaults by Normalize, so partially filled configs
// from the loader are safe.
type Config struct {
	Similarity SimilarityConfig `json:"similarity" koanf:"similarity"`
	Diversity  DiversityConfig  `json:"diversity" koanf:"diversity"`
	Hybrid     HybridConfig     `json:"hybrid" koanf:"hybrid"`
	DeepCut    DeepCutConfig    `json:"deepcut" koanf:"deepcut"`
}

// SimilarityConfig tunes pairwise similarity and top-K lookup.
type SimilarityConfig struct {
	// AudioWeight blends the audio cosine component. Default: 0.6
	AudioWeight float64 `json:"audio_weight" koanf:"audio_weight"`

	// TagWeight blends the tag similarity component. Default: 0.3
	TagWeight float64 `json:"tag_weight" koanf:"tag_weight"`

	// PopularityWeight blends the popularity proximity component.
	// Default: 0.1
	PopularityWeight float64 `json:"popularity_weight" koanf:"popularity_weight"`

	// CandidatePoolSize caps the on-the-fly comparison pool when no
	// precomputed records exist. Default: 100
	CandidatePoolSize int `json:"candidate_pool_size" koanf:"candidate_pool_size"`

	// CacheTTL is how long top-K results stay cached. Default: 1h
	CacheTTL time.Duration `json:"cache_ttl" koanf:"cache_ttl"`

	// PrecomputeWindow is the default sliding window for batch
	// precomputation. Default: 50
	PrecomputeWindow int `json:"precompute_window" koanf:"precompute_window"`
}

// DiversityConfig tunes MMR re-ranking.
type DiversityConfig struct {
	// DefaultLambda is the relevance/diversity trade-off when the
	// caller does not supply one. Default: 0.7
	DefaultLambda float64 `json:"default_lambda" koanf:"default_lambda"`

	// MaxRerankSize bounds the candidate list MMR will process.
	// Default: 10000
	MaxRerankSize int `json:"max_rerank_size" koanf:"max_rerank_size"`

	// TargetILD is the default intra-list diversity target for
	// iterative re-ranking. Default: 0.4
	TargetILD float64 `json:"target_ild" koanf:"target_ild"`

	// MaxIterations bounds iterative re-ranking. Default: 5
	MaxIterations int `json:"max_iterations" koanf:"max_iterations"`

	// GenreCoverageScale is the genre count treated as full coverage.
	// Default: 20
	GenreCoverageScale int `json:"genre_coverage_scale" koanf:"genre_coverage_scale"`
}

// HybridConfig tunes multi-source blending.
type HybridConfig struct {
	// CandidateMultiplier is how many times the requested limit each
	// source gathers. Default: 3
	CandidateMultiplier int `json:"candidate_multiplier" koanf:"candidate_multiplier"`

	// TrendingWindow is the lookback for the trending source.
	// Default: 720h (30 days)
	TrendingWindow time.Duration `json:"trending_window" koanf:"trending_window"`

	// MaxLimit caps the requested result size. Default: 100
	MaxLimit int `json:"max_limit" koanf:"max_limit"`

	// SeedTracks is how many recent user tracks seed the content
	// source. Default: 5
	SeedTracks int `json:"seed_tracks" koanf:"seed_tracks"`
}

// DeepCutConfig tunes deep cut selection.
type DeepCutConfig struct {
	// CeilingAtZero is the play count ceiling at exploration level 0.
	// Default: 100000
	CeilingAtZero int64 `json:"ceiling_at_zero" koanf:"ceiling_at_zero"`

	// CeilingAtOne is the play count ceiling at exploration level 1.
	// Default: 500
	CeilingAtOne int64 `json:"ceiling_at_one" koanf:"ceiling_at_one"`

	// PoolCap caps the randomized candidate pool. Default: 200
	PoolCap int `json:"pool_cap" koanf:"pool_cap"`

	// ScoreCap caps how many pooled candidates get scored.
	// Default: 100
	ScoreCap int `json:"score_cap" koanf:"score_cap"`

	// ArtistFameScale is the artist play count treated as maximum
	// fame when discounting novelty. Default: 1000000
	ArtistFameScale int64 `json:"artist_fame_scale" koanf:"artist_fame_scale"`

	// TagBoostThreshold is the unique tag count above which novelty
	// gets boosted. Default: 3
	TagBoostThreshold int `json:"tag_boost_threshold" koanf:"tag_boost_threshold"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Similarity: SimilarityConfig{
			AudioWeight:       0.6,
			TagWeight:         0.3,
			PopularityWeight:  0.1,
			CandidatePoolSize: 100,
			CacheTTL:          time.Hour,
			PrecomputeWindow:  50,
		},
		Diversity: DiversityConfig{
			DefaultLambda:      0.7,
			MaxRerankSize:      10000,
			TargetILD:          0.4,
			MaxIterations:      5,
			GenreCoverageScale: 20,
		},
		Hybrid: HybridConfig{
			CandidateMultiplier: 3,
			TrendingWindow:      30 * 24 * time.Hour,
			MaxLimit:            100,
			SeedTracks:          5,
		},
		DeepCut: DeepCutConfig{
			CeilingAtZero:     100000,
			CeilingAtOne:      500,
			PoolCap:           200,
			ScoreCap:          100,
			ArtistFameScale:   1000000,
			TagBoostThreshold: 3,
		},
	}
}

// Normalize returns a copy with zero values replaced by defaults and
// the similarity blend weights rescaled to sum to 1.
func (c Config) Normalize() Config {
	def := DefaultConfig()

	if c.Similarity.AudioWeight <= 0 && c.Similarity.TagWeight <= 0 && c.Similarity.PopularityWeight <= 0 {
		c.Similarity.AudioWeight = def.Similarity.AudioWeight
		c.Similarity.TagWeight = def.Similarity.TagWeight
		c.Similarity.PopularityWeight = def.Similarity.PopularityWeight
	}
	sum := c.Similarity.AudioWeight + c.Similarity.TagWeight + c.Similarity.PopularityWeight
	if sum > 0 {
		c.Similarity.AudioWeight /= sum
		c.Similarity.TagWeight /= sum
		c.Similarity.PopularityWeight /= sum
	}
	if c.Similarity.CandidatePoolSize <= 0 {
		c.Similarity.CandidatePoolSize = def.Similarity.CandidatePoolSize
	}
	if c.Similarity.CacheTTL <= 0 {
		c.Similarity.CacheTTL = def.Similarity.CacheTTL
	}
	if c.Similarity.PrecomputeWindow <= 0 {
		c.Similarity.PrecomputeWindow = def.Similarity.PrecomputeWindow
	}

	if c.Diversity.DefaultLambda <= 0 {
		c.Diversity.DefaultLambda = def.Diversity.DefaultLambda
	}
	if c.Diversity.MaxRerankSize <= 0 {
		c.Diversity.MaxRerankSize = def.Diversity.MaxRerankSize
	}
	if c.Diversity.TargetILD <= 0 {
		c.Diversity.TargetILD = def.Diversity.TargetILD
	}
	if c.Diversity.MaxIterations <= 0 {
		c.Diversity.MaxIterations = def.Diversity.MaxIterations
	}
	if c.Diversity.GenreCoverageScale <= 0 {
		c.Diversity.GenreCoverageScale = def.Diversity.GenreCoverageScale
	}

	if c.Hybrid.CandidateMultiplier <= 0 {
		c.Hybrid.CandidateMultiplier = def.Hybrid.CandidateMultiplier
	}
	if c.Hybrid.TrendingWindow <= 0 {
		c.Hybrid.TrendingWindow = def.Hybrid.TrendingWindow
	}
	if c.Hybrid.MaxLimit <= 0 {
		c.Hybrid.MaxLimit = def.Hybrid.MaxLimit
	}
	if c.Hybrid.SeedTracks <= 0 {
		c.Hybrid.SeedTracks = def.Hybrid.SeedTracks
	}

	if c.DeepCut.CeilingAtZero <= 0 {
		c.DeepCut.CeilingAtZero = def.DeepCut.CeilingAtZero
	}
	if c.DeepCut.CeilingAtOne <= 0 {
		c.DeepCut.CeilingAtOne = def.DeepCut.CeilingAtOne
	}
	if c.DeepCut.PoolCap <= 0 {
		c.DeepCut.PoolCap = def.DeepCut.PoolCap
	}
	if c.DeepCut.ScoreCap <= 0 {
		c.DeepCut.ScoreCap = def.DeepCut.ScoreCap
	}
	if c.DeepCut.ArtistFameScale <= 0 {
		c.DeepCut.ArtistFameScale = def.DeepCut.ArtistFameScale
	}
	if c.DeepCut.TagBoostThreshold <= 0 {
		c.DeepCut.TagBoostThreshold = def.DeepCut.TagBoostThreshold
	}

	return c
}

// Validate checks the configuration for values Normalize cannot fix.
func (c Config) Validate() error {
	if c.Similarity.AudioWeight < 0 || c.Similarity.TagWeight < 0 || c.Similarity.PopularityWeight < 0 {
		return fmt.Errorf("%w: similarity weights must be non-negative", ErrInvalidParameter)
	}
	if c.Diversity.DefaultLambda < 0 || c.Diversity.DefaultLambda > 1 {
		return fmt.Errorf("%w: diversity default_lambda must be in [0,1], got %v", ErrInvalidParameter, c.Diversity.DefaultLambda)
	}
	if c.DeepCut.CeilingAtOne > c.DeepCut.CeilingAtZero && c.DeepCut.CeilingAtZero > 0 {
		return fmt.Errorf("%w: deepcut ceiling_at_one (%d) must not exceed ceiling_at_zero (%d)",
			ErrInvalidParameter, c.DeepCut.CeilingAtOne, c.DeepCut.CeilingAtZero)
	}
	return nil
}
