// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package models

// Default hybrid source weights. They sum to 1.
const (
	DefaultContentWeight       = 0.4
	DefaultCollaborativeWeight = 0.3
	DefaultPopularityWeight    = 0.2
	DefaultTrendingWeight      = 0.1
)

// Default per-user tuning knobs.
const (
	DefaultDiversityFactor  = 0.3
	DefaultExplorationLevel = 0.2
)

// RecommendationWeights holds a user's per-source blend weights for
// hybrid scoring, plus the diversity and exploration knobs persisted
// alongside them.
type RecommendationWeights struct {
	Content       float64 `json:"content"`
	Collaborative float64 `json:"collaborative"`
	Popularity    float64 `json:"popularity"`
	Trending      float64 `json:"trending"`

	// DiversityFactor in [0,1] controls how strongly hybrid results
	// are re-ranked away from near-duplicates. Default: 0.3.
	DiversityFactor float64 `json:"diversity_factor"`

	// ExplorationLevel in [0,1] controls how obscure deep cut picks
	// are allowed to be. Default: 0.2.
	ExplorationLevel float64 `json:"exploration_level"`
}

// DefaultWeights returns the stock weight set.
func DefaultWeights() RecommendationWeights {
	return RecommendationWeights{
		Content:          DefaultContentWeight,
		Collaborative:    DefaultCollaborativeWeight,
		Popularity:       DefaultPopularityWeight,
		Trending:         DefaultTrendingWeight,
		DiversityFactor:  DefaultDiversityFactor,
		ExplorationLevel: DefaultExplorationLevel,
	}
}

// Normalize returns a copy with the four source weights rescaled to
// sum to 1. Negative weights are treated as zero. If every weight is
// zero the defaults are restored rather than dividing by zero.
// DiversityFactor and ExplorationLevel are clamped into [0,1].
func (w RecommendationWeights) Normalize() RecommendationWeights {
	w.Content = max0(w.Content)
	w.Collaborative = max0(w.Collaborative)
	w.Popularity = max0(w.Popularity)
	w.Trending = max0(w.Trending)

	sum := w.Content + w.Collaborative + w.Popularity + w.Trending
	if sum == 0 {
		d := DefaultWeights()
		w.Content = d.Content
		w.Collaborative = d.Collaborative
		w.Popularity = d.Popularity
		w.Trending = d.Trending
	} else {
		w.Content /= sum
		w.Collaborative /= sum
		w.Popularity /= sum
		w.Trending /= sum
	}

	w.DiversityFactor = clamp01(w.DiversityFactor)
	w.ExplorationLevel = clamp01(w.ExplorationLevel)
	return w
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
