// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package models

import "time"

// SimilarityRecord is a precomputed pairwise similarity between two
// tracks. Records are stored under both key directions so lookups
// never need to canonicalize the pair.
//
// Score ranges:
//   - AudioSim: raw cosine similarity in [-1,1]
//   - TagSim: position-weighted tag similarity in [0,1]
//   - Combined: blended score in [0,1]
type SimilarityRecord struct {
	TrackA     string    `json:"track_a"`
	TrackB     string    `json:"track_b"`
	AudioSim   float64   `json:"audio_sim"`
	TagSim     float64   `json:"tag_sim"`
	Combined   float64   `json:"combined"`
	ComputedAt time.Time `json:"computed_at"`
}

// Reversed returns the record with the pair direction flipped.
func (r SimilarityRecord) Reversed() SimilarityRecord {
	r.TrackA, r.TrackB = r.TrackB, r.TrackA
	return r
}
