// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package recommend

import "math"

// Tag similarity treats tag lists as ordered by relevance: the first
// tag describes the track best. Position weights fall off as 1/(i+1),
// so two tracks sharing their top tags score much higher than two
// sharing only trailing ones.

// TagWeights assigns each tag a positional weight of 1/(i+1).
// Duplicate tags keep their first (highest) weight.
func TagWeights(tags []string) map[string]float64 {
	weights := make(map[string]float64, len(tags))
	for i, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := weights[tag]; ok {
			continue
		}
		weights[tag] = 1.0 / float64(i+1)
	}
	return weights
}

// Jaccard computes plain set overlap between two tag lists.
func Jaccard(a, b []string) float64 {
	return jaccardSimilarity(a, b)
}

// WeightedTagSimilarity computes position-weighted tag similarity:
// the sum of min(weightA, weightB) over shared tags, normalized by the
// smaller total weight. Result is in [0,1]; either list empty yields 0.
func WeightedTagSimilarity(a, b []string) float64 {
	wa := TagWeights(a)
	wb := TagWeights(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	var shared float64
	for tag, w := range wa {
		if w2, ok := wb[tag]; ok {
			shared += math.Min(w, w2)
		}
	}

	var sumA, sumB float64
	for _, w := range wa {
		sumA += w
	}
	for _, w := range wb {
		sumB += w
	}

	norm := math.Min(sumA, sumB)
	if norm == 0 {
		return 0
	}
	return clamp01(shared / norm)
}
