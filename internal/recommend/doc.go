// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

// Package recommend implements the scoring core of Deepcue:
//
//   - Engine: pairwise track similarity (audio features, tags,
//     popularity), top-K similar lookup and batch precomputation
//   - DiversityOptimizer: MMR re-ranking and list diversity metrics
//   - HybridScorer: multi-source blending with per-user weights
//   - DeepCutSelector: low-popularity discovery by exploration level
//
// The package depends only on models and the ambient infrastructure
// (logging, metrics, flags). Storage backends are supplied through the
// CatalogStore, SimilarityStore and PreferenceStore interfaces, so the
// scoring logic is testable against in-memory fakes.
//
// All exported scores are in [0,1] unless documented otherwise. Out of
// range parameters are clamped rather than rejected, and tracks
// without feature data are skipped rather than failing whole
// operations.
package recommend
