// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package recommend

import "errors"

// Sentinel errors for the scoring core. Callers match with errors.Is;
// wrapped variants carry the track or operation context.
var (
	// ErrMissingFeatures indicates a track has no usable feature data.
	// Pairwise operations fail with this; list operations skip the
	// track instead.
	ErrMissingFeatures = errors.New("track has no feature data")

	// ErrTrackNotFound indicates the catalog has no such track.
	ErrTrackNotFound = errors.New("track not found")

	// ErrEmptyResult indicates no candidates survived filtering. An
	// operation returning it alongside an empty slice is not a
	// failure; handlers translate it to an empty response.
	ErrEmptyResult = errors.New("no candidates available")

	// ErrCacheUnavailable indicates the similarity store or cache
	// backend is down. The engine treats it as a cache miss and
	// recomputes.
	ErrCacheUnavailable = errors.New("similarity store unavailable")

	// ErrInvalidParameter indicates a value Config.Validate cannot
	// accept. Per-request inputs are clamped into range instead of
	// failing with this.
	ErrInvalidParameter = errors.New("invalid parameter")
)
