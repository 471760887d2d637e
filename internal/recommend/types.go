// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package recommend

import (
	"context"
	"time"

	"github.com/mellowhen/deepcue/internal/models"
)

// CatalogStore provides read access to the track catalog. Implemented
// by the database package; defined here so the scoring core has no
// dependency on a concrete backend.
type CatalogStore interface {
	// GetTrack returns the track with the given ID, or ErrTrackNotFound.
	GetTrack(ctx context.Context, id string) (*models.Track, error)

	// ListTracks returns catalog tracks ordered by ID, for candidate
	// pools and precompute walks.
	ListTracks(ctx context.Context, limit, offset int) ([]models.Track, error)

	// TracksByPlayCountRange returns tracks with minPlays < PlayCount
	// <= maxPlays, at most limit, in no particular order.
	TracksByPlayCountRange(ctx context.Context, minPlays, maxPlays int64, limit int) ([]models.Track, error)

	// TrendingSince returns tracks with plays recorded after since,
	// ordered by recent play volume descending.
	TrendingSince(ctx context.Context, since time.Time, limit int) ([]models.Track, error)

	// TopByPlayCount returns tracks ordered by lifetime play count
	// descending.
	TopByPlayCount(ctx context.Context, limit int) ([]models.Track, error)

	// ArtistPlayCount returns the summed play count for an artist's
	// tracks, used for novelty discounting.
	ArtistPlayCount(ctx context.Context, artistID string) (int64, error)

	// RecentTracksForUser returns the user's most recently played
	// tracks, newest first. Used as content-source seeds.
	RecentTracksForUser(ctx context.Context, userID string, limit int) ([]models.Track, error)
}

// SimilarityStore persists precomputed pairwise similarity records.
// Implementations must store records under both pair directions and
// upsert idempotently.
type SimilarityStore interface {
	// Put stores a record (both directions). Re-putting the same pair
	// overwrites.
	Put(ctx context.Context, rec models.SimilarityRecord) error

	// Get returns the record for the pair, or nil when absent.
	Get(ctx context.Context, trackA, trackB string) (*models.SimilarityRecord, error)

	// AllFor returns up to limit records involving the given track.
	AllFor(ctx context.Context, trackID string, limit int) ([]models.SimilarityRecord, error)
}

// PreferenceStore persists per-user recommendation weights.
type PreferenceStore interface {
	// GetWeights returns the user's saved weights, or the defaults
	// when the user has none. It does not error on absence.
	GetWeights(ctx context.Context, userID string) (models.RecommendationWeights, error)

	// SaveWeights persists the weights. Implementations normalize
	// before writing.
	SaveWeights(ctx context.Context, userID string, w models.RecommendationWeights) error
}

// Cache is the subset of the in-memory cache the engine needs.
// A nil Cache disables caching.
type Cache interface {
	Get(key string) (interface{}, bool)
	SetWithTTL(key string, value interface{}, ttl time.Duration)
}

// CollaborativeSource supplies candidates from a collaborative
// filtering model. The stock build ships NoopCollaborative; a trained
// model slots in behind this interface.
type CollaborativeSource interface {
	// Candidates returns scored candidates for the user. Scores are
	// raw source scores in [0,1].
	Candidates(ctx context.Context, userID string, limit int) ([]models.ScoredTrack, error)
}

// NoopCollaborative is a CollaborativeSource that never has
// candidates.
type NoopCollaborative struct{}

// Candidates always reports no results.
func (NoopCollaborative) Candidates(_ context.Context, _ string, _ int) ([]models.ScoredTrack, error) {
	return nil, ErrEmptyResult
}

var _ CollaborativeSource = (*NoopCollaborative)(nil)
