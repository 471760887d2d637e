// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mellowhen/deepcue/internal/models"
)

// fakeCatalog is an in-memory CatalogStore for tests.
type fakeCatalog struct {
	mu          sync.RWMutex
	tracks      map[string]models.Track
	order       []string
	recent      map[string][]models.Track
	trending    []models.Track
	artistPlays map[string]int64
}

func newFakeCatalog(tracks ...models.Track) *fakeCatalog {
	c := &fakeCatalog{
		tracks:      make(map[string]models.Track),
		recent:      make(map[string][]models.Track),
		artistPlays: make(map[string]int64),
	}
	for _, t := range tracks {
		c.add(t)
	}
	return c
}

func (c *fakeCatalog) add(t models.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tracks[t.ID]; !ok {
		c.order = append(c.order, t.ID)
	}
	c.tracks[t.ID] = t
	c.artistPlays[t.ArtistID] += t.PlayCount
}

func (c *fakeCatalog) GetTrack(_ context.Context, id string) (*models.Track, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tracks[id]
	if !ok {
		return nil, fmt.Errorf("track %s: %w", id, ErrTrackNotFound)
	}
	return &t, nil
}

func (c *fakeCatalog) ListTracks(_ context.Context, limit, offset int) ([]models.Track, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Track
	for i := offset; i < len(c.order) && len(out) < limit; i++ {
		out = append(out, c.tracks[c.order[i]])
	}
	return out, nil
}

func (c *fakeCatalog) TracksByPlayCountRange(_ context.Context, minPlays, maxPlays int64, limit int) ([]models.Track, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Track
	for _, id := range c.order {
		t := c.tracks[id]
		if t.PlayCount > minPlays && t.PlayCount <= maxPlays {
			out = append(out, t)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (c *fakeCatalog) TrendingSince(_ context.Context, _ time.Time, limit int) ([]models.Track, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.trending
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) TopByPlayCount(_ context.Context, limit int) ([]models.Track, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Track, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.tracks[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayCount > out[j].PlayCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) ArtistPlayCount(_ context.Context, artistID string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.artistPlays[artistID], nil
}

func (c *fakeCatalog) RecentTracksForUser(_ context.Context, userID string, limit int) ([]models.Track, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.recent[userID]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memSimilarityStore is an in-memory SimilarityStore.
type memSimilarityStore struct {
	mu      sync.RWMutex
	records map[string]models.SimilarityRecord
	puts    int
	failPut error
}

func newMemSimilarityStore() *memSimilarityStore {
	return &memSimilarityStore{records: make(map[string]models.SimilarityRecord)}
}

func pairKey(a, b string) string { return a + "|" + b }

func (m *memSimilarityStore) Put(_ context.Context, rec models.SimilarityRecord) error {
	if m.failPut != nil {
		return m.failPut
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[pairKey(rec.TrackA, rec.TrackB)] = rec
	m.records[pairKey(rec.TrackB, rec.TrackA)] = rec.Reversed()
	m.puts++
	return nil
}

func (m *memSimilarityStore) Get(_ context.Context, a, b string) (*models.SimilarityRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[pairKey(a, b)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memSimilarityStore) AllFor(_ context.Context, trackID string, limit int) ([]models.SimilarityRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.SimilarityRecord
	for key, rec := range m.records {
		if len(out) >= limit {
			break
		}
		if len(key) > len(trackID) && key[:len(trackID)+1] == trackID+"|" {
			out = append(out, rec)
		}
	}
	return out, nil
}

// memPrefs is an in-memory PreferenceStore.
type memPrefs struct {
	mu      sync.RWMutex
	weights map[string]models.RecommendationWeights
}

func newMemPrefs() *memPrefs {
	return &memPrefs{weights: make(map[string]models.RecommendationWeights)}
}

func (p *memPrefs) GetWeights(_ context.Context, userID string) (models.RecommendationWeights, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if w, ok := p.weights[userID]; ok {
		return w, nil
	}
	return models.DefaultWeights(), nil
}

func (p *memPrefs) SaveWeights(_ context.Context, userID string, w models.RecommendationWeights) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.weights[userID] = w.Normalize()
	return nil
}

// makeTrack builds a track with a feature vector for tests.
func makeTrack(id, artistID string, plays int64, energy, valence float64, tags ...string) models.Track {
	tagList := make([]models.Tag, len(tags))
	for i, t := range tags {
		tagList[i] = models.Tag{Name: t}
	}
	return models.Track{
		ID:        id,
		Title:     "Track " + id,
		Artist:    "Artist " + artistID,
		ArtistID:  artistID,
		PlayCount: plays,
		Genres:    tags,
		Features: &models.FeatureVector{
			Energy:       energy,
			Valence:      valence,
			Tempo:        0.5,
			Danceability: 0.5,
			Acousticness: 0.5,
			Popularity:   models.NormalizePopularity(float64(plays) / 1000),
			Tags:         tagList,
		},
	}
}

// makeBareTrack builds a track without feature data.
func makeBareTrack(id, artistID string, plays int64) models.Track {
	return models.Track{
		ID:        id,
		Title:     "Track " + id,
		Artist:    "Artist " + artistID,
		ArtistID:  artistID,
		PlayCount: plays,
	}
}

var (
	_ CatalogStore    = (*fakeCatalog)(nil)
	_ SimilarityStore = (*memSimilarityStore)(nil)
	_ PreferenceStore = (*memPrefs)(nil)
)
