// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mellowhen/deepcue/internal/config"
	"github.com/mellowhen/deepcue/internal/flags"
	"github.com/mellowhen/deepcue/internal/models"
	"github.com/mellowhen/deepcue/internal/recommend"
)

// fakeCatalog is an in-memory recommend.CatalogStore.
type fakeCatalog struct {
	mu          sync.RWMutex
	tracks      map[string]models.Track
	order       []string
	recent      map[string][]models.Track
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
		return nil, fmt.Errorf("track %s: %w", id, recommend.ErrTrackNotFound)
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
	return c.TopByPlayCount(context.Background(), limit)
}

func (c *fakeCatalog) TopByPlayCount(_ context.Context, limit int) ([]models.Track, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Track, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.tracks[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlayCount != out[j].PlayCount {
			return out[i].PlayCount > out[j].PlayCount
		}
		return out[i].ID < out[j].ID
	})
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

// memStore is an in-memory recommend.SimilarityStore.
type memStore struct {
	mu      sync.RWMutex
	records map[string]models.SimilarityRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]models.SimilarityRecord)}
}

func pairKey(a, b string) string { return a + "|" + b }

func (m *memStore) Put(_ context.Context, rec models.SimilarityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[pairKey(rec.TrackA, rec.TrackB)] = rec
	m.records[pairKey(rec.TrackB, rec.TrackA)] = rec.Reversed()
	return nil
}

func (m *memStore) Get(_ context.Context, a, b string) (*models.SimilarityRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[pairKey(a, b)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memStore) AllFor(_ context.Context, trackID string, limit int) ([]models.SimilarityRecord, error) {
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

// memPrefs is an in-memory recommend.PreferenceStore.
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

// fakeHealth is a controllable HealthChecker.
type fakeHealth struct {
	err error
}

func (f *fakeHealth) Ping(_ context.Context) error { return f.err }

// makeTrack builds a track with a feature vector for tests. Genres
// double as tag names.
func makeTrack(id, artistID string, plays int64, energy, valence float64, genres ...string) models.Track {
	tagList := make([]models.Tag, len(genres))
	for i, g := range genres {
		tagList[i] = models.Tag{Name: g}
	}
	return models.Track{
		ID:        id,
		Title:     "Track " + id,
		Artist:    "Artist " + artistID,
		ArtistID:  artistID,
		PlayCount: plays,
		Genres:    genres,
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

// testAPI bundles the wired handler and its backing fakes.
type testAPI struct {
	catalog *fakeCatalog
	store   *memStore
	prefs   *memPrefs
	flags   *flags.Flags
	health  *fakeHealth
	handler *Handler
}

// testAPIConfig returns the app config used by handler tests.
func testAPIConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			DefaultLimit:         20,
			MaxLimit:             100,
			DefaultMinSimilarity: 0.5,
		},
	}
}

// newTestAPI wires the handler against in-memory fakes with a small
// fixture catalog. Feature flags that ship disabled are turned on.
func newTestAPI() *testAPI {
	catalog := newFakeCatalog(
		makeTrack("t-seed", "ar1", 50000, 0.8, 0.6, "rock", "indie"),
		makeTrack("t-near", "ar2", 40000, 0.78, 0.62, "rock", "indie"),
		makeTrack("t-mid", "ar3", 20000, 0.5, 0.5, "rock"),
		makeTrack("t-far", "ar4", 1000, 0.1, 0.1, "jazz"),
		makeTrack("t-cut", "ar5", 200, 0.75, 0.6, "rock"),
	)
	catalog.recent["alice"] = []models.Track{catalog.tracks["t-near"]}

	store := newMemStore()
	prefs := newMemPrefs()
	fl := flags.New()
	fl.SetFlag(flags.ContentFiltering, true)
	health := &fakeHealth{}

	engine := recommend.NewEngine(recommend.DefaultConfig(), catalog, store, nil, fl)
	optimizer := recommend.NewDiversityOptimizer(engine)
	hybrid := recommend.NewHybridScorer(engine, prefs, nil)
	deepcuts := recommend.NewDeepCutSelector(engine)

	handler := NewHandler(engine, optimizer, hybrid, deepcuts, catalog, prefs, fl, testAPIConfig(), health)

	return &testAPI{
		catalog: catalog,
		store:   store,
		prefs:   prefs,
		flags:   fl,
		health:  health,
		handler: handler,
	}
}

var (
	_ recommend.CatalogStore    = (*fakeCatalog)(nil)
	_ recommend.SimilarityStore = (*memStore)(nil)
	_ recommend.PreferenceStore = (*memPrefs)(nil)
)
