// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package models

import (
	"math"
	"strings"

	json "github.com/goccy/go-json"
)

// FeatureDimensions is the length of the numeric audio feature vector.
const FeatureDimensions = 6

// Tempo normalization bounds in BPM. Tracks outside this range clamp
// to the nearest bound.
const (
	TempoMinBPM = 40.0
	TempoMaxBPM = 200.0
)

// Tag is a single descriptive label attached to a track's features,
// ordered by relevance (most relevant first).
//
// Upstream metadata sources are inconsistent about shape: some emit
// bare strings, others objects with a "name" field. UnmarshalJSON
// accepts both and normalizes the name to lowercase at the boundary so
// the rest of the engine never has to.
type Tag struct {
	Name string `json:"name"`
}

// UnmarshalJSON accepts either a JSON string or an object with a
// "name" field.
func (t *Tag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Name = NormalizeTagName(s)
		return nil
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.Name = NormalizeTagName(obj.Name)
	return nil
}

// NormalizeTagName lowercases and trims a raw tag name.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FeatureVector holds the normalized audio features for a track.
// All numeric fields are in [0,1] after Normalize.
//
// Fields:
//   - Energy, Valence, Danceability, Acousticness: perceptual features
//     as reported by the analysis pipeline, already on a 0-1 scale
//   - Tempo: BPM mapped linearly from [TempoMinBPM, TempoMaxBPM] to [0,1]
//   - Popularity: 0-100 popularity score divided by 100
//   - Tags: descriptive labels ordered by relevance
//   - Moods: coarse mood labels (treated as additional tags)
type FeatureVector struct {
	Energy       float64  `json:"energy"`
	Valence      float64  `json:"valence"`
	Tempo        float64  `json:"tempo"`
	Danceability float64  `json:"danceability"`
	Acousticness float64  `json:"acousticness"`
	Popularity   float64  `json:"popularity"`
	Tags         []Tag    `json:"tags,omitempty"`
	Moods        []string `json:"moods,omitempty"`
}

// NormalizeTempo maps a raw BPM reading onto [0,1]. Zero, negative or
// NaN tempo means the analyzer had no reading; those default to 0.5.
func NormalizeTempo(bpm float64) float64 {
	if bpm <= 0 || math.IsNaN(bpm) {
		return 0.5
	}
	return clamp01((bpm - TempoMinBPM) / (TempoMaxBPM - TempoMinBPM))
}

// NormalizePopularity maps a raw 0-100 popularity score onto [0,1].
func NormalizePopularity(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return clamp01(score / 100)
}

// Normalize returns a copy with every numeric field clamped into
// [0,1]. NaN perceptual features default to 0.5 (an uninformative
// midpoint); NaN popularity defaults to 0.
func (f FeatureVector) Normalize() FeatureVector {
	f.Energy = clampOrDefault(f.Energy, 0.5)
	f.Valence = clampOrDefault(f.Valence, 0.5)
	f.Tempo = clampOrDefault(f.Tempo, 0.5)
	f.Danceability = clampOrDefault(f.Danceability, 0.5)
	f.Acousticness = clampOrDefault(f.Acousticness, 0.5)
	f.Popularity = clampOrDefault(f.Popularity, 0)
	return f
}

// Vector returns the ordered numeric feature vector used for cosine
// similarity.
func (f FeatureVector) Vector() [FeatureDimensions]float64 {
	return [FeatureDimensions]float64{
		f.Energy,
		f.Valence,
		f.Tempo,
		f.Danceability,
		f.Acousticness,
		f.Popularity,
	}
}

// TagNames returns the tag names in relevance order.
func (f FeatureVector) TagNames() []string {
	names := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		if t.Name != "" {
			names = append(names, t.Name)
		}
	}
	return names
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampOrDefault(v, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return clamp01(v)
}

// Track is a catalog entry eligible for recommendation.
type Track struct {
	// ID uniquely identifies the track in the catalog.
	ID string `json:"id"`

	// Title is the track title.
	Title string `json:"title"`

	// Artist is the display name of the primary artist.
	Artist string `json:"artist"`

	// ArtistID identifies the primary artist for same-artist checks.
	ArtistID string `json:"artist_id"`

	// Album is the album title, if known.
	Album string `json:"album,omitempty"`

	// PlayCount is the lifetime play count from the catalog.
	PlayCount int64 `json:"play_count"`

	// Genres are normalized genre labels for the track.
	Genres []string `json:"genres,omitempty"`

	// Features holds the audio feature vector, nil when the analysis
	// pipeline has not produced one yet.
	Features *FeatureVector `json:"features,omitempty"`
}

// HasFeatures reports whether the track carries usable feature data.
// Callers check this instead of dereferencing Features directly.
func (t *Track) HasFeatures() bool {
	return t != nil && t.Features != nil
}

// AllTags merges feature tags, genres and moods into a single
// deduplicated list, preserving relevance order (tags first, then
// genres, then moods).
func (t *Track) AllTags() []string {
	if t == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		name = NormalizeTagName(name)
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	if t.Features != nil {
		for _, tag := range t.Features.Tags {
			add(tag.Name)
		}
	}
	for _, g := range t.Genres {
		add(g)
	}
	if t.Features != nil {
		for _, m := range t.Features.Moods {
			add(m)
		}
	}
	return out
}

// ScoredTrack pairs a track with its recommendation score.
type ScoredTrack struct {
	Track Track `json:"track"`

	// Score is the final score in [0,1], higher is better.
	Score float64 `json:"score"`

	// Breakdown holds per-source score contributions, keyed by source
	// name. Populated by the hybrid scorer; nil elsewhere.
	Breakdown map[string]SourceScore `json:"breakdown,omitempty"`

	// Reason is a short human-readable explanation of the pick.
	Reason string `json:"reason,omitempty"`
}

// SourceScore records how a single source contributed to a hybrid
// score.
type SourceScore struct {
	Raw      float64 `json:"raw"`
	Weighted float64 `json:"weighted"`
}
