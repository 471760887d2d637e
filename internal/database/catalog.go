// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/mellowhen/deepcue/internal/models"
	"github.com/mellowhen/deepcue/internal/recommend"
)

// trackSelect is the shared projection for track queries. Features
// come from a LEFT JOIN so tracks without analysis still load.
const trackSelect = `
SELECT t.id, t.title, t.artist, t.artist_id, t.album, t.genres, t.play_count,
       f.energy, f.valence, f.tempo, f.danceability, f.acousticness, f.popularity,
       f.tags, f.moods
FROM tracks t
LEFT JOIN track_features f ON f.track_id = t.id
`

// UpsertTrack inserts or updates a catalog track. Features are
// written separately via UpsertFeatures.
func (db *DB) UpsertTrack(ctx context.Context, track *models.Track) error {
	genres, err := json.Marshal(track.Genres)
	if err != nil {
		return fmt.Errorf("marshal genres: %w", err)
	}

	stmt, err := db.getStatement(ctx, `
		INSERT INTO tracks (id, title, artist, artist_id, album, genres, play_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			artist = EXCLUDED.artist,
			artist_id = EXCLUDED.artist_id,
			album = EXCLUDED.album,
			genres = EXCLUDED.genres,
			play_count = EXCLUDED.play_count,
			updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx, track.ID, track.Title, track.Artist, track.ArtistID,
		track.Album, string(genres), track.PlayCount)
	if err != nil {
		return fmt.Errorf("upsert track %s: %w", track.ID, err)
	}
	return nil
}

// UpsertFeatures inserts or updates a track's feature vector.
func (db *DB) UpsertFeatures(ctx context.Context, trackID string, f *models.FeatureVector) error {
	tags, err := json.Marshal(f.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	moods, err := json.Marshal(f.Moods)
	if err != nil {
		return fmt.Errorf("marshal moods: %w", err)
	}

	stmt, err := db.getStatement(ctx, `
		INSERT INTO track_features (track_id, energy, valence, tempo, danceability, acousticness, popularity, tags, moods, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (track_id) DO UPDATE SET
			energy = EXCLUDED.energy,
			valence = EXCLUDED.valence,
			tempo = EXCLUDED.tempo,
			danceability = EXCLUDED.danceability,
			acousticness = EXCLUDED.acousticness,
			popularity = EXCLUDED.popularity,
			tags = EXCLUDED.tags,
			moods = EXCLUDED.moods,
			updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx, trackID, f.Energy, f.Valence, f.Tempo,
		f.Danceability, f.Acousticness, f.Popularity, string(tags), string(moods))
	if err != nil {
		return fmt.Errorf("upsert features for %s: %w", trackID, err)
	}
	return nil
}

// GetTrack returns the track with the given ID, or
// recommend.ErrTrackNotFound.
func (db *DB) GetTrack(ctx context.Context, id string) (*models.Track, error) {
	stmt, err := db.getStatement(ctx, trackSelect+`WHERE t.id = ?`)
	if err != nil {
		return nil, err
	}

	track, err := scanTrack(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("track %s: %w", id, recommend.ErrTrackNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get track %s: %w", id, err)
	}
	return track, nil
}

// ListTracks returns catalog tracks ordered by ID.
func (db *DB) ListTracks(ctx context.Context, limit, offset int) ([]models.Track, error) {
	stmt, err := db.getStatement(ctx, trackSelect+`ORDER BY t.id LIMIT ? OFFSET ?`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// TracksByPlayCountRange returns tracks with minPlays < play_count <=
// maxPlays, at most limit.
func (db *DB) TracksByPlayCountRange(ctx context.Context, minPlays, maxPlays int64, limit int) ([]models.Track, error) {
	stmt, err := db.getStatement(ctx, trackSelect+
		`WHERE t.play_count > ? AND t.play_count <= ? LIMIT ?`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, minPlays, maxPlays, limit)
	if err != nil {
		return nil, fmt.Errorf("tracks by play count range: %w", err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// TopByPlayCount returns tracks ordered by lifetime play count
// descending.
func (db *DB) TopByPlayCount(ctx context.Context, limit int) ([]models.Track, error) {
	stmt, err := db.getStatement(ctx, trackSelect+
		`ORDER BY t.play_count DESC, t.id LIMIT ?`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top by play count: %w", err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// TrendingSince returns tracks with plays recorded after since,
// ordered by recent play volume descending.
func (db *DB) TrendingSince(ctx context.Context, since time.Time, limit int) ([]models.Track, error) {
	stmt, err := db.getStatement(ctx, `
		SELECT t.id, t.title, t.artist, t.artist_id, t.album, t.genres, t.play_count,
		       f.energy, f.valence, f.tempo, f.danceability, f.acousticness, f.popularity,
		       f.tags, f.moods
		FROM tracks t
		LEFT JOIN track_features f ON f.track_id = t.id
		JOIN (
			SELECT track_id, COUNT(*) AS recent_plays
			FROM track_plays
			WHERE played_at > ?
			GROUP BY track_id
		) p ON p.track_id = t.id
		ORDER BY p.recent_plays DESC, t.id
		LIMIT ?`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("trending since %s: %w", since.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// ArtistPlayCount returns the summed play count for an artist's
// tracks.
func (db *DB) ArtistPlayCount(ctx context.Context, artistID string) (int64, error) {
	stmt, err := db.getStatement(ctx,
		`SELECT COALESCE(SUM(play_count), 0) FROM tracks WHERE artist_id = ?`)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := stmt.QueryRowContext(ctx, artistID).Scan(&total); err != nil {
		return 0, fmt.Errorf("artist play count for %s: %w", artistID, err)
	}
	return total, nil
}

// RecentTracksForUser returns the user's most recently played tracks,
// newest first, deduplicated by track.
func (db *DB) RecentTracksForUser(ctx context.Context, userID string, limit int) ([]models.Track, error) {
	stmt, err := db.getStatement(ctx, `
		SELECT t.id, t.title, t.artist, t.artist_id, t.album, t.genres, t.play_count,
		       f.energy, f.valence, f.tempo, f.danceability, f.acousticness, f.popularity,
		       f.tags, f.moods
		FROM tracks t
		LEFT JOIN track_features f ON f.track_id = t.id
		JOIN (
			SELECT track_id, MAX(played_at) AS last_played
			FROM track_plays
			WHERE user_id = ?
			GROUP BY track_id
		) p ON p.track_id = t.id
		ORDER BY p.last_played DESC
		LIMIT ?`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent tracks for %s: %w", userID, err)
	}
	defer rows.Close()

	return scanTracks(rows)
}

// RecordPlay appends a play event and bumps the track's lifetime play
// count.
func (db *DB) RecordPlay(ctx context.Context, trackID, userID string, playedAt time.Time) error {
	if playedAt.IsZero() {
		playedAt = time.Now().UTC()
	}

	insert, err := db.getStatement(ctx,
		`INSERT INTO track_plays (track_id, user_id, played_at) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	if _, err := insert.ExecContext(ctx, trackID, userID, playedAt); err != nil {
		return fmt.Errorf("record play for %s: %w", trackID, err)
	}

	bump, err := db.getStatement(ctx,
		`UPDATE tracks SET play_count = play_count + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
	if err != nil {
		return err
	}
	if _, err := bump.ExecContext(ctx, trackID); err != nil {
		return fmt.Errorf("bump play count for %s: %w", trackID, err)
	}
	return nil
}

// CountTracks returns the number of catalog tracks.
func (db *DB) CountTracks(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return count, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTrack reads one track row from the shared projection.
func scanTrack(row rowScanner) (*models.Track, error) {
	var (
		t      models.Track
		genres string

		energy, valence, tempo, danceability, acousticness, popularity sql.NullFloat64
		tags, moods                                                    sql.NullString
	)

	err := row.Scan(&t.ID, &t.Title, &t.Artist, &t.ArtistID, &t.Album, &genres, &t.PlayCount,
		&energy, &valence, &tempo, &danceability, &acousticness, &popularity,
		&tags, &moods)
	if err != nil {
		return nil, err
	}

	if genres != "" {
		if err := json.Unmarshal([]byte(genres), &t.Genres); err != nil {
			return nil, fmt.Errorf("unmarshal genres for %s: %w", t.ID, err)
		}
	}

	// A NULL energy means the LEFT JOIN found no feature row.
	if energy.Valid {
		f := &models.FeatureVector{
			Energy:       energy.Float64,
			Valence:      valence.Float64,
			Tempo:        tempo.Float64,
			Danceability: danceability.Float64,
			Acousticness: acousticness.Float64,
			Popularity:   popularity.Float64,
		}
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &f.Tags); err != nil {
				return nil, fmt.Errorf("unmarshal tags for %s: %w", t.ID, err)
			}
		}
		if moods.Valid && moods.String != "" {
			if err := json.Unmarshal([]byte(moods.String), &f.Moods); err != nil {
				return nil, fmt.Errorf("unmarshal moods for %s: %w", t.ID, err)
			}
		}
		t.Features = f
	}

	return &t, nil
}

// scanTracks drains a result set through scanTrack.
func scanTracks(rows *sql.Rows) ([]models.Track, error) {
	var tracks []models.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return tracks, nil
}
