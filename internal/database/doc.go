// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

/*
Package database provides the DuckDB-backed track catalog and user
preference store.

The package owns four tables:

  - tracks: catalog metadata and lifetime play counts
  - track_features: audio feature vectors and tags, one row per
    analyzed track
  - track_plays: individual play events, used for trending and
    per-user listening history
  - user_weights: per-user hybrid source weights and tuning knobs

Genres, tags and moods are stored as JSON text columns and
marshaled with goccy/go-json. Prepared statements are cached per
query with double-checked locking; the cache is drained on Close.

DB satisfies recommend.CatalogStore and recommend.PreferenceStore so
the scoring core never touches SQL directly.
*/
package database
