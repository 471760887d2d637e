// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaTimeout bounds schema creation and migration statements.
const schemaTimeout = 30 * time.Second

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), schemaTimeout)
}

// Migration represents a versioned database migration.
type Migration struct {
	Version   int       // Unique version number (monotonically increasing)
	Name      string    // Human-readable migration name
	SQL       string    // SQL statement to execute
	AppliedAt time.Time // When the migration was applied (populated on query)
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

var createTableStatements = []string{
	`CREATE TABLE IF NOT EXISTS tracks (
		id VARCHAR PRIMARY KEY,
		title VARCHAR NOT NULL,
		artist VARCHAR NOT NULL DEFAULT '',
		artist_id VARCHAR NOT NULL DEFAULT '',
		album VARCHAR NOT NULL DEFAULT '',
		genres VARCHAR NOT NULL DEFAULT '[]',
		play_count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS track_features (
		track_id VARCHAR PRIMARY KEY,
		energy DOUBLE NOT NULL DEFAULT 0.5,
		valence DOUBLE NOT NULL DEFAULT 0.5,
		tempo DOUBLE NOT NULL DEFAULT 0.5,
		danceability DOUBLE NOT NULL DEFAULT 0.5,
		acousticness DOUBLE NOT NULL DEFAULT 0.5,
		popularity DOUBLE NOT NULL DEFAULT 0,
		tags VARCHAR NOT NULL DEFAULT '[]',
		moods VARCHAR NOT NULL DEFAULT '[]',
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS track_plays (
		track_id VARCHAR NOT NULL,
		user_id VARCHAR NOT NULL DEFAULT '',
		played_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS user_weights (
		user_id VARCHAR PRIMARY KEY,
		content DOUBLE NOT NULL,
		collaborative DOUBLE NOT NULL,
		popularity DOUBLE NOT NULL,
		trending DOUBLE NOT NULL,
		diversity_factor DOUBLE NOT NULL,
		exploration_level DOUBLE NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

var createIndexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_tracks_play_count ON tracks (play_count);`,
	`CREATE INDEX IF NOT EXISTS idx_tracks_artist_id ON tracks (artist_id);`,
	`CREATE INDEX IF NOT EXISTS idx_track_plays_played_at ON track_plays (played_at);`,
	`CREATE INDEX IF NOT EXISTS idx_track_plays_user ON track_plays (user_id, played_at);`,
}

// createTables creates all tables if they do not exist.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, stmt := range createTableStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// createIndexes creates all indexes if they do not exist.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, stmt := range createIndexStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// getMigrations returns all versioned migrations in order. Migrations
// must be append-only: never modify or remove existing entries once
// users have databases with data.
func (db *DB) getMigrations() []Migration {
	return []Migration{
		// Post-release migrations will be added here. Example:
		// {Version: 1, Name: "add_release_year",
		//  SQL: `ALTER TABLE tracks ADD COLUMN IF NOT EXISTS release_year INTEGER;`},
	}
}

// runMigrations executes only migrations that have not been applied
// yet, recording each in schema_migrations.
func (db *DB) runMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, m := range db.getMigrations() {
		if _, done := applied[m.Version]; done {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`,
			m.Version, m.Name); err != nil {
			return fmt.Errorf("recording migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// getAppliedMigrations returns a map of version -> Migration for all
// applied migrations.
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT version, name, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}
