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

	"github.com/mellowhen/deepcue/internal/models"
	"github.com/mellowhen/deepcue/internal/recommend"
)

// GetWeights returns the user's saved recommendation weights, or the
// defaults when the user has none.
func (db *DB) GetWeights(ctx context.Context, userID string) (models.RecommendationWeights, error) {
	stmt, err := db.getStatement(ctx, `
		SELECT content, collaborative, popularity, trending, diversity_factor, exploration_level
		FROM user_weights
		WHERE user_id = ?`)
	if err != nil {
		return models.RecommendationWeights{}, err
	}

	var w models.RecommendationWeights
	err = stmt.QueryRowContext(ctx, userID).Scan(
		&w.Content, &w.Collaborative, &w.Popularity, &w.Trending,
		&w.DiversityFactor, &w.ExplorationLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultWeights(), nil
	}
	if err != nil {
		return models.RecommendationWeights{}, fmt.Errorf("get weights for %s: %w", userID, err)
	}
	return w, nil
}

// SaveWeights persists the user's recommendation weights. Weights are
// normalized before writing so the stored source weights sum to 1.
func (db *DB) SaveWeights(ctx context.Context, userID string, w models.RecommendationWeights) error {
	w = w.Normalize()

	stmt, err := db.getStatement(ctx, `
		INSERT INTO user_weights (user_id, content, collaborative, popularity, trending, diversity_factor, exploration_level, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			content = EXCLUDED.content,
			collaborative = EXCLUDED.collaborative,
			popularity = EXCLUDED.popularity,
			trending = EXCLUDED.trending,
			diversity_factor = EXCLUDED.diversity_factor,
			exploration_level = EXCLUDED.exploration_level,
			updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx, userID, w.Content, w.Collaborative, w.Popularity,
		w.Trending, w.DiversityFactor, w.ExplorationLevel)
	if err != nil {
		return fmt.Errorf("save weights for %s: %w", userID, err)
	}
	return nil
}

var (
	_ recommend.CatalogStore    = (*DB)(nil)
	_ recommend.PreferenceStore = (*DB)(nil)
)
