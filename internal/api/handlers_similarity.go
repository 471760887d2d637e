// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mellowhen/deepcue/internal/flags"
	"github.com/mellowhen/deepcue/internal/logging"
	"github.com/mellowhen/deepcue/internal/models"
)

// similarResponse is the data payload for GET /tracks/{id}/similar.
type similarResponse struct {
	SeedID  string               `json:"seed_id"`
	Results []models.ScoredTrack `json:"results"`
	Count   int                  `json:"count"`
}

// SimilarTracks handles GET /api/v1/tracks/{id}/similar.
//
// Query parameters:
//   - limit: result count, clamped to [1, max_limit] (default 20)
//   - min_similarity: score floor in [0,1] (default 0.5)
func (h *Handler) SimilarTracks(w http.ResponseWriter, r *http.Request) {
	if !h.requireFlag(w, flags.ContentFiltering) {
		return
	}

	seedID := chi.URLParam(r, "id")
	if seedID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "track id is required", nil)
		return
	}

	limit := clampInt(getIntParam(r, "limit", h.cfg.API.DefaultLimit), 1, h.cfg.API.MaxLimit)
	minSimilarity := clampFloat(getFloatParam(r, "min_similarity", h.cfg.API.DefaultMinSimilarity), 0, 1)

	start := time.Now()
	results, cached, err := h.engine.TopKSimilar(r.Context(), seedID, limit, minSimilarity)
	if err != nil {
		respondScoringError(w, err)
		return
	}
	if results == nil {
		results = []models.ScoredTrack{}
	}

	respondSuccess(w, similarResponse{
		SeedID:  seedID,
		Results: results,
		Count:   len(results),
	}, time.Since(start), cached)
}

// precomputeRequest is the body for POST /admin/precompute.
type precomputeRequest struct {
	// WindowSize is the sliding comparison window. Zero uses the
	// engine default.
	WindowSize int `json:"window_size" validate:"gte=0,lte=1000"`

	// MinSimilarity is the floor below which compared pairs are not
	// persisted.
	MinSimilarity float64 `json:"min_similarity" validate:"gte=0,lte=1"`
}

// precomputeResponse is the data payload for POST /admin/precompute.
type precomputeResponse struct {
	Tracks      int `json:"tracks"`
	Comparisons int `json:"comparisons"`
	Pairs       int `json:"pairs"`
	WindowSize  int `json:"window_size"`
}

// catalogPageSize is how many tracks each catalog page fetches during
// a precompute walk.
const catalogPageSize = 500

// AdminPrecompute handles POST /api/v1/admin/precompute. It walks the
// catalog and computes pairwise similarity inside a sliding window,
// persisting the results to the similarity store.
func (h *Handler) AdminPrecompute(w http.ResponseWriter, r *http.Request) {
	var req precomputeRequest
	if r.ContentLength > 0 {
		if err := decodeJSONBody(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	start := time.Now()

	var all []models.Track
	for offset := 0; ; offset += catalogPageSize {
		page, err := h.catalog.ListTracks(r.Context(), catalogPageSize, offset)
		if err != nil {
			respondScoringError(w, err)
			return
		}
		all = append(all, page...)
		if len(page) < catalogPageSize {
			break
		}
	}

	compared, stored, err := h.engine.PrecomputeBatch(r.Context(), all, req.WindowSize, req.MinSimilarity)
	if err != nil {
		respondScoringError(w, err)
		return
	}

	windowSize := req.WindowSize
	if windowSize <= 1 {
		windowSize = h.engine.Config().Similarity.PrecomputeWindow
	}

	logging.Info().
		Int("tracks", len(all)).
		Int("compared", compared).
		Int("stored", stored).
		Int("window", windowSize).
		Dur("took", time.Since(start)).
		Msg("precompute batch complete")

	respondSuccess(w, precomputeResponse{
		Tracks:      len(all),
		Comparisons: compared,
		Pairs:       stored,
		WindowSize:  windowSize,
	}, time.Since(start), false)
}
