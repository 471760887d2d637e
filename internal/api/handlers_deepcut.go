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
	"github.com/mellowhen/deepcue/internal/recommend"
)

// deepcutsRequest is the body for POST /tracks/{id}/deepcuts.
type deepcutsRequest struct {
	// ExplorationLevel in [0,1]: 0 stays near familiar tracks, 1 digs
	// for the most obscure.
	ExplorationLevel float64 `json:"exploration_level" validate:"gte=0,lte=1"`

	Limit         int      `json:"limit" validate:"gte=0,lte=100"`
	MinSimilarity *float64 `json:"min_similarity" validate:"omitempty,gte=0,lte=1"`
	SameGenre     bool     `json:"same_genre"`
}

// deepcutsResponse is the data payload for POST /tracks/{id}/deepcuts.
type deepcutsResponse struct {
	SeedID           string              `json:"seed_id"`
	ExplorationLevel float64             `json:"exploration_level"`
	Exploration      string              `json:"exploration"`
	PopularityCeil   int64               `json:"popularity_ceiling"`
	Results          []recommend.DeepCut `json:"results"`
	Count            int                 `json:"count"`
}

// DeepCuts handles POST /api/v1/tracks/{id}/deepcuts. It surfaces
// obscure tracks similar to the seed, with the exploration level
// steering how far down the popularity curve to dig.
func (h *Handler) DeepCuts(w http.ResponseWriter, r *http.Request) {
	if !h.requireFlag(w, flags.DeepCutDiscovery) {
		return
	}

	seedID := chi.URLParam(r, "id")
	if seedID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "track id is required", nil)
		return
	}

	var req deepcutsRequest
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
	results, err := h.deepcuts.FindDeepCuts(r.Context(), seedID, recommend.DeepCutOptions{
		ExplorationLevel: req.ExplorationLevel,
		Limit:            req.Limit,
		MinSimilarity:    req.MinSimilarity,
		SameGenre:        req.SameGenre,
	})
	if err != nil {
		respondScoringError(w, err)
		return
	}

	respondSuccess(w, deepcutsResponse{
		SeedID:           seedID,
		ExplorationLevel: req.ExplorationLevel,
		Exploration:      recommend.ExplorationDescription(req.ExplorationLevel),
		PopularityCeil:   h.deepcuts.PopularityCeiling(req.ExplorationLevel),
		Results:          results,
		Count:            len(results),
	}, time.Since(start), false)
}
