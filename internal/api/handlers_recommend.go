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
	"github.com/mellowhen/deepcue/internal/models"
	"github.com/mellowhen/deepcue/internal/recommend"
)

// recommendationsRequest is the body for POST /recommendations.
type recommendationsRequest struct {
	UserID          string                        `json:"user_id" validate:"required,max=128"`
	Limit           int                           `json:"limit" validate:"gte=0,lte=1000"`
	SeedTrackID     string                        `json:"seed_track_id" validate:"max=128"`
	Weights         *models.RecommendationWeights `json:"weights"`
	DiversityFactor *float64                      `json:"diversity_factor" validate:"omitempty,gte=0,lte=1"`
}

// recommendationsResponse is the data payload for POST /recommendations.
type recommendationsResponse struct {
	UserID  string               `json:"user_id"`
	Results []models.ScoredTrack `json:"results"`
	Count   int                  `json:"count"`
}

// Recommendations handles POST /api/v1/recommendations. Candidates
// from the content, collaborative, popularity and trending sources are
// blended per the user's weights and optionally re-ranked for
// diversity.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	if !h.requireFlag(w, flags.ContentFiltering) {
		return
	}

	var req recommendationsRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	start := time.Now()
	results, err := h.hybrid.Recommend(r.Context(), req.UserID, recommend.HybridOptions{
		Limit:           clampInt(req.Limit, 0, h.cfg.API.MaxLimit),
		SeedTrackID:     req.SeedTrackID,
		Weights:         req.Weights,
		DiversityFactor: req.DiversityFactor,
	})
	if err != nil {
		respondScoringError(w, err)
		return
	}
	if results == nil {
		results = []models.ScoredTrack{}
	}

	respondSuccess(w, recommendationsResponse{
		UserID:  req.UserID,
		Results: results,
		Count:   len(results),
	}, time.Since(start), false)
}

// rerankRequest is the body for POST /rerank.
type rerankRequest struct {
	Tracks []models.ScoredTrack `json:"tracks" validate:"required,min=1,max=10000"`

	// Lambda is the MMR relevance/diversity trade-off. Nil uses the
	// configured default.
	Lambda *float64 `json:"lambda" validate:"omitempty,gte=0,lte=1"`

	// TargetILD switches to iterative re-ranking toward the given
	// intra-list diversity.
	TargetILD *float64 `json:"target_ild" validate:"omitempty,gte=0,lte=1"`

	MaxIterations int `json:"max_iterations" validate:"gte=0,lte=50"`
	Limit         int `json:"limit" validate:"gte=0,lte=1000"`
}

// rerankResponse is the data payload for POST /rerank.
type rerankResponse struct {
	Results []models.ScoredTrack      `json:"results"`
	Count   int                       `json:"count"`
	Metrics recommend.DiversityReport `json:"metrics"`
	Rerank  *recommend.RerankReport   `json:"rerank,omitempty"`
}

// Rerank handles POST /api/v1/rerank. With target_ild set it
// iteratively lowers lambda until the diversity target is met;
// otherwise it runs a single MMR pass.
func (h *Handler) Rerank(w http.ResponseWriter, r *http.Request) {
	if !h.requireFlag(w, flags.DiversityReranking) {
		return
	}

	var req rerankRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	cfg := h.engine.Config().Diversity
	limit := req.Limit
	if limit <= 0 {
		limit = len(req.Tracks)
	}

	start := time.Now()
	var (
		results []models.ScoredTrack
		report  *recommend.RerankReport
	)
	if req.TargetILD != nil {
		maxIterations := req.MaxIterations
		if maxIterations <= 0 {
			maxIterations = cfg.MaxIterations
		}
		reranked, rep := h.optimizer.RerankForDiversity(r.Context(), req.Tracks, *req.TargetILD, maxIterations)
		results, report = reranked, &rep
	} else {
		lambda := cfg.DefaultLambda
		if req.Lambda != nil {
			lambda = *req.Lambda
		}
		results = h.optimizer.MMR(r.Context(), req.Tracks, lambda, limit)
	}
	if len(results) > limit {
		results = results[:limit]
	}

	respondSuccess(w, rerankResponse{
		Results: results,
		Count:   len(results),
		Metrics: h.optimizer.Metrics(tracksOfScored(results)),
		Rerank:  report,
	}, time.Since(start), false)
}

// tracksOfScored strips scores for metric computation.
func tracksOfScored(items []models.ScoredTrack) []models.Track {
	tracks := make([]models.Track, len(items))
	for i := range items {
		tracks[i] = items[i].Track
	}
	return tracks
}

// weightsResponse is the data payload for the weights endpoints.
type weightsResponse struct {
	UserID  string                       `json:"user_id"`
	Weights models.RecommendationWeights `json:"weights"`
}

// GetUserWeights handles GET /api/v1/users/{id}/weights.
func (h *Handler) GetUserWeights(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "user id is required", nil)
		return
	}

	start := time.Now()
	weights, err := h.prefs.GetWeights(r.Context(), userID)
	if err != nil {
		respondScoringError(w, err)
		return
	}

	respondSuccess(w, weightsResponse{UserID: userID, Weights: weights}, time.Since(start), false)
}

// putWeightsRequest is the body for PUT /users/{id}/weights.
type putWeightsRequest struct {
	Content          float64 `json:"content" validate:"gte=0"`
	Collaborative    float64 `json:"collaborative" validate:"gte=0"`
	Popularity       float64 `json:"popularity" validate:"gte=0"`
	Trending         float64 `json:"trending" validate:"gte=0"`
	DiversityFactor  float64 `json:"diversity_factor" validate:"gte=0,lte=1"`
	ExplorationLevel float64 `json:"exploration_level" validate:"gte=0,lte=1"`
}

// PutUserWeights handles PUT /api/v1/users/{id}/weights. Source
// weights are normalized to sum to 1 before persisting; the normalized
// set is returned.
func (h *Handler) PutUserWeights(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "user id is required", nil)
		return
	}

	var req putWeightsRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	weights := models.RecommendationWeights{
		Content:          req.Content,
		Collaborative:    req.Collaborative,
		Popularity:       req.Popularity,
		Trending:         req.Trending,
		DiversityFactor:  req.DiversityFactor,
		ExplorationLevel: req.ExplorationLevel,
	}

	start := time.Now()
	if err := h.prefs.SaveWeights(r.Context(), userID, weights); err != nil {
		respondScoringError(w, err)
		return
	}

	respondSuccess(w, weightsResponse{
		UserID:  userID,
		Weights: weights.Normalize(),
	}, time.Since(start), false)
}
