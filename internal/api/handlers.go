// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mellowhen/deepcue/internal/config"
	"github.com/mellowhen/deepcue/internal/flags"
	"github.com/mellowhen/deepcue/internal/recommend"
)

// HealthChecker reports backend liveness. Satisfied by *database.DB.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler contains dependencies for the API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, error mapping
//   - handlers_similarity.go: similar tracks and precompute admin
//   - handlers_recommend.go: hybrid recommendations, rerank, weights
//   - handlers_deepcut.go: deep cut discovery
//   - handlers_health.go: health endpoint
type Handler struct {
	engine    *recommend.Engine
	optimizer *recommend.DiversityOptimizer
	hybrid    *recommend.HybridScorer
	deepcuts  *recommend.DeepCutSelector
	catalog   recommend.CatalogStore
	prefs     recommend.PreferenceStore
	flags     *flags.Flags
	cfg       *config.Config
	health    HealthChecker
	startTime time.Time
}

// NewHandler creates the API handler. health may be nil, in which case
// readiness only reports uptime.
func NewHandler(
	engine *recommend.Engine,
	optimizer *recommend.DiversityOptimizer,
	hybrid *recommend.HybridScorer,
	deepcuts *recommend.DeepCutSelector,
	catalog recommend.CatalogStore,
	prefs recommend.PreferenceStore,
	fl *flags.Flags,
	cfg *config.Config,
	health HealthChecker,
) *Handler {
	return &Handler{
		engine:    engine,
		optimizer: optimizer,
		hybrid:    hybrid,
		deepcuts:  deepcuts,
		catalog:   catalog,
		prefs:     prefs,
		flags:     fl,
		cfg:       cfg,
		health:    health,
		startTime: time.Now(),
	}
}

// respondScoringError maps scoring-core sentinel errors onto HTTP
// status codes.
func respondScoringError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recommend.ErrTrackNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "track not found", nil)
	case errors.Is(err, recommend.ErrMissingFeatures):
		respondError(w, http.StatusUnprocessableEntity, "MISSING_FEATURES", "track has no feature data", nil)
	case errors.Is(err, recommend.ErrCacheUnavailable):
		respondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "similarity store unavailable", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "TIMEOUT", "request cancelled or timed out", nil)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", err)
	}
}

// requireFlag writes a 503 envelope when the named feature flag is
// off. Returns true when the request may proceed.
func (h *Handler) requireFlag(w http.ResponseWriter, name string) bool {
	if h.flags.IsEnabled(name) {
		return true
	}
	respondError(w, http.StatusServiceUnavailable, "FEATURE_DISABLED",
		"the "+name+" feature is disabled", nil)
	return false
}
