// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into an http.Handler.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates a router. A nil middleware uses the defaults.
func NewRouter(handler *Handler, mw *Middleware) *Router {
	if mw == nil {
		mw = NewMiddleware(nil)
	}
	return &Router{handler: handler, middleware: mw}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	r.Get("/health", router.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(PrometheusMetrics)

		r.Get("/tracks/{id}/similar", router.handler.SimilarTracks)
		r.Post("/tracks/{id}/deepcuts", router.handler.DeepCuts)
		r.Post("/recommendations", router.handler.Recommendations)
		r.Post("/rerank", router.handler.Rerank)

		r.Get("/users/{id}/weights", router.handler.GetUserWeights)
		r.Put("/users/{id}/weights", router.handler.PutUserWeights)

		// Precompute walks the whole catalog; throttled separately.
		r.With(router.middleware.RateLimitCustom(RateLimitAdmin)).
			Post("/admin/precompute", router.handler.AdminPrecompute)
	})

	return r
}
