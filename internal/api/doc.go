// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

// Package api provides the HTTP surface for the recommendation engine
// using the Chi router.
//
// Endpoints (all JSON, wrapped in the models.APIResponse envelope):
//
//	GET  /api/v1/tracks/{id}/similar     top-K similar tracks
//	POST /api/v1/recommendations         hybrid multi-source recommendations
//	POST /api/v1/tracks/{id}/deepcuts    deep cut discovery
//	POST /api/v1/rerank                  MMR diversity re-ranking
//	GET  /api/v1/users/{id}/weights      read persisted blend weights
//	PUT  /api/v1/users/{id}/weights      save blend weights
//	POST /api/v1/admin/precompute        run a similarity precompute batch
//	GET  /health                         liveness and readiness
//	GET  /metrics                        Prometheus metrics
//
// Middleware stack: request-ID with logging context, real IP, panic
// recovery, CORS (go-chi/cors), per-IP rate limiting (go-chi/httprate)
// and Prometheus request timing.
package api
