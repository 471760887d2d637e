// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package api

import (
	"net/http"
	"time"
)

// healthResponse is the data payload for GET /health.
type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Database      string `json:"database,omitempty"`
}

// Health handles GET /health. It reports degraded with a 503 when the
// database does not answer a ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	status := http.StatusOK
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	respondJSON(w, status, successEnvelope(resp))
}
