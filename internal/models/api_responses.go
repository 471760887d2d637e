// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package models

import (
	"time"
)

// APIResponse is the standardized envelope used by all HTTP endpoints.
// It provides a consistent structure for successful and error
// responses, with metadata for observability and caching.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"results": [...]},
//	  "metadata": {
//	    "timestamp": "2026-08-30T12:00:00Z",
//	    "query_time_ms": 12,
//	    "cached": false
//	  }
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing and cache information.
//
// Cached responses report QueryTimeMS as 0 with Cached set; fresh
// computations report the actual scoring time.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError holds structured error details for failed requests.
//
// Codes used by the API:
//   - "VALIDATION_ERROR": request failed validation
//   - "NOT_FOUND": unknown track or user
//   - "MISSING_FEATURES": track has no feature data
//   - "INTERNAL_ERROR": unexpected failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
