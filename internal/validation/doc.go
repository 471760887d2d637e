// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

// Package validation provides struct validation using
// go-playground/validator v10.
//
// It wraps the library in a thread-safe singleton with human-readable
// error translation and conversion to the API error envelope.
//
// Example:
//
//	type RecommendRequest struct {
//	    UserID string  `validate:"required"`
//	    Limit  int     `validate:"gte=0,lte=100"`
//	    Lambda float64 `validate:"gte=0,lte=1"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message)
//	    return
//	}
package validation
