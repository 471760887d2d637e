// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

// Package models defines the shared data structures for the Deepcue
// recommendation engine: tracks and their audio feature vectors,
// precomputed similarity records, per-user recommendation weights,
// and the standardized API response envelope.
//
// The package has no internal dependencies so it can be imported from
// every layer (database, recommend, api) without cycles.
package models
