// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

// Package supervisor builds the suture supervision tree that runs
// Deepcue's long-lived components.
//
// The tree has two layers under the root:
//
//   - data: the precompute scheduler refreshing the similarity store
//   - api: the HTTP server
//
// A crash in the data layer restarts the scheduler without taking the
// API down; precomputed records already in the store keep serving.
// Supervisor events are logged through sutureslog bridged onto the
// application's zerolog logger.
package supervisor
