// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

// Package services wraps Deepcue's long-running components as
// suture.Service implementations.
//
// Each wrapper translates a component's own lifecycle (a blocking
// ListenAndServe, a ticker loop) into suture's context-aware Serve
// contract, so the supervisor tree can restart it independently.
package services
