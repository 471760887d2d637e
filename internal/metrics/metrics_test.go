// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package metrics

import (
	"errors"
	"testing"
	"time"
)

// These tests exercise the recording helpers; promauto panics on
// duplicate registration, so simply importing the package verifies the
// metric definitions are consistent.

func TestRecordScoring(t *testing.T) {
	RecordScoring("similar", 25*time.Millisecond, nil)
	RecordScoring("hybrid", 100*time.Millisecond, errors.New("catalog unavailable"))

	longErr := errors.New("this is a very long error message that should be truncated before becoming a label value")
	RecordScoring("deepcut", time.Millisecond, longErr)
}

func TestRecordAPIRequest(t *testing.T) {
	RecordAPIRequest("GET", "/api/v1/tracks/{id}/similar", "200", 15*time.Millisecond)
	RecordAPIRequest("POST", "/api/v1/recommendations", "500", 5*time.Millisecond)
}

func TestRecordCacheLookup(t *testing.T) {
	RecordCacheLookup("similar_tracks", true)
	RecordCacheLookup("similar_tracks", false)
}

func TestRecordPrecomputeBatch(t *testing.T) {
	RecordPrecomputeBatch(2*time.Second, 450, nil)
	RecordPrecomputeBatch(time.Second, 0, errors.New("batch failed"))
}

func TestRecordStoreOperation(t *testing.T) {
	RecordStoreOperation("get", nil)
	RecordStoreOperation("put", errors.New("breaker open"))
}

func TestTrackActiveRequest(t *testing.T) {
	TrackActiveRequest(true)
	TrackActiveRequest(false)
}
