// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

// Package storage persists precomputed similarity records in BadgerDB.
// Records are stored under both pair directions so a single prefix
// scan serves all records for a track.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/mellowhen/deepcue/internal/metrics"
	"github.com/mellowhen/deepcue/internal/models"
	"github.com/mellowhen/deepcue/internal/recommend"
)

// Key layout for BadgerDB storage
const simKeyPrefix = "sim:"

// BadgerSimilarityStore implements recommend.SimilarityStore using
// BadgerDB for durable storage. Suitable for production use with
// persistence across restarts.
type BadgerSimilarityStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerSimilarityStore creates a new BadgerDB-backed similarity
// store. A non-zero ttl expires records so stale similarities age out
// between precompute runs.
func NewBadgerSimilarityStore(db *badger.DB, ttl time.Duration) *BadgerSimilarityStore {
	return &BadgerSimilarityStore{db: db, ttl: ttl}
}

func simKey(a, b string) []byte {
	return []byte(simKeyPrefix + a + ":" + b)
}

// Put stores a record under both pair directions. Re-putting the same
// pair overwrites.
func (s *BadgerSimilarityStore) Put(ctx context.Context, rec models.SimilarityRecord) error {
	forward, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	reversed, err := json.Marshal(rec.Reversed())
	if err != nil {
		return fmt.Errorf("marshal reversed record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		fwd := badger.NewEntry(simKey(rec.TrackA, rec.TrackB), forward)
		rev := badger.NewEntry(simKey(rec.TrackB, rec.TrackA), reversed)
		if s.ttl > 0 {
			fwd = fwd.WithTTL(s.ttl)
			rev = rev.WithTTL(s.ttl)
		}
		if err := txn.SetEntry(fwd); err != nil {
			return fmt.Errorf("set record: %w", err)
		}
		if err := txn.SetEntry(rev); err != nil {
			return fmt.Errorf("set reversed record: %w", err)
		}
		return nil
	})
	metrics.RecordStoreOperation("put", err)
	return err
}

// Get retrieves the record for a pair, or nil when absent.
func (s *BadgerSimilarityStore) Get(ctx context.Context, trackA, trackB string) (*models.SimilarityRecord, error) {
	var rec models.SimilarityRecord
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(simKey(trackA, trackB))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	metrics.RecordStoreOperation("get", err)

	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &rec, nil
}

// AllFor returns up to limit records involving the given track.
func (s *BadgerSimilarityStore) AllFor(ctx context.Context, trackID string, limit int) ([]models.SimilarityRecord, error) {
	var records []models.SimilarityRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(simKeyPrefix + trackID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(records) >= limit {
				break
			}
			var rec models.SimilarityRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	metrics.RecordStoreOperation("scan", err)

	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records, both directions
// included.
func (s *BadgerSimilarityStore) Count(ctx context.Context) (int, error) {
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(simKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// DeleteFor removes all records involving the given track, both
// directions. Returns the number of records deleted.
func (s *BadgerSimilarityStore) DeleteFor(ctx context.Context, trackID string) (int, error) {
	var keys [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(simKeyPrefix + trackID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))

			var rec models.SimilarityRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				continue
			}
			keys = append(keys, simKey(rec.TrackB, rec.TrackA))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan records: %w", err)
	}

	count := 0
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete record: %w", err)
			}
			count++
		}
		return nil
	})
	return count, err
}

var _ recommend.SimilarityStore = (*BadgerSimilarityStore)(nil)
