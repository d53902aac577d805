// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/channelpulse/channelpulse/internal/models"
)

// Key prefix for BadgerDB storage
const snapshotKeyPrefix = "snapshot:"

// ErrSnapshotNotFound is returned when a snapshot does not exist in the registry.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Registry stores snapshot metadata per video.
type Registry interface {
	// Put stores or replaces a snapshot record.
	Put(ctx context.Context, snap *models.Snapshot) error

	// Get retrieves one snapshot, or ErrSnapshotNotFound.
	Get(ctx context.Context, videoID, id string) (*models.Snapshot, error)

	// ListByVideo returns all snapshots for a video sorted by timestamp
	// ascending. A video with no snapshots yields an empty slice, not an
	// error.
	ListByVideo(ctx context.Context, videoID string) ([]models.Snapshot, error)

	// SetMapping records a manual column mapping on an existing snapshot.
	SetMapping(ctx context.Context, videoID, id string, mapping models.ColumnMapping) error

	// Delete removes a snapshot record. Deleting a missing snapshot
	// returns ErrSnapshotNotFound.
	Delete(ctx context.Context, videoID, id string) error
}

// BadgerRegistry implements Registry using BadgerDB for durable storage.
// Snapshots are keyed "snapshot:{videoID}:{id}" so a per-video listing is a
// single prefix scan.
type BadgerRegistry struct {
	db *badger.DB
}

// NewBadgerRegistry creates a new BadgerDB-backed snapshot registry.
func NewBadgerRegistry(db *badger.DB) *BadgerRegistry {
	return &BadgerRegistry{db: db}
}

func snapshotKey(videoID, id string) []byte {
	return []byte(snapshotKeyPrefix + videoID + ":" + id)
}

// Put stores or replaces a snapshot record.
func (r *BadgerRegistry) Put(ctx context.Context, snap *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(snap.VideoID, snap.ID), data)
	})
}

// Get retrieves a snapshot by video and snapshot ID.
func (r *BadgerRegistry) Get(ctx context.Context, videoID, id string) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snap models.Snapshot
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(videoID, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSnapshotNotFound
		}
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListByVideo returns all snapshots for a video sorted by timestamp ascending.
func (r *BadgerRegistry) ListByVideo(ctx context.Context, videoID string) ([]models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshots := []models.Snapshot{}
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(snapshotKeyPrefix + videoID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var snap models.Snapshot
				if err := json.Unmarshal(val, &snap); err != nil {
					return fmt.Errorf("unmarshal snapshot: %w", err)
				}
				snapshots = append(snapshots, snap)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Key order is lexicographic by ID; comparisons need chronological order.
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.Before(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

// SetMapping records a manual column mapping on an existing snapshot.
func (r *BadgerRegistry) SetMapping(ctx context.Context, videoID, id string, mapping models.ColumnMapping) error {
	snap, err := r.Get(ctx, videoID, id)
	if err != nil {
		return err
	}

	snap.Mapping = &mapping
	return r.Put(ctx, snap)
}

// Delete removes a snapshot record.
func (r *BadgerRegistry) Delete(ctx context.Context, videoID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(txn *badger.Txn) error {
		key := snapshotKey(videoID, id)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSnapshotNotFound
		} else if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}
		return txn.Delete(key)
	})
}
