// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/channelpulse/channelpulse/internal/metrics"
)

// blobKeyPrefix namespaces blob keys within the shared BadgerDB.
const blobKeyPrefix = "blob:"

// BadgerStore is a Store and Writer backed by BadgerDB. It is the local
// object store for self-hosted deployments: the upload handler writes CSV
// bytes here and the snapshot loader reads them back.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a blob store over an open BadgerDB handle. The
// handle is shared with the snapshot registry; the store does not close it.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Fetch returns the blob at path, or ErrNotFound.
func (s *BadgerStore) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.BlobFetchDuration.Observe(time.Since(start).Seconds())
	}()

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(blobKeyPrefix + path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		if err != nil {
			return fmt.Errorf("get blob: %w", err)
		}

		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put stores data under path. Storage paths are immutable by contract, so
// writing the same path twice is rejected to protect cached parses from
// silent content changes.
func (s *BadgerStore) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(blobKeyPrefix + path)
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("blob already exists at %s", path)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check blob: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Delete removes the blob at path. Missing paths are a no-op.
func (s *BadgerStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(blobKeyPrefix + path))
	})
}
