// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

// Package blob provides the byte source for snapshot CSV payloads.
//
// A Store maps opaque storage paths to immutable byte blobs. Two
// implementations exist: BadgerStore keeps blobs in the local BadgerDB (the
// default for self-hosted deployments, also the write side of the upload
// endpoint) and HTTPStore fetches from a remote object store over HTTP
// behind a circuit breaker.
//
// Both implementations distinguish "object does not exist" (ErrNotFound)
// from transport or permission failures, because the snapshot loader treats
// the former as a stale snapshot with an empty result and propagates the
// latter.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound indicates the storage path has no object behind it.
var ErrNotFound = errors.New("blob not found")

// Store is a content-addressed byte source. Paths are opaque and immutable:
// the bytes behind a path never change once written.
type Store interface {
	// Fetch returns the blob stored at path, or ErrNotFound (possibly
	// wrapped) when no object exists there.
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// Writer is the optional write side of a Store. The upload endpoint needs
// it; remote read-only stores do not implement it.
type Writer interface {
	// Put stores data under path. Paths are write-once; Put never
	// overwrites an existing object with different bytes.
	Put(ctx context.Context, path string, data []byte) error

	// Delete removes the blob at path. Deleting a missing path is not an
	// error.
	Delete(ctx context.Context, path string) error
}
