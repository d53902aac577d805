// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package snapshot

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/channelpulse/channelpulse/internal/blob"
	"github.com/channelpulse/channelpulse/internal/ingest"
	"github.com/channelpulse/channelpulse/internal/logging"
	"github.com/channelpulse/channelpulse/internal/metrics"
	"github.com/channelpulse/channelpulse/internal/models"
)

// inflightLoad tracks one in-progress fetch+parse so concurrent loads of
// the same storage path share a single result.
type inflightLoad struct {
	done   chan struct{}
	result *models.ParsedSnapshotResult
	err    error
}

// Loader resolves a snapshot record into its parsed traffic metrics.
//
// Results are cached by storage path. Export objects are immutable once
// written, so a cached result never goes stale; the only invalidation path
// is a manual column mapping override, which the caller signals through
// Invalidate.
type Loader struct {
	store   blob.Store
	cache   *Cache
	limiter *rate.Limiter

	mu       sync.Mutex
	inflight map[string]*inflightLoad
}

// NewLoader creates a loader over store with the given cache bound and
// fetch rate limit. A nil limiter disables throttling.
func NewLoader(store blob.Store, cacheSize int, limiter *rate.Limiter) *Loader {
	return &Loader{
		store:    store,
		cache:    NewCache(cacheSize),
		limiter:  limiter,
		inflight: make(map[string]*inflightLoad),
	}
}

// Cache exposes the loader's result cache, primarily for stats reporting.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Load fetches and parses the export behind snap. The bool reports whether
// the result was served from cache.
//
// A snapshot with no storage path has no export yet and yields an empty
// awaiting-upload result. A storage path whose object is gone yields an
// empty missing result; neither empty result is cached, so a late upload
// becomes visible on the next load. Fetch and parse failures propagate and
// are likewise never cached.
func (l *Loader) Load(ctx context.Context, snap models.Snapshot) (*models.ParsedSnapshotResult, bool, error) {
	if snap.StoragePath == "" {
		return models.EmptyResult(models.ResultAwaitingUpload), false, nil
	}

	if result, ok := l.cache.Get(snap.StoragePath); ok {
		return result, true, nil
	}

	l.mu.Lock()
	if call, ok := l.inflight[snap.StoragePath]; ok {
		l.mu.Unlock()
		metrics.SnapshotLoadsCoalesced.Inc()
		select {
		case <-call.done:
			return call.result, false, call.err
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	call := &inflightLoad{done: make(chan struct{})}
	l.inflight[snap.StoragePath] = call
	l.mu.Unlock()

	call.result, call.err = l.load(ctx, snap)
	close(call.done)

	l.mu.Lock()
	delete(l.inflight, snap.StoragePath)
	l.mu.Unlock()

	return call.result, false, call.err
}

func (l *Loader) load(ctx context.Context, snap models.Snapshot) (*models.ParsedSnapshotResult, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	data, err := l.store.Fetch(ctx, snap.StoragePath)
	if errors.Is(err, blob.ErrNotFound) {
		logging.Warn().
			Str("snapshot_id", snap.ID).
			Str("storage_path", snap.StoragePath).
			Msg("Snapshot export object missing from storage")
		return models.EmptyResult(models.ResultMissing), nil
	}
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := ingest.ParseExport(data, snap.Mapping)
	if err != nil {
		metrics.RecordParse(time.Since(start), parseFailureReason(err))
		return nil, err
	}
	metrics.RecordParse(time.Since(start), "")

	l.cache.Put(snap.StoragePath, result)
	return result, nil
}

// Fetch retrieves the raw export bytes behind path, subject to the same
// rate limit as Load. Callers that need unparsed bytes (header inspection
// for manual mappings) go through here so fetch throttling stays in one
// place.
func (l *Loader) Fetch(ctx context.Context, path string) ([]byte, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return l.store.Fetch(ctx, path)
}

// Invalidate drops the cached result for path so the next load re-parses.
func (l *Loader) Invalidate(path string) {
	l.cache.Invalidate(path)
}

func parseFailureReason(err error) string {
	switch {
	case errors.Is(err, ingest.ErrMappingRequired):
		return "mapping_required"
	case errors.Is(err, ingest.ErrNoData):
		return "no_data"
	default:
		return "parse_error"
	}
}
