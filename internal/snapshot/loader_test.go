// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/channelpulse/channelpulse/internal/blob"
	"github.com/channelpulse/channelpulse/internal/ingest"
	"github.com/channelpulse/channelpulse/internal/models"
)

const testExport = "Traffic source,Views,Watch time (hours),Average view duration,Impressions,Impressions click-through rate\n" +
	"Total,1000,50.5,3:02,20000,5.0\n" +
	"Browse features,400,20.1,3:00,8000,5.0\n" +
	"Suggested videos,600,30.4,3:03,12000,5.0\n"

// fakeStore is a blob.Store with canned responses and a fetch counter.
type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	err     error
	delay   time.Duration
	fetches int
}

func (s *fakeStore) Fetch(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	s.fetches++
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	data, ok := s.data[path]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return data, nil
}

func (s *fakeStore) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func TestLoaderAwaitingUpload(t *testing.T) {
	store := &fakeStore{}
	loader := NewLoader(store, 0, nil)

	result, cached, err := loader.Load(context.Background(), models.Snapshot{ID: "snap-1"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cached {
		t.Error("Expected uncached result for pathless snapshot")
	}
	if result.Status != models.ResultAwaitingUpload {
		t.Errorf("Expected awaiting_upload status, got %q", result.Status)
	}
	if len(result.Metrics) != 0 {
		t.Errorf("Expected no metrics, got %d", len(result.Metrics))
	}
	if store.fetchCount() != 0 {
		t.Errorf("Expected no fetch for pathless snapshot, got %d", store.fetchCount())
	}
}

func TestLoaderCachesParsedResult(t *testing.T) {
	store := &fakeStore{data: map[string][]byte{"exports/a.csv": []byte(testExport)}}
	loader := NewLoader(store, 0, nil)
	snap := models.Snapshot{ID: "snap-1", StoragePath: "exports/a.csv"}

	result, cached, err := loader.Load(context.Background(), snap)
	if err != nil {
		t.Fatalf("First load failed: %v", err)
	}
	if cached {
		t.Error("Expected first load to be uncached")
	}
	if result.Status != models.ResultOK {
		t.Errorf("Expected ok status, got %q", result.Status)
	}
	if len(result.Metrics) != 2 || result.TotalRow == nil {
		t.Fatalf("Expected 2 metrics plus total row, got %d metrics", len(result.Metrics))
	}

	again, cached, err := loader.Load(context.Background(), snap)
	if err != nil {
		t.Fatalf("Second load failed: %v", err)
	}
	if !cached {
		t.Error("Expected second load to hit the cache")
	}
	if again != result {
		t.Error("Expected cache to return the same result")
	}
	if store.fetchCount() != 1 {
		t.Errorf("Expected exactly 1 fetch, got %d", store.fetchCount())
	}
}

func TestLoaderMissingObjectNotCached(t *testing.T) {
	store := &fakeStore{data: map[string][]byte{}}
	loader := NewLoader(store, 0, nil)
	snap := models.Snapshot{ID: "snap-1", StoragePath: "exports/gone.csv"}

	result, _, err := loader.Load(context.Background(), snap)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if result.Status != models.ResultMissing {
		t.Errorf("Expected missing status, got %q", result.Status)
	}

	// Once the object shows up the next load must see it.
	store.mu.Lock()
	store.data["exports/gone.csv"] = []byte(testExport)
	store.mu.Unlock()

	result, _, err = loader.Load(context.Background(), snap)
	if err != nil {
		t.Fatalf("Load after upload failed: %v", err)
	}
	if result.Status != models.ResultOK {
		t.Errorf("Expected ok status after upload, got %q", result.Status)
	}
	if store.fetchCount() != 2 {
		t.Errorf("Expected 2 fetches, got %d", store.fetchCount())
	}
}

func TestLoaderParseFailureNotCached(t *testing.T) {
	unmappable := "colA,colB\nx,y\n"
	store := &fakeStore{data: map[string][]byte{"exports/bad.csv": []byte(unmappable)}}
	loader := NewLoader(store, 0, nil)
	snap := models.Snapshot{ID: "snap-1", StoragePath: "exports/bad.csv"}

	for i := 0; i < 2; i++ {
		_, _, err := loader.Load(context.Background(), snap)
		if !errors.Is(err, ingest.ErrMappingRequired) {
			t.Fatalf("Load %d: expected ErrMappingRequired, got %v", i, err)
		}
	}
	if store.fetchCount() != 2 {
		t.Errorf("Expected failed parses to bypass the cache, got %d fetches", store.fetchCount())
	}
}

func TestLoaderFetchErrorPropagates(t *testing.T) {
	wantErr := fmt.Errorf("storage backend down")
	store := &fakeStore{err: wantErr}
	loader := NewLoader(store, 0, nil)

	_, _, err := loader.Load(context.Background(), models.Snapshot{StoragePath: "exports/a.csv"})
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected fetch error to propagate, got %v", err)
	}
}

func TestLoaderCoalescesConcurrentLoads(t *testing.T) {
	store := &fakeStore{
		data:  map[string][]byte{"exports/a.csv": []byte(testExport)},
		delay: 50 * time.Millisecond,
	}
	loader := NewLoader(store, 0, nil)
	snap := models.Snapshot{ID: "snap-1", StoragePath: "exports/a.csv"}

	const workers = 8
	results := make([]*models.ParsedSnapshotResult, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = loader.Load(context.Background(), snap)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("Worker %d failed: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Error("Expected all workers to share one parsed result")
		}
	}
	if store.fetchCount() != 1 {
		t.Errorf("Expected concurrent loads to coalesce into 1 fetch, got %d", store.fetchCount())
	}
}

func TestLoaderInvalidateForcesRefetch(t *testing.T) {
	store := &fakeStore{data: map[string][]byte{"exports/a.csv": []byte(testExport)}}
	loader := NewLoader(store, 0, nil)
	snap := models.Snapshot{ID: "snap-1", StoragePath: "exports/a.csv"}

	if _, _, err := loader.Load(context.Background(), snap); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	loader.Invalidate("exports/a.csv")
	if _, _, err := loader.Load(context.Background(), snap); err != nil {
		t.Fatalf("Load after invalidate failed: %v", err)
	}
	if store.fetchCount() != 2 {
		t.Errorf("Expected refetch after invalidate, got %d fetches", store.fetchCount())
	}
}

func TestLoaderFetchSharesRateLimit(t *testing.T) {
	store := &fakeStore{data: map[string][]byte{"exports/a.csv": []byte(testExport)}}
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	loader := NewLoader(store, 0, limiter)

	data, err := loader.Fetch(context.Background(), "exports/a.csv")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(data) != testExport {
		t.Error("Expected raw export bytes")
	}

	// The burst is spent, so a second fetch must block until the
	// context gives up rather than reach the store.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := loader.Fetch(ctx, "exports/a.csv"); err == nil {
		t.Error("Expected second fetch to fail against the rate limit")
	}
	if store.fetchCount() != 1 {
		t.Errorf("Expected throttled fetch to stop before the store, got %d fetches", store.fetchCount())
	}
}
