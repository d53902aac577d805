// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package snapshot

import (
	"sync"

	"github.com/channelpulse/channelpulse/internal/metrics"
	"github.com/channelpulse/channelpulse/internal/models"
)

// DefaultCacheSize is the default bound on cached parsed snapshots.
const DefaultCacheSize = 20

// Cache is a bounded, thread-safe map of storage path to parsed snapshot
// result with insertion-order (FIFO) eviction.
//
// Storage paths are immutable, so entries never expire; the bound alone
// limits memory. Eviction is deliberately FIFO rather than LRU: snapshots
// are browsed roughly chronologically, and predictable eviction of the
// oldest insert keeps the behavior easy to reason about when verifying the
// "at most one fetch per path" property.
//
// Cached results are shared pointers and must never be mutated after
// insertion.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*models.ParsedSnapshotResult
	order   []string
	bound   int
	stats   CacheStats
}

// CacheStats tracks cache performance counters.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// NewCache creates a cache bounded to maxEntries parsed results. A bound of
// 0 or less falls back to DefaultCacheSize.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}
	return &Cache{
		entries: make(map[string]*models.ParsedSnapshotResult, maxEntries),
		order:   make([]string, 0, maxEntries),
		bound:   maxEntries,
	}
}

// Get returns the cached result for path, if present.
func (c *Cache) Get(path string) (*models.ParsedSnapshotResult, bool) {
	c.mu.Lock()
	result, ok := c.entries[path]
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	c.mu.Unlock()

	if ok {
		metrics.SnapshotCacheHits.Inc()
	} else {
		metrics.SnapshotCacheMisses.Inc()
	}
	return result, ok
}

// Put inserts a parsed result under path, evicting the oldest inserted
// entry when the bound is exceeded. Re-inserting an existing path is a
// no-op: the path's content is immutable, so the first parse is already
// correct.
func (c *Cache) Put(path string, result *models.ParsedSnapshotResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[path]; exists {
		return
	}

	if len(c.order) >= c.bound {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		c.stats.Evictions++
		metrics.SnapshotCacheEvictions.Inc()
	}

	c.entries[path] = result
	c.order = append(c.order, path)
	metrics.SnapshotCacheEntries.Set(float64(len(c.entries)))
}

// Invalidate removes the entry for path, if present. Used when a manual
// column mapping is recorded for an already-parsed snapshot so the next
// view re-parses with the new mapping.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[path]; !ok {
		return
	}
	delete(c.entries, path)
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	metrics.SnapshotCacheEntries.Set(float64(len(c.entries)))
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a copy of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
