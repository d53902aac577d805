// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package services

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/channelpulse/channelpulse/internal/logging"
)

// BadgerGCService periodically runs BadgerDB value-log garbage collection.
// Deleted export blobs only reclaim disk space when the value log is
// rewritten, so the loop keeps storage bounded on long-running instances.
type BadgerGCService struct {
	db       *badger.DB
	interval time.Duration
	name     string
}

// NewBadgerGCService creates the GC loop. Intervals under a minute are
// raised to a minute; value-log rewrites are not free.
func NewBadgerGCService(db *badger.DB, interval time.Duration) *BadgerGCService {
	if interval < time.Minute {
		interval = time.Minute
	}
	return &BadgerGCService{
		db:       db,
		interval: interval,
		name:     "badger-gc",
	}
}

// Serve implements suture.Service.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.collect()
		}
	}
}

// collect runs GC rounds until badger reports nothing left to rewrite.
func (s *BadgerGCService) collect() {
	start := time.Now()
	rounds := 0
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			logging.Warn().Err(err).Msg("Badger value-log GC failed")
			return
		}
		rounds++
	}
	if rounds > 0 {
		logging.Debug().
			Int("rounds", rounds).
			Dur("elapsed", time.Since(start)).
			Msg("Badger value-log GC completed")
	}
}

// String identifies the service in suture's event log.
func (s *BadgerGCService) String() string {
	return s.name
}
