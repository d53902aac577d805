// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

// Package view assembles the traffic view for one snapshot: it picks the
// comparison baseline, drives the loader, and runs the delta calculator.
package view

import (
	"context"
	"errors"
	"sort"

	"github.com/channelpulse/channelpulse/internal/delta"
	"github.com/channelpulse/channelpulse/internal/logging"
	"github.com/channelpulse/channelpulse/internal/models"
)

// ErrSnapshotNotInSet is returned when the selected snapshot ID is not among
// the snapshots passed to Resolve.
var ErrSnapshotNotInSet = errors.New("selected snapshot not in snapshot set")

// ResultLoader loads the parsed traffic result for a snapshot. Satisfied by
// snapshot.Loader.
type ResultLoader interface {
	Load(ctx context.Context, snap models.Snapshot) (*models.ParsedSnapshotResult, bool, error)
}

// Orchestrator builds traffic views from snapshot sets.
type Orchestrator struct {
	loader ResultLoader
}

// NewOrchestrator creates an orchestrator over loader.
func NewOrchestrator(loader ResultLoader) *Orchestrator {
	return &Orchestrator{loader: loader}
}

// Resolve assembles the traffic view for the selected snapshot.
//
// Snapshots are ordered by timestamp ascending and the comparison baseline
// is the immediate predecessor of the selection in that order, regardless of
// the order snapshots were recorded. The earliest snapshot has no baseline,
// so delta mode is unavailable for it and the view falls back to cumulative.
// A baseline that fails to load also degrades the view to cumulative rather
// than failing: stale totals beat an error page. Only a failure to load the
// selected snapshot itself is an error.
//
// The bool reports whether the selected snapshot's result came from cache.
// Cancelling ctx abandons any in-progress loads and returns ctx.Err(); a
// superseded view is discarded, never returned.
func (o *Orchestrator) Resolve(ctx context.Context, snapshots []models.Snapshot, selectedID string, mode models.ViewMode) (*models.TrafficViewResponse, bool, error) {
	ordered := sortByTimestamp(snapshots)

	idx := -1
	for i := range ordered {
		if ordered[i].ID == selectedID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false, ErrSnapshotNotInSet
	}

	selected := ordered[idx]
	deltaAvailable := idx > 0

	current, cached, err := o.loader.Load(ctx, selected)
	if err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	resp := &models.TrafficViewResponse{
		SnapshotID:     selected.ID,
		Mode:           models.ViewCumulative,
		DeltaAvailable: deltaAvailable,
		Status:         current.Status,
	}

	if mode == models.ViewDelta && deltaAvailable {
		baseline := ordered[idx-1]
		previous, _, err := o.loader.Load(ctx, baseline)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, false, ctxErr
			}
			logging.Warn().
				Err(err).
				Str("snapshot_id", selected.ID).
				Str("baseline_id", baseline.ID).
				Msg("Baseline load failed, degrading to cumulative view")
		} else {
			resp.Mode = models.ViewDelta
			resp.Metrics = delta.Compute(current.Metrics, previous.Metrics)
			if current.TotalRow != nil {
				var total models.DeltaMetric
				if previous.TotalRow != nil {
					total = delta.ComputeTotal(*current.TotalRow, *previous.TotalRow)
				} else {
					total = models.DeltaMetric{TrafficMetric: *current.TotalRow}
				}
				resp.TotalRow = &total
			}
			return resp, cached, nil
		}
	}

	resp.Metrics = cumulative(current.Metrics)
	if current.TotalRow != nil {
		resp.TotalRow = &models.DeltaMetric{TrafficMetric: *current.TotalRow}
	}
	return resp, cached, nil
}

// Summaries builds the snapshot-list entries for a video. The input order
// does not matter; entries come back timestamp-ascending with the delta
// gate set on every snapshot but the earliest.
func Summaries(snapshots []models.Snapshot) []models.SnapshotSummary {
	ordered := sortByTimestamp(snapshots)
	summaries := make([]models.SnapshotSummary, 0, len(ordered))
	for i, snap := range ordered {
		summaries = append(summaries, models.SnapshotSummary{
			ID:             snap.ID,
			Timestamp:      snap.Timestamp,
			Label:          snap.Label,
			Uploaded:       snap.StoragePath != "",
			DeltaAvailable: i > 0,
		})
	}
	return summaries
}

func sortByTimestamp(snapshots []models.Snapshot) []models.Snapshot {
	ordered := make([]models.Snapshot, len(snapshots))
	copy(ordered, snapshots)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})
	return ordered
}

func cumulative(metrics []models.TrafficMetric) []models.DeltaMetric {
	out := make([]models.DeltaMetric, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, models.DeltaMetric{TrafficMetric: m})
	}
	return out
}
