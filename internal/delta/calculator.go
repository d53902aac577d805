// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

// Package delta computes period-over-period differences between two parsed
// snapshots. Compute and ComputeTotal are pure: no I/O, no mutation of
// inputs, and by construction they never fail - they only operate on
// already-validated metric lists.
package delta

import (
	"math"

	"github.com/channelpulse/channelpulse/internal/models"
)

// Compute enriches each current metric with differences against its
// counterpart in the previous snapshot, matched by source name.
//
// A current metric with no previous counterpart is returned unchanged with a
// nil Delta: it is a new source, not a divide-by-zero case. Sources that
// existed previously but disappeared from the current snapshot are not
// reported.
func Compute(current, previous []models.TrafficMetric) []models.DeltaMetric {
	prevBySource := make(map[string]models.TrafficMetric, len(previous))
	for _, p := range previous {
		if _, ok := prevBySource[p.Source]; !ok {
			prevBySource[p.Source] = p
		}
	}

	out := make([]models.DeltaMetric, len(current))
	for i, cur := range current {
		prev, ok := prevBySource[cur.Source]
		if !ok {
			out[i] = models.DeltaMetric{TrafficMetric: cur}
			continue
		}
		out[i] = ComputeTotal(cur, prev)
	}
	return out
}

// ComputeTotal computes the delta between a single pair of metrics. Despite
// the name it works for any matched pair; the total row is simply the one
// place a single-pair comparison is needed directly.
//
// Numeric semantics:
//
//   - absolute delta = current - previous; exact for integer fields,
//     rounded to 2 decimal places for ctr and watch-time hours
//   - percentage delta = (current - previous) / |previous| * 100, rounded
//     to 1 decimal place
//   - previous == 0 and current > 0: the percentage is undefined and the
//     pointer stays nil - callers show the absolute delta only
//   - previous == 0 and current == 0: the percentage is exactly 0
func ComputeTotal(current, previous models.TrafficMetric) models.DeltaMetric {
	d := &models.DeltaFields{
		Views:          current.Views - previous.Views,
		Impressions:    current.Impressions - previous.Impressions,
		CTR:            round2(current.CTR - previous.CTR),
		WatchTimeHours: round2(current.WatchTimeHours - previous.WatchTimeHours),

		PctViews:          pctChange(float64(current.Views), float64(previous.Views)),
		PctImpressions:    pctChange(float64(current.Impressions), float64(previous.Impressions)),
		PctWatchTimeHours: pctChange(current.WatchTimeHours, previous.WatchTimeHours),
	}

	return models.DeltaMetric{TrafficMetric: current, Delta: d}
}

// pctChange returns the signed percentage change rounded to 1 decimal place,
// nil when the change is undefined (previous was 0 and current is not).
func pctChange(current, previous float64) *float64 {
	if previous == 0 {
		if current == 0 {
			zero := 0.0
			return &zero
		}
		return nil
	}
	pct := round1((current - previous) / math.Abs(previous) * 100)
	return &pct
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
