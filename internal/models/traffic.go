// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TotalSourceName is the reserved source name for the aggregate row in a
// traffic-source export. Matching is case-insensitive.
const TotalSourceName = "Total"

// TrafficMetric is one row of traffic-source data within a single snapshot.
//
// Source is the join key for period-over-period comparison and is unique
// within a snapshot's metric list. AvgViewDuration is kept as the exported
// display string (H:MM:SS or MM:SS); use ParseClockDuration when a numeric
// comparison is needed.
type TrafficMetric struct {
	Source          string  `json:"source"`
	Views           int64   `json:"views"`
	Impressions     int64   `json:"impressions"`
	WatchTimeHours  float64 `json:"watch_time_hours"`
	AvgViewDuration string  `json:"avg_view_duration"`
	CTR             float64 `json:"ctr"`
}

// IsTotal reports whether this metric is the aggregate "Total" row.
func (m *TrafficMetric) IsTotal() bool {
	return strings.EqualFold(strings.TrimSpace(m.Source), TotalSourceName)
}

// DeltaFields holds the period-over-period differences for one traffic source.
//
// Absolute deltas are always present once a comparison ran. Percentage deltas
// are pointers because they can be undefined: when the previous value was 0
// and the current value is positive there is no meaningful percentage, and
// the field stays nil. Callers must render nil as "n/a", never as 0 or Inf.
type DeltaFields struct {
	Views          int64   `json:"views"`
	Impressions    int64   `json:"impressions"`
	CTR            float64 `json:"ctr"`
	WatchTimeHours float64 `json:"watch_time_hours"`

	PctViews          *float64 `json:"pct_views,omitempty"`
	PctImpressions    *float64 `json:"pct_impressions,omitempty"`
	PctWatchTimeHours *float64 `json:"pct_watch_time_hours,omitempty"`
}

// DeltaMetric is a TrafficMetric optionally enriched with comparison data.
//
// Delta is nil for a source that has no counterpart in the previous snapshot
// (a new source) and for every metric produced outside of delta mode. A plain
// parsed snapshot never carries delta fields.
type DeltaMetric struct {
	TrafficMetric
	Delta *DeltaFields `json:"delta,omitempty"`
}

// ColumnMapping associates the six semantic traffic fields with zero-based
// column indices in one specific CSV export. Header order varies per export,
// so a mapping is only valid for the file it was derived from.
type ColumnMapping struct {
	Source          int `json:"source" koanf:"source" validate:"gte=0"`
	Views           int `json:"views" koanf:"views" validate:"gte=0"`
	WatchTimeHours  int `json:"watch_time_hours" koanf:"watch_time_hours" validate:"gte=0"`
	AvgViewDuration int `json:"avg_view_duration" koanf:"avg_view_duration" validate:"gte=0"`
	Impressions     int `json:"impressions" koanf:"impressions" validate:"gte=0"`
	CTR             int `json:"ctr" koanf:"ctr" validate:"gte=0"`
}

// DefaultColumnMapping returns the positional fallback mapping (columns 0-5)
// that the manual-mapping UI pre-selects before the user adjusts it.
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		Source:          0,
		Views:           1,
		WatchTimeHours:  2,
		AvgViewDuration: 3,
		Impressions:     4,
		CTR:             5,
	}
}

// Columns returns the six indices in semantic field order.
func (c ColumnMapping) Columns() [6]int {
	return [6]int{c.Source, c.Views, c.WatchTimeHours, c.AvgViewDuration, c.Impressions, c.CTR}
}

// ValidateDistinct checks that no column index is assigned to more than one
// field. Distinctness holds regardless of header width, so callers that
// cannot measure the header row still enforce it.
func (c ColumnMapping) ValidateDistinct() error {
	seen := make(map[int]bool, 6)
	for _, idx := range c.Columns() {
		if seen[idx] {
			return fmt.Errorf("column index %d assigned to more than one field", idx)
		}
		seen[idx] = true
	}
	return nil
}

// Validate checks that the mapping references six distinct indices, all
// within the width of the header row it was derived from.
func (c ColumnMapping) Validate(headerWidth int) error {
	for _, idx := range c.Columns() {
		if idx < 0 || idx >= headerWidth {
			return fmt.Errorf("column index %d out of range for %d-column header", idx, headerWidth)
		}
	}
	return c.ValidateDistinct()
}

// ParseClockDuration parses an average-view-duration display string in
// H:MM:SS or MM:SS form. Exports never include fractional seconds.
func ParseClockDuration(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration %q: expected MM:SS or H:MM:SS", s)
	}

	var total int64
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration component %q in %q", p, s)
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, nil
}
