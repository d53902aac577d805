// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package models

import (
	"fmt"
	"time"
)

// Snapshot is an immutable reference to one uploaded traffic-source export.
//
// Timestamp is the upload time and the ordering key for period-over-period
// comparison. StoragePath is the opaque key under which the raw CSV bytes
// live in the byte source; two snapshots with different paths have different
// content by definition, and one path never changes content once written,
// which is what makes parsed results safely cacheable forever.
//
// Mapping, when set, is the user-supplied column mapping recorded after
// auto-detection failed for this export. It overrides detection on every
// subsequent parse of the snapshot.
type Snapshot struct {
	ID          string         `json:"id"`
	VideoID     string         `json:"video_id"`
	Timestamp   time.Time      `json:"timestamp"`
	Label       string         `json:"label,omitempty"`
	StoragePath string         `json:"storage_path,omitempty"`
	Mapping     *ColumnMapping `json:"mapping,omitempty"`
}

// ResultStatus qualifies an otherwise empty ParsedSnapshotResult so callers
// can tell "the export really had no per-source rows" apart from "the data
// was never there to parse".
type ResultStatus string

const (
	// ResultOK means the snapshot's bytes were fetched and parsed.
	ResultOK ResultStatus = "ok"

	// ResultAwaitingUpload means the snapshot record has no storage path:
	// the CSV upload that created it never completed.
	ResultAwaitingUpload ResultStatus = "awaiting_upload"

	// ResultMissing means the byte source reported the storage path as
	// not found. The snapshot is stale or its upload was lost.
	ResultMissing ResultStatus = "missing"
)

// ParsedSnapshotResult is the parsed form of one snapshot's CSV bytes.
//
// Metrics never contains the aggregate "Total" row; that row, when present
// in the export, is carried separately in TotalRow. Cached instances are
// never mutated after insertion.
type ParsedSnapshotResult struct {
	Metrics  []TrafficMetric `json:"metrics"`
	TotalRow *TrafficMetric  `json:"total_row,omitempty"`
	Status   ResultStatus    `json:"status"`
}

// EmptyResult returns a result with no metrics and the given status.
func EmptyResult(status ResultStatus) *ParsedSnapshotResult {
	return &ParsedSnapshotResult{
		Metrics: []TrafficMetric{},
		Status:  status,
	}
}

// ViewMode selects how a snapshot's metrics are presented.
type ViewMode string

const (
	// ViewCumulative shows the snapshot's metrics as exported.
	ViewCumulative ViewMode = "cumulative"

	// ViewDelta enriches the metrics with differences against the
	// immediately preceding snapshot.
	ViewDelta ViewMode = "delta"
)

// ParseViewMode validates a mode string from the API. An empty string
// defaults to cumulative.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case "", ViewCumulative:
		return ViewCumulative, nil
	case ViewDelta:
		return ViewDelta, nil
	default:
		return "", fmt.Errorf("unknown view mode %q", s)
	}
}
