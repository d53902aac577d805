// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package models

import "time"

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints. Status is "success" or "error"; Error is populated only on
// error responses.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response observability fields: when the response was
// generated, how long the pipeline spent producing it, and whether the
// parsed snapshot came from cache.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is the structured error payload.
//
// Code is machine-readable ("MAPPING_REQUIRED", "NO_DATA", "FETCH_FAILED",
// "VALIDATION_ERROR", "SNAPSHOT_NOT_FOUND"); Message is human-readable.
// Details carries condition-specific context, e.g. the raw header row and a
// preview data row for MAPPING_REQUIRED so the manual-mapping UI can render
// its column picker.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// MappingRequiredDetails is the Details payload of a MAPPING_REQUIRED error.
type MappingRequiredDetails struct {
	Header  []string       `json:"header"`
	Preview []string       `json:"preview,omitempty"`
	Default *ColumnMapping `json:"default_mapping,omitempty"`
}

// SnapshotSummary is one entry of the snapshot-list endpoint. DeltaAvailable
// mirrors the orchestrator gate: false exactly when the snapshot is the
// earliest for its video, so the frontend can disable delta mode instead of
// silently showing cumulative data.
type SnapshotSummary struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Label          string    `json:"label,omitempty"`
	Uploaded       bool      `json:"uploaded"`
	DeltaAvailable bool      `json:"delta_available"`
}

// TrafficViewResponse is the assembled view for one snapshot in one mode.
type TrafficViewResponse struct {
	SnapshotID     string        `json:"snapshot_id"`
	Mode           ViewMode      `json:"mode"`
	DeltaAvailable bool          `json:"delta_available"`
	Status         ResultStatus  `json:"data_status"`
	Metrics        []DeltaMetric `json:"metrics"`
	TotalRow       *DeltaMetric  `json:"total_row,omitempty"`
}

// UploadResponse acknowledges a snapshot upload. MappingRequired is set
// when the export's header could not be auto-detected: the snapshot is
// stored anyway and the frontend should prompt for a manual mapping.
type UploadResponse struct {
	Snapshot        Snapshot                `json:"snapshot"`
	MappingRequired *MappingRequiredDetails `json:"mapping_required,omitempty"`
}
