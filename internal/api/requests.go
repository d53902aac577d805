// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package api

// UploadSnapshotRequest carries the query parameters of an export upload.
// The CSV itself is the request body.
type UploadSnapshotRequest struct {
	Label     string `validate:"max=120"`
	Timestamp string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// MappingRequest is the body of a manual column mapping submission.
type MappingRequest struct {
	Source          int `json:"source" validate:"gte=0,lte=63"`
	Views           int `json:"views" validate:"gte=0,lte=63"`
	WatchTimeHours  int `json:"watch_time_hours" validate:"gte=0,lte=63"`
	AvgViewDuration int `json:"avg_view_duration" validate:"gte=0,lte=63"`
	Impressions     int `json:"impressions" validate:"gte=0,lte=63"`
	CTR             int `json:"ctr" validate:"gte=0,lte=63"`
}

// TrafficViewRequest carries the query parameters of a traffic view.
type TrafficViewRequest struct {
	SnapshotID string `validate:"required"`
	Mode       string `validate:"omitempty,oneof=cumulative delta"`
}
