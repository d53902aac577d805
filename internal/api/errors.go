// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package api

// API error codes returned in the error envelope.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeMappingRequired  = "MAPPING_REQUIRED"
	ErrCodeNoData           = "NO_DATA"
	ErrCodeSnapshotNotFound = "SNAPSHOT_NOT_FOUND"
	ErrCodeFetchFailed      = "FETCH_FAILED"
	ErrCodeUploadFailed     = "UPLOAD_FAILED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)
