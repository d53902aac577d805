// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package ingest

import "errors"

// Sentinel errors exposed to the API layer.
var (
	// ErrMappingRequired indicates column auto-detection failed and the
	// caller must obtain an explicit ColumnMapping from the user before
	// the file can be parsed.
	ErrMappingRequired = errors.New("column mapping required")

	// ErrNoData indicates the file parsed but contained no usable data
	// rows after removing the Total row.
	ErrNoData = errors.New("no data rows in export")
)

// MappingRequiredError carries the context the manual-mapping UI needs to
// prompt the user: the raw header row and, when available, the first data
// row as a preview. It unwraps to ErrMappingRequired.
type MappingRequiredError struct {
	Header  []string
	Preview []string
}

func (e *MappingRequiredError) Error() string {
	return "column mapping required: header did not match any known export format"
}

// Unwrap lets errors.Is(err, ErrMappingRequired) match.
func (e *MappingRequiredError) Unwrap() error {
	return ErrMappingRequired
}
