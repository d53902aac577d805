// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package ingest

import (
	"strings"

	"github.com/channelpulse/channelpulse/internal/models"
)

// DetectMapping infers which CSV column holds which semantic field from the
// header row.
//
// Headers are lower-cased and trimmed, then each semantic field takes the
// index of the first header matching any of its known aliases. Detection is
// all-or-nothing: if even one of the six required fields has no matching
// header, DetectMapping returns nil rather than guessing, and the caller
// must fall back to the manual-mapping flow.
func DetectMapping(header []string) *models.ColumnMapping {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(cleanField(h))
	}

	indices := make(map[FieldKey]int, len(requiredFields))
	for _, field := range requiredFields {
		idx := matchField(normalized, headerAliases[field])
		if idx < 0 {
			return nil
		}
		indices[field] = idx
	}

	return &models.ColumnMapping{
		Source:          indices[FieldSource],
		Views:           indices[FieldViews],
		WatchTimeHours:  indices[FieldWatchTimeHours],
		AvgViewDuration: indices[FieldAvgViewDuration],
		Impressions:     indices[FieldImpressions],
		CTR:             indices[FieldCTR],
	}
}

// matchField returns the index of the first header equal to any alias, or -1.
func matchField(normalized []string, aliases []string) int {
	for i, h := range normalized {
		for _, alias := range aliases {
			if h == alias {
				return i
			}
		}
	}
	return -1
}
