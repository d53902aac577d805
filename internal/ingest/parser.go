// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package ingest

import (
	"strconv"
	"strings"

	"github.com/channelpulse/channelpulse/internal/logging"
	"github.com/channelpulse/channelpulse/internal/models"
)

// Parse converts decoded export lines into a ParsedSnapshotResult using the
// given column mapping.
//
// Row 0 is always the header and is never parsed as data. Data rows are
// handled tolerantly:
//
//   - rows decoding to fewer than 2 fields are skipped (blank/malformed)
//   - rows whose mapped source field is empty after trimming are skipped
//   - unparsable numeric cells default to 0; a bad cell never aborts the file
//
// The first row whose source equals "Total" (case-insensitive) becomes the
// TotalRow and is excluded from the per-source list; later Total rows are
// dropped. Returns ErrNoData when, after removing the Total row, no data
// rows remain.
func Parse(lines []string, mapping models.ColumnMapping) (*models.ParsedSnapshotResult, error) {
	result := &models.ParsedSnapshotResult{
		Metrics: []models.TrafficMetric{},
		Status:  models.ResultOK,
	}
	seen := make(map[string]bool)

	for i := 1; i < len(lines); i++ {
		fields := DecodeLine(lines[i])
		if len(fields) < 2 {
			continue
		}

		source := fieldAt(fields, mapping.Source)
		if source == "" {
			continue
		}

		metric := models.TrafficMetric{
			Source:          source,
			Views:           parseInt(fieldAt(fields, mapping.Views)),
			Impressions:     parseInt(fieldAt(fields, mapping.Impressions)),
			WatchTimeHours:  parseFloat(fieldAt(fields, mapping.WatchTimeHours)),
			AvgViewDuration: fieldAt(fields, mapping.AvgViewDuration),
			CTR:             parseFloat(fieldAt(fields, mapping.CTR)),
		}

		if metric.IsTotal() {
			if result.TotalRow == nil {
				total := metric
				result.TotalRow = &total
			} else {
				// First match wins. Real exports should carry a single
				// aggregate row; flag the ones that don't.
				logging.Warn().Int("row", i).Msg("Duplicate Total row in export, keeping first")
			}
			continue
		}

		if seen[source] {
			logging.Warn().Int("row", i).Str("source", source).Msg("Duplicate traffic source in export, keeping first")
			continue
		}
		seen[source] = true
		result.Metrics = append(result.Metrics, metric)
	}

	if len(result.Metrics) == 0 {
		return nil, ErrNoData
	}
	return result, nil
}

// ParseExport runs the full decode pipeline on raw export bytes: split lines,
// resolve the column mapping (explicit override first, auto-detection
// otherwise), then Parse.
//
// When override is nil and auto-detection fails, the returned error is a
// *MappingRequiredError carrying the raw header row and the first data row
// so the caller can drive the manual-mapping flow.
func ParseExport(data []byte, override *models.ColumnMapping) (*models.ParsedSnapshotResult, error) {
	lines := SplitLines(data)
	if len(lines) == 0 {
		return nil, ErrNoData
	}

	header := DecodeLine(lines[0])

	mapping := override
	if mapping == nil {
		mapping = DetectMapping(header)
	}
	if mapping == nil {
		e := &MappingRequiredError{Header: rawFields(header)}
		if len(lines) > 1 {
			e.Preview = rawFields(DecodeLine(lines[1]))
		}
		return nil, e
	}

	return Parse(lines, *mapping)
}

// rawFields cleans decoded fields for presentation (quotes and padding
// stripped) without lower-casing them.
func rawFields(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = cleanField(f)
	}
	return out
}

// parseInt parses an integer cell tolerantly, stripping thousands separators
// and whitespace. Unparsable cells default to 0.
func parseInt(s string) int64 {
	s = normalizeNumber(s)
	if s == "" {
		return 0
	}
	// Integer cells sometimes arrive as "600.0" from spreadsheet tools.
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

// parseFloat parses a fractional cell tolerantly. Unparsable cells default
// to 0.
func parseFloat(s string) float64 {
	s = normalizeNumber(s)
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return 0
}

// normalizeNumber strips the junk human-exported numeric cells carry:
// surrounding whitespace, percent signs, and locale-dependent separators.
//
// Exports mix locales, so commas are ambiguous: "1,000" uses a thousands
// separator while "50,5" uses a decimal comma. A single comma followed by
// one or two digits is read as a decimal comma; every other comma is a
// thousands separator and is dropped. Non-breaking and regular spaces inside
// the number (Russian thousands grouping) are dropped as well.
func normalizeNumber(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			// Both present: comma is grouping ("1,234.5").
			s = strings.ReplaceAll(s, ",", "")
		} else if i := strings.LastIndex(s, ","); i == strings.Index(s, ",") && len(s)-i-1 <= 2 {
			s = s[:i] + "." + s[i+1:]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	return strings.TrimSpace(s)
}
