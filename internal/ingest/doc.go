// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

/*
Package ingest converts raw traffic-source CSV exports into typed metric
records.

The pipeline is: DecodeLine splits one raw line into quote-aware fields,
DetectMapping infers which column holds which semantic field from the header
row (across English and Russian export locales), and Parse turns the mapped
data rows into a ParsedSnapshotResult, routing the aggregate "Total" row out
of the per-source list.

Exports are human-produced spreadsheet data, so the package is deliberately
tolerant: malformed quoting degrades to best-effort splitting, blank or short
lines are skipped, and an unparsable numeric cell defaults to 0 rather than
aborting the file. The only hard failures are ErrMappingRequired (the header
could not be auto-detected and the caller must obtain an explicit mapping
from the user) and ErrNoData (no usable rows remained).
*/
package ingest
