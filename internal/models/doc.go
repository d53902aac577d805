// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

/*
Package models defines the data structures for Channelpulse.

It is the single source of truth for the traffic-source analytics domain:

  - TrafficMetric: one per-source row of a parsed snapshot
  - DeltaMetric / DeltaFields: comparison-enriched metrics (delta mode)
  - ColumnMapping: semantic field to CSV column index association
  - Snapshot: immutable reference to one uploaded export
  - ParsedSnapshotResult: parse output, content-addressed by storage path
  - APIResponse / APIError: standard HTTP envelope

Delta fields follow an explicit optional pattern: a DeltaMetric with a nil
Delta has not been compared, and a DeltaFields percentage pointer that is nil
means the percentage is undefined (previous value was 0). There are no
sentinel values for either case.
*/
package models
