// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

// Package snapshot stores snapshot records and resolves them into parsed
// traffic results.
//
// The Registry keeps per-video snapshot metadata in BadgerDB. The Loader
// fetches export objects from blob storage, parses them with the ingest
// package, and caches results in a small FIFO cache keyed by the immutable
// storage path. Concurrent loads of the same path are coalesced into one
// fetch.
package snapshot
