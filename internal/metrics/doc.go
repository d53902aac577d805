// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

// Package metrics provides Prometheus metrics collection for observability.
//
// Metrics are registered on the default registry via promauto and exposed at
// the /metrics endpoint in Prometheus text format. Instrumented areas: HTTP
// request latency/throughput, export parse performance, parsed-snapshot
// cache efficiency, and byte-source fetch outcomes including circuit breaker
// state.
package metrics
