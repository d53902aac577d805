// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

// Package middleware provides HTTP middleware applied per-handler:
// Prometheus request instrumentation, request ID propagation, and gzip
// response compression. Router-level middleware (CORS, rate limiting) lives
// in the api package's chi setup.
package middleware
