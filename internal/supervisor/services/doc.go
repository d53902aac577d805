// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

// Package services contains suture.Service wrappers for the server's
// long-lived components: the HTTP server and the BadgerDB value-log GC loop.
package services
