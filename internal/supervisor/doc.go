// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

// Package supervisor builds the suture/v4 supervision tree that runs the
// server's long-lived components. Supervisor events are logged through
// sutureslog into the zerolog-backed slog handler.
package supervisor
