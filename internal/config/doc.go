// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

// Package config loads server configuration with koanf in three layers:
// struct defaults, an optional YAML config file, and environment variables.
// Environment variables have the highest priority.
package config
