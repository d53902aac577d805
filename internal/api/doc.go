// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

// Package api provides the HTTP surface of the server using the Chi router.
//
// Endpoints:
//
//	GET    /api/v1/health
//	GET    /api/v1/videos/{videoID}/snapshots
//	POST   /api/v1/videos/{videoID}/snapshots
//	DELETE /api/v1/videos/{videoID}/snapshots/{snapshotID}
//	POST   /api/v1/videos/{videoID}/snapshots/{snapshotID}/mapping
//	GET    /api/v1/videos/{videoID}/traffic?snapshot={id}&mode={cumulative|delta}
//	GET    /metrics
//
// All JSON endpoints respond with the APIResponse envelope. Pipeline
// conditions map to stable error codes: MAPPING_REQUIRED carries the raw
// header and a preview row, NO_DATA flags an export with no traffic rows,
// and SNAPSHOT_NOT_FOUND covers unknown snapshot IDs.
package api
