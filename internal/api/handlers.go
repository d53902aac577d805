// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/channelpulse/channelpulse/internal/blob"
	"github.com/channelpulse/channelpulse/internal/ingest"
	"github.com/channelpulse/channelpulse/internal/logging"
	"github.com/channelpulse/channelpulse/internal/models"
	"github.com/channelpulse/channelpulse/internal/snapshot"
	"github.com/channelpulse/channelpulse/internal/view"
)

// Orchestrator assembles the traffic view for a snapshot set. Satisfied by
// view.Orchestrator.
type Orchestrator interface {
	Resolve(ctx context.Context, snapshots []models.Snapshot, selectedID string, mode models.ViewMode) (*models.TrafficViewResponse, bool, error)
}

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	registry     snapshot.Registry
	writer       blob.Writer // nil when blob storage is remote read-only
	loader       *snapshot.Loader
	orchestrator Orchestrator

	maxUploadBytes int64
	startTime      time.Time
	version        string
}

// NewHandler creates the handler set. Blob reads go through the loader;
// writer is the upload target, nil when blob storage is remote read-only.
func NewHandler(registry snapshot.Registry, writer blob.Writer, loader *snapshot.Loader, orchestrator Orchestrator, maxUploadBytes int64, version string) *Handler {
	return &Handler{
		registry:       registry,
		writer:         writer,
		loader:         loader,
		orchestrator:   orchestrator,
		maxUploadBytes: maxUploadBytes,
		startTime:      time.Now(),
		version:        version,
	}
}

// Health reports service liveness, uptime, and cache stats.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats := h.loader.Cache().Stats()
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"cache": map[string]int64{
			"hits":      stats.Hits,
			"misses":    stats.Misses,
			"evictions": stats.Evictions,
		},
	}, start, false)
}

// ListSnapshots returns all snapshots for a video, timestamp-ascending,
// with the per-snapshot delta-availability gate.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	videoID := chi.URLParam(r, "videoID")

	snapshots, err := h.registry.ListByVideo(r.Context(), videoID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to list snapshots", err)
		return
	}

	respondSuccess(w, http.StatusOK, view.Summaries(snapshots), start, false)
}

// UploadSnapshot stores a CSV export as a new snapshot. The body is the raw
// export; label and timestamp come from query parameters. The snapshot is
// registered even when header detection fails, with the mapping prompt
// details included in the response so the frontend can follow up.
func (h *Handler) UploadSnapshot(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	videoID := chi.URLParam(r, "videoID")

	if h.writer == nil {
		respondError(w, http.StatusNotImplemented, ErrCodeUploadFailed, "Uploads are disabled with remote blob storage", nil)
		return
	}

	req := UploadSnapshotRequest{
		Label:     r.URL.Query().Get("label"),
		Timestamp: r.URL.Query().Get("timestamp"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil, apiErr.Details)
		return
	}

	timestamp := time.Now().UTC()
	if req.Timestamp != "" {
		// Validated above, parse cannot fail.
		timestamp, _ = time.Parse(time.RFC3339, req.Timestamp)
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, ErrCodeUploadFailed, "Export exceeds the upload size limit", err)
		return
	}
	if len(body) == 0 {
		respondError(w, http.StatusBadRequest, ErrCodeUploadFailed, "Export body is empty", nil)
		return
	}

	snap := &models.Snapshot{
		ID:          uuid.New().String(),
		VideoID:     videoID,
		Timestamp:   timestamp,
		Label:       req.Label,
		StoragePath: "exports/" + videoID + "/" + uuid.New().String() + ".csv",
	}

	if err := h.writer.Put(r.Context(), snap.StoragePath, body); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeUploadFailed, "Failed to store export", err)
		return
	}
	if err := h.registry.Put(r.Context(), snap); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeUploadFailed, "Failed to register snapshot", err)
		return
	}

	resp := &models.UploadResponse{Snapshot: *snap}

	// Parse eagerly so the manual-mapping prompt happens at upload time,
	// not on first view.
	if _, _, err := h.loader.Load(r.Context(), *snap); err != nil {
		var mappingErr *ingest.MappingRequiredError
		if errors.As(err, &mappingErr) {
			defaultMapping := models.DefaultColumnMapping()
			resp.MappingRequired = &models.MappingRequiredDetails{
				Header:  mappingErr.Header,
				Preview: mappingErr.Preview,
				Default: &defaultMapping,
			}
		} else if !errors.Is(err, ingest.ErrNoData) {
			logging.Warn().Err(err).Str("snapshot_id", snap.ID).Msg("Uploaded export failed eager parse")
		}
	}

	respondSuccess(w, http.StatusCreated, resp, start, false)
}

// DeleteSnapshot removes a snapshot record and its stored export.
func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	videoID := chi.URLParam(r, "videoID")
	snapshotID := chi.URLParam(r, "snapshotID")

	snap, err := h.registry.Get(r.Context(), videoID, snapshotID)
	if errors.Is(err, snapshot.ErrSnapshotNotFound) {
		respondError(w, http.StatusNotFound, ErrCodeSnapshotNotFound, "Snapshot not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to load snapshot", err)
		return
	}

	if snap.StoragePath != "" && h.writer != nil {
		if err := h.writer.Delete(r.Context(), snap.StoragePath); err != nil {
			// The registry record still goes away; an orphaned blob is
			// reclaimed by the next GC cycle.
			logging.Warn().Err(err).Str("storage_path", snap.StoragePath).Msg("Failed to delete export blob")
		}
		h.loader.Invalidate(snap.StoragePath)
	}

	if err := h.registry.Delete(r.Context(), videoID, snapshotID); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to delete snapshot", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]string{"deleted": snapshotID}, start, false)
}

// TrafficView returns the traffic table for one snapshot in cumulative or
// delta mode.
func (h *Handler) TrafficView(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	videoID := chi.URLParam(r, "videoID")

	req := TrafficViewRequest{
		SnapshotID: r.URL.Query().Get("snapshot"),
		Mode:       r.URL.Query().Get("mode"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil, apiErr.Details)
		return
	}

	mode, err := models.ParseViewMode(req.Mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "Unknown view mode", err)
		return
	}

	snapshots, err := h.registry.ListByVideo(r.Context(), videoID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to list snapshots", err)
		return
	}

	resp, cached, err := h.orchestrator.Resolve(r.Context(), snapshots, req.SnapshotID, mode)
	if err != nil {
		h.respondViewError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, resp, start, cached)
}

// respondViewError maps pipeline errors to API error codes.
func (h *Handler) respondViewError(w http.ResponseWriter, err error) {
	var mappingErr *ingest.MappingRequiredError
	switch {
	case errors.As(err, &mappingErr):
		defaultMapping := models.DefaultColumnMapping()
		respondErrorDetails(w, http.StatusUnprocessableEntity, ErrCodeMappingRequired,
			"Export header could not be auto-detected; submit a column mapping", nil,
			&models.MappingRequiredDetails{
				Header:  mappingErr.Header,
				Preview: mappingErr.Preview,
				Default: &defaultMapping,
			})
	case errors.Is(err, ingest.ErrNoData):
		respondError(w, http.StatusUnprocessableEntity, ErrCodeNoData, "Export contains no traffic rows", nil)
	case errors.Is(err, view.ErrSnapshotNotInSet):
		respondError(w, http.StatusNotFound, ErrCodeSnapshotNotFound, "Snapshot not found for this video", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// 499 in nginx convention; chi has no constant for client-closed-request.
		respondError(w, http.StatusRequestTimeout, ErrCodeFetchFailed, "Request cancelled", err)
	default:
		respondError(w, http.StatusBadGateway, ErrCodeFetchFailed, "Failed to fetch snapshot export", err)
	}
}

// SubmitMapping records a manual column mapping for a snapshot, invalidates
// the cached parse, and re-parses with the new mapping.
func (h *Handler) SubmitMapping(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	videoID := chi.URLParam(r, "videoID")
	snapshotID := chi.URLParam(r, "snapshotID")

	var req MappingRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil, apiErr.Details)
		return
	}

	mapping := models.ColumnMapping{
		Source:          req.Source,
		Views:           req.Views,
		WatchTimeHours:  req.WatchTimeHours,
		AvgViewDuration: req.AvgViewDuration,
		Impressions:     req.Impressions,
		CTR:             req.CTR,
	}

	// Distinctness does not depend on the export being fetchable, so it
	// gates before anything is persisted.
	if err := mapping.ValidateDistinct(); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	snap, err := h.registry.Get(r.Context(), videoID, snapshotID)
	if errors.Is(err, snapshot.ErrSnapshotNotFound) {
		respondError(w, http.StatusNotFound, ErrCodeSnapshotNotFound, "Snapshot not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to load snapshot", err)
		return
	}

	// Range-checking needs the real column count, so it is best-effort:
	// when the export cannot be fetched the re-parse below reports the
	// failure instead.
	if width, err := h.headerWidth(r.Context(), snap); err == nil {
		if err := mapping.Validate(width); err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
			return
		}
	}

	if err := h.registry.SetMapping(r.Context(), videoID, snapshotID, mapping); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "Failed to store mapping", err)
		return
	}
	if snap.StoragePath != "" {
		h.loader.Invalidate(snap.StoragePath)
	}

	// Re-parse with the new mapping so the caller learns immediately
	// whether it produced usable data.
	snap.Mapping = &mapping
	result, _, err := h.loader.Load(r.Context(), *snap)
	if err != nil {
		h.respondViewError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"snapshot_id": snapshotID,
		"mapping":     mapping,
		"data_status": result.Status,
		"sources":     len(result.Metrics),
	}, start, false)
}

// headerWidth fetches the export and measures its header row so manual
// mappings can be range-checked against the real column count. The fetch
// goes through the loader so it shares the loader's rate limit.
func (h *Handler) headerWidth(ctx context.Context, snap *models.Snapshot) (int, error) {
	if snap.StoragePath == "" {
		return 0, blob.ErrNotFound
	}
	data, err := h.loader.Fetch(ctx, snap.StoragePath)
	if err != nil {
		return 0, err
	}
	lines := ingest.SplitLines(data)
	if len(lines) == 0 {
		return 0, ingest.ErrNoData
	}
	return len(ingest.DecodeLine(lines[0])), nil
}
