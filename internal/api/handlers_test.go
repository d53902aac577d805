// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/channelpulse/channelpulse/internal/blob"
	"github.com/channelpulse/channelpulse/internal/models"
	"github.com/channelpulse/channelpulse/internal/snapshot"
	"github.com/channelpulse/channelpulse/internal/view"
)

const exportWeek1 = "Traffic source,Views,Watch time (hours),Average view duration,Impressions,Impressions click-through rate\n" +
	"Total,1000,50.5,3:02,20000,5.0\n" +
	"Browse features,400,20.1,3:00,8000,5.0\n" +
	"Suggested videos,600,30.4,3:03,12000,5.0\n"

const exportWeek2 = "Traffic source,Views,Watch time (hours),Average view duration,Impressions,Impressions click-through rate\n" +
	"Total,1500,76.0,3:05,27000,5.5\n" +
	"Browse features,500,25.3,3:01,9000,5.5\n" +
	"Suggested videos,1000,50.7,3:07,18000,5.5\n"

// exportUnmapped has headers no alias matches, forcing the mapping prompt.
const exportUnmapped = "colA,colB,colC,colD,colE,colF\n" +
	"Direct,100,5.0,2:30,2000,5.0\n"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open in-memory badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := blob.NewBadgerStore(db)
	registry := snapshot.NewBadgerRegistry(db)
	loader := snapshot.NewLoader(store, 0, nil)
	orchestrator := view.NewOrchestrator(loader)
	handler := NewHandler(registry, store, loader, orchestrator, 8<<20, "test")

	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		CORSAllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		RateLimitDisabled:  true,
	})
	return NewRouter(handler, mw).Setup()
}

type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata models.Metadata `json:"metadata"`
	Error    *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func doRequest(t *testing.T, server http.Handler, method, path, body string) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	env := &envelope{}
	if err := json.Unmarshal(rec.Body.Bytes(), env); err != nil {
		t.Fatalf("Failed to decode envelope from %s %s (%d): %v", method, path, rec.Code, err)
	}
	return rec, env
}

// uploadSnapshot uploads csv and returns the created snapshot.
func uploadSnapshot(t *testing.T, server http.Handler, videoID, label, timestamp, csv string) models.UploadResponse {
	t.Helper()

	path := "/api/v1/videos/" + videoID + "/snapshots?label=" + label
	if timestamp != "" {
		path += "&timestamp=" + strings.ReplaceAll(timestamp, "+", "%2B")
	}
	rec, env := doRequest(t, server, http.MethodPost, path, csv)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Upload returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.UploadResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("Failed to decode upload response: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	rec, env := doRequest(t, server, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if env.Status != "success" {
		t.Errorf("Expected success status, got %q", env.Status)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("Expected an ETag header")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected an X-Request-ID header")
	}
}

func TestUploadAndList(t *testing.T) {
	server := newTestServer(t)

	uploadSnapshot(t, server, "vid-1", "week1", "2026-03-01T12:00:00Z", exportWeek1)
	uploadSnapshot(t, server, "vid-1", "week2", "2026-03-08T12:00:00Z", exportWeek2)

	rec, env := doRequest(t, server, http.MethodGet, "/api/v1/videos/vid-1/snapshots", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var summaries []models.SnapshotSummary
	if err := json.Unmarshal(env.Data, &summaries); err != nil {
		t.Fatalf("Failed to decode summaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(summaries))
	}
	if summaries[0].Label != "week1" || summaries[1].Label != "week2" {
		t.Errorf("Expected timestamp order week1,week2; got %q,%q", summaries[0].Label, summaries[1].Label)
	}
	if summaries[0].DeltaAvailable {
		t.Error("Expected earliest snapshot to report delta unavailable")
	}
	if !summaries[1].DeltaAvailable {
		t.Error("Expected later snapshot to report delta available")
	}
	if !summaries[0].Uploaded {
		t.Error("Expected uploaded snapshot to report uploaded")
	}
}

func TestTrafficViewDelta(t *testing.T) {
	server := newTestServer(t)

	uploadSnapshot(t, server, "vid-1", "week1", "2026-03-01T12:00:00Z", exportWeek1)
	week2 := uploadSnapshot(t, server, "vid-1", "week2", "2026-03-08T12:00:00Z", exportWeek2)

	rec, env := doRequest(t, server, http.MethodGet,
		"/api/v1/videos/vid-1/traffic?snapshot="+week2.Snapshot.ID+"&mode=delta", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.TrafficViewResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("Failed to decode traffic view: %v", err)
	}
	if resp.Mode != models.ViewDelta {
		t.Errorf("Expected delta mode, got %q", resp.Mode)
	}
	if !resp.DeltaAvailable {
		t.Error("Expected delta available")
	}
	if len(resp.Metrics) != 2 {
		t.Fatalf("Expected 2 metrics, got %d", len(resp.Metrics))
	}
	for _, m := range resp.Metrics {
		if m.Delta == nil {
			t.Fatalf("Expected delta fields on %q", m.Source)
		}
		if m.Source == "Suggested videos" && m.Delta.Views != 400 {
			t.Errorf("Expected Suggested videos delta 400, got %d", m.Delta.Views)
		}
	}
	if resp.TotalRow == nil || resp.TotalRow.Delta == nil || resp.TotalRow.Delta.Views != 500 {
		t.Error("Expected total row delta of 500 views")
	}
}

func TestTrafficViewEarliestFallsBackToCumulative(t *testing.T) {
	server := newTestServer(t)

	week1 := uploadSnapshot(t, server, "vid-1", "week1", "2026-03-01T12:00:00Z", exportWeek1)
	uploadSnapshot(t, server, "vid-1", "week2", "2026-03-08T12:00:00Z", exportWeek2)

	rec, env := doRequest(t, server, http.MethodGet,
		"/api/v1/videos/vid-1/traffic?snapshot="+week1.Snapshot.ID+"&mode=delta", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp models.TrafficViewResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("Failed to decode traffic view: %v", err)
	}
	if resp.Mode != models.ViewCumulative {
		t.Errorf("Expected cumulative fallback, got %q", resp.Mode)
	}
	if resp.DeltaAvailable {
		t.Error("Expected delta unavailable for earliest snapshot")
	}
	if len(resp.Metrics) != 2 || resp.Metrics[0].Delta != nil {
		t.Error("Expected cumulative metrics without delta fields")
	}
}

func TestTrafficViewUnknownSnapshot(t *testing.T) {
	server := newTestServer(t)
	uploadSnapshot(t, server, "vid-1", "week1", "2026-03-01T12:00:00Z", exportWeek1)

	rec, env := doRequest(t, server, http.MethodGet, "/api/v1/videos/vid-1/traffic?snapshot=absent", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeSnapshotNotFound {
		t.Errorf("Expected SNAPSHOT_NOT_FOUND error, got %+v", env.Error)
	}
}

func TestTrafficViewMissingSnapshotParam(t *testing.T) {
	server := newTestServer(t)

	rec, env := doRequest(t, server, http.MethodGet, "/api/v1/videos/vid-1/traffic", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeValidation {
		t.Errorf("Expected VALIDATION_ERROR, got %+v", env.Error)
	}
}

func TestUploadUnmappedPromptsForMapping(t *testing.T) {
	server := newTestServer(t)

	resp := uploadSnapshot(t, server, "vid-1", "week1", "", exportUnmapped)
	if resp.MappingRequired == nil {
		t.Fatal("Expected mapping_required details in upload response")
	}
	if len(resp.MappingRequired.Header) != 6 || resp.MappingRequired.Header[0] != "colA" {
		t.Errorf("Expected raw header in details, got %v", resp.MappingRequired.Header)
	}
	if len(resp.MappingRequired.Preview) == 0 {
		t.Error("Expected a preview row in details")
	}
	if resp.MappingRequired.Default == nil {
		t.Error("Expected the default positional mapping in details")
	}

	// Viewing before a mapping is submitted surfaces MAPPING_REQUIRED.
	rec, env := doRequest(t, server, http.MethodGet,
		"/api/v1/videos/vid-1/traffic?snapshot="+resp.Snapshot.ID, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeMappingRequired {
		t.Errorf("Expected MAPPING_REQUIRED, got %+v", env.Error)
	}
}

func TestSubmitMappingEnablesView(t *testing.T) {
	server := newTestServer(t)
	resp := uploadSnapshot(t, server, "vid-1", "week1", "", exportUnmapped)

	mapping := `{"source":0,"views":1,"watch_time_hours":2,"avg_view_duration":3,"impressions":4,"ctr":5}`
	rec, _ := doRequest(t, server, http.MethodPost,
		"/api/v1/videos/vid-1/snapshots/"+resp.Snapshot.ID+"/mapping", mapping)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, env := doRequest(t, server, http.MethodGet,
		"/api/v1/videos/vid-1/traffic?snapshot="+resp.Snapshot.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 after mapping, got %d: %s", rec.Code, rec.Body.String())
	}

	var viewResp models.TrafficViewResponse
	if err := json.Unmarshal(env.Data, &viewResp); err != nil {
		t.Fatalf("Failed to decode traffic view: %v", err)
	}
	if len(viewResp.Metrics) != 1 || viewResp.Metrics[0].Source != "Direct" {
		t.Errorf("Expected the Direct row after manual mapping, got %+v", viewResp.Metrics)
	}
}

func TestSubmitMappingRejectsDuplicateColumns(t *testing.T) {
	server := newTestServer(t)
	resp := uploadSnapshot(t, server, "vid-1", "week1", "", exportUnmapped)

	mapping := `{"source":0,"views":1,"watch_time_hours":1,"avg_view_duration":3,"impressions":4,"ctr":5}`
	rec, env := doRequest(t, server, http.MethodPost,
		"/api/v1/videos/vid-1/snapshots/"+resp.Snapshot.ID+"/mapping", mapping)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeValidation {
		t.Errorf("Expected VALIDATION_ERROR, got %+v", env.Error)
	}
}

// unreachableStore is a blob.Store whose backing object store is down.
type unreachableStore struct{}

func (unreachableStore) Fetch(ctx context.Context, path string) ([]byte, error) {
	return nil, errors.New("object store unreachable")
}

func TestSubmitMappingRejectsDuplicateColumnsWhenStoreDown(t *testing.T) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open in-memory badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	registry := snapshot.NewBadgerRegistry(db)
	loader := snapshot.NewLoader(unreachableStore{}, 0, nil)
	handler := NewHandler(registry, nil, loader, view.NewOrchestrator(loader), 8<<20, "test")
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitDisabled:  true,
	})
	server := NewRouter(handler, mw).Setup()

	snap := &models.Snapshot{
		ID:          "snap-1",
		VideoID:     "vid-1",
		Timestamp:   time.Now().UTC(),
		StoragePath: "exports/vid-1/a.csv",
	}
	if err := registry.Put(context.Background(), snap); err != nil {
		t.Fatalf("Failed to seed registry: %v", err)
	}

	// All six fields on column 0. The export itself cannot be fetched,
	// so only the width-independent check can stop this.
	mapping := `{"source":0,"views":0,"watch_time_hours":0,"avg_view_duration":0,"impressions":0,"ctr":0}`
	rec, env := doRequest(t, server, http.MethodPost,
		"/api/v1/videos/vid-1/snapshots/snap-1/mapping", mapping)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if env.Error == nil || env.Error.Code != ErrCodeValidation {
		t.Errorf("Expected VALIDATION_ERROR, got %+v", env.Error)
	}

	stored, err := registry.Get(context.Background(), "vid-1", "snap-1")
	if err != nil {
		t.Fatalf("Failed to re-read snapshot: %v", err)
	}
	if stored.Mapping != nil {
		t.Errorf("Rejected mapping must not persist, got %+v", *stored.Mapping)
	}
}

func TestSubmitMappingUnknownSnapshot(t *testing.T) {
	server := newTestServer(t)

	mapping := `{"source":0,"views":1,"watch_time_hours":2,"avg_view_duration":3,"impressions":4,"ctr":5}`
	rec, env := doRequest(t, server, http.MethodPost,
		"/api/v1/videos/vid-1/snapshots/absent/mapping", mapping)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeSnapshotNotFound {
		t.Errorf("Expected SNAPSHOT_NOT_FOUND, got %+v", env.Error)
	}
}

func TestDeleteSnapshot(t *testing.T) {
	server := newTestServer(t)
	resp := uploadSnapshot(t, server, "vid-1", "week1", "2026-03-01T12:00:00Z", exportWeek1)

	rec, _ := doRequest(t, server, http.MethodDelete,
		"/api/v1/videos/vid-1/snapshots/"+resp.Snapshot.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	rec, env := doRequest(t, server, http.MethodGet, "/api/v1/videos/vid-1/snapshots", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var summaries []models.SnapshotSummary
	if err := json.Unmarshal(env.Data, &summaries); err != nil {
		t.Fatalf("Failed to decode summaries: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("Expected no snapshots after delete, got %d", len(summaries))
	}

	rec, _ = doRequest(t, server, http.MethodDelete,
		"/api/v1/videos/vid-1/snapshots/"+resp.Snapshot.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on double delete, got %d", rec.Code)
	}
}

func TestUploadRejectsEmptyBody(t *testing.T) {
	server := newTestServer(t)

	rec, env := doRequest(t, server, http.MethodPost, "/api/v1/videos/vid-1/snapshots", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeUploadFailed {
		t.Errorf("Expected UPLOAD_FAILED, got %+v", env.Error)
	}
}

func TestUploadRejectsBadTimestamp(t *testing.T) {
	server := newTestServer(t)

	rec, env := doRequest(t, server, http.MethodPost,
		"/api/v1/videos/vid-1/snapshots?timestamp=yesterday", exportWeek1)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeValidation {
		t.Errorf("Expected VALIDATION_ERROR, got %+v", env.Error)
	}
}
