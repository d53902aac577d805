// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/channelpulse/channelpulse/internal/logging"
	"github.com/channelpulse/channelpulse/internal/metrics"
)

// HTTPStore fetches blobs from a remote object store over HTTP.
//
// Requests go through a circuit breaker so a degraded object store cannot
// stall every dashboard view: after repeated failures the breaker opens and
// loads fail fast until the store recovers. A 404 maps to ErrNotFound and
// does not count as a breaker failure; the loader turns it into an empty
// result rather than an error.
type HTTPStore struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
}

// NewHTTPStore creates a remote blob store rooted at baseURL. Storage paths
// are appended to the base URL as escaped path segments.
func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	name := "blob-store"

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// Not-found is a data condition, not a store failure; it must
		// not trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Blob store circuit breaker state change")
			metrics.BlobBreakerState.Set(breakerStateValue(to))
		},
	})

	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

// Fetch retrieves the blob at path through the circuit breaker.
func (s *HTTPStore) Fetch(ctx context.Context, path string) ([]byte, error) {
	return s.cb.Execute(func() ([]byte, error) {
		return s.fetch(ctx, path)
	})
}

func (s *HTTPStore) fetch(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.BlobFetchDuration.Observe(time.Since(start).Seconds())
	}()

	reqURL := s.baseURL + "/" + url.PathEscape(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build blob request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.BlobFetches.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("fetch blob %s: %w", path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			metrics.BlobFetches.WithLabelValues("read_error").Inc()
			return nil, fmt.Errorf("read blob %s: %w", path, err)
		}
		metrics.BlobFetches.WithLabelValues("ok").Inc()
		return data, nil

	case resp.StatusCode == http.StatusNotFound:
		metrics.BlobFetches.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)

	default:
		metrics.BlobFetches.WithLabelValues("http_error").Inc()
		return nil, fmt.Errorf("fetch blob %s: unexpected status %d", path, resp.StatusCode)
	}
}

// breakerStateValue maps breaker states to the metric encoding
// (0=closed, 1=open, 2=half-open).
func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateOpen:
		return 1
	default:
		return 2
	}
}
