// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

// Package main is the entry point for the Channelpulse server.
//
// Channelpulse ingests traffic-source CSV exports for a video channel,
// stores them as timestamped snapshots, and serves a comparison dashboard
// API: cumulative traffic tables and week-over-week deltas against each
// snapshot's chronological predecessor.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, config.yaml, env)
//  2. Logging: zerolog, JSON by default
//  3. Storage: BadgerDB for snapshot metadata and export blobs
//  4. Pipeline: blob store, snapshot registry, loader with bounded cache,
//     view orchestrator
//  5. HTTP server: Chi router under a suture supervision tree
//
// # Configuration
//
// Highest priority wins:
//   - Environment variables (HTTP_PORT, LOG_LEVEL, STORAGE_PATH,
//     CACHE_MAX_ENTRIES, REMOTE_BLOB_URL, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests (10s timeout), supervised services stop, and BadgerDB
// closes cleanly.
//
// # Example Usage
//
// Local storage:
//
//	export STORAGE_PATH=/data/channelpulse
//	./channelpulse
//
// Remote export objects (read-only blob storage, uploads disabled):
//
//	export REMOTE_BLOB_URL=https://exports.internal.example.com
//	./channelpulse
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/time/rate"

	"github.com/channelpulse/channelpulse/internal/api"
	"github.com/channelpulse/channelpulse/internal/blob"
	"github.com/channelpulse/channelpulse/internal/config"
	"github.com/channelpulse/channelpulse/internal/logging"
	"github.com/channelpulse/channelpulse/internal/snapshot"
	"github.com/channelpulse/channelpulse/internal/supervisor"
	"github.com/channelpulse/channelpulse/internal/supervisor/services"
	"github.com/channelpulse/channelpulse/internal/view"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger; config is not available yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("storage_path", cfg.Storage.Path).
		Bool("in_memory", cfg.Storage.InMemory).
		Msg("Starting Channelpulse")

	db, err := openBadger(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open BadgerDB")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing BadgerDB")
		}
	}()

	// Blob storage: local BadgerDB by default, remote HTTP when configured.
	// The remote store is read-only, so uploads are disabled with it.
	var store blob.Store
	var writer blob.Writer
	if cfg.Storage.RemoteURL != "" {
		store = blob.NewHTTPStore(cfg.Storage.RemoteURL, cfg.Storage.RemoteTimeout)
		logging.Info().Str("remote_url", cfg.Storage.RemoteURL).Msg("Using remote blob storage")
	} else {
		badgerStore := blob.NewBadgerStore(db)
		store = badgerStore
		writer = badgerStore
	}

	var limiter *rate.Limiter
	if cfg.Ingest.FetchRatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Ingest.FetchRatePerSec), cfg.Ingest.FetchBurst)
	}

	registry := snapshot.NewBadgerRegistry(db)
	loader := snapshot.NewLoader(store, cfg.Cache.MaxEntries, limiter)
	orchestrator := view.NewOrchestrator(loader)

	handler := api.NewHandler(registry, writer, loader, orchestrator, cfg.Server.MaxUploadBytes, version)
	router := api.NewRouter(handler, api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		CORSAllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		CORSAllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		CORSMaxAge:         300,
		RateLimitRequests:  cfg.Server.RateLimitPerMinute,
		RateLimitWindow:    time.Minute,
		RateLimitDisabled:  cfg.Server.RateLimitPerMinute == 0,
	}))

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Value-log GC only matters for on-disk stores.
	if !cfg.Storage.InMemory {
		tree.AddDataService(services.NewBadgerGCService(db, cfg.Storage.GCInterval))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// openBadger opens the shared BadgerDB instance used for snapshot metadata
// and local export blobs.
func openBadger(cfg *config.Config) (*badger.DB, error) {
	var opts badger.Options
	if cfg.Storage.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Storage.Path)
	}
	opts = opts.WithLogger(nil)
	return badger.Open(opts)
}
