// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/channelpulse/channelpulse/internal/middleware"
)

// Router wires handlers into the Chi route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router over the given handler set.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order to every route.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/health", router.handler.Health)

		r.Route("/videos/{videoID}", func(r chi.Router) {
			r.With(router.chiMiddleware.RateLimit()).
				Get("/snapshots", router.handler.ListSnapshots)
			r.With(router.chiMiddleware.RateLimitWrite()).
				Post("/snapshots", router.handler.UploadSnapshot)
			r.With(router.chiMiddleware.RateLimitWrite()).
				Delete("/snapshots/{snapshotID}", router.handler.DeleteSnapshot)
			r.With(router.chiMiddleware.RateLimitWrite()).
				Post("/snapshots/{snapshotID}/mapping", router.handler.SubmitMapping)

			// Traffic tables dominate response size; compress them.
			r.With(router.chiMiddleware.RateLimit(), chiMiddleware(middleware.Compression)).
				Get("/traffic", router.handler.TrafficView)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
