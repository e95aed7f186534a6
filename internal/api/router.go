// Datagate - Tenant-Scoped Data Access Gateway
// Copyright 2026 AgenciaFlow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agenciaflow/datagate

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agenciaflow/datagate/internal/auth"
	"github.com/agenciaflow/datagate/internal/config"
	"github.com/agenciaflow/datagate/internal/middleware"
)

// NewRouter assembles the HTTP surface.
//
// The query endpoint sits behind the full middleware stack: request id,
// panic recovery, CORS, rate limiting, metrics, and session authentication.
// Health probes and /metrics bypass authentication.
func NewRouter(cfg *config.Config, handlers *Handlers, authMW *auth.Middleware) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", handlers.HandleLive)
		r.Get("/ready", handlers.HandleReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if !cfg.Security.RateLimitDisabled {
			r.Use(httprate.LimitByIP(cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow))
		}
		r.Use(middleware.PrometheusMetrics)
		r.Use(authMW.Authenticate)

		r.Post("/query", handlers.HandleQuery)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
