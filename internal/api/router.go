// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/deepspin/trackcore/internal/auth"
	"github.com/deepspin/trackcore/internal/authz"
)

// RouterConfig configures the admin-route rate limiter.
type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter builds the control/status API's chi router, mounted by the
// caller under /api/v1.
func NewRouter(h *Handler, authMW *auth.Middleware, authzMW *authz.Middleware, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(recordMetrics)

	r.Get("/healthz", h.HealthLive)
	r.Get("/readyz", h.HealthReady)
	r.Get("/decks", h.ListDecks)
	r.Get("/decks/{player}/{hotCue}", h.GetDeck)
	r.Get("/lru/stats", h.GetLRUStats)
	r.Get("/position/{player}", h.GetPosition)

	r.Route("/admin", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)
			r.Use(authzMW.RequireOperator)

			r.Post("/passive", h.SetPassive)
			r.Post("/lru-capacity", h.SetLRUCapacity)
			r.Post("/slots/{slot}/evict", h.EvictSlot)
		})
	})

	return r
}
