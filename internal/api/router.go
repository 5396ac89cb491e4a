// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/securecrop/securecrop/internal/audit"
	"github.com/securecrop/securecrop/internal/config"
	"github.com/securecrop/securecrop/internal/database"
	"github.com/securecrop/securecrop/internal/market"
	"github.com/securecrop/securecrop/internal/ml"
	"github.com/securecrop/securecrop/internal/notify"
	"github.com/securecrop/securecrop/internal/recommend"
	"github.com/securecrop/securecrop/internal/soil"
	"github.com/securecrop/securecrop/internal/weather"
)

// Store is the persistence surface the handlers need. Satisfied by
// *database.DB.
type Store interface {
	Ping(ctx context.Context) error

	GetReading(ctx context.Context, id string) (*soil.Reading, error)
	ListReadings(ctx context.Context, limit, offset int) ([]soil.Reading, error)
	CountReadings(ctx context.Context) (int64, error)

	GetRecommendationByReading(ctx context.Context, readingID string) (*recommend.Recommendation, error)
	ListRecommendations(ctx context.Context, limit, offset int) ([]recommend.Recommendation, error)

	InsertContactMessage(ctx context.Context, m *database.ContactMessage) error
	ListContactMessages(ctx context.Context, status string, limit, offset int) ([]database.ContactMessage, error)

	InsertFeedback(ctx context.Context, f *database.FeedbackEntry) error
	ListFeedback(ctx context.Context, limit, offset int) ([]database.FeedbackEntry, error)
	GetFeedbackStats(ctx context.Context) (*database.FeedbackStats, error)

	ListNotifications(ctx context.Context, activeOnly bool, limit, offset int) ([]notify.Notification, error)
}

// PipelineRunner executes the full recommendation pipeline.
// Satisfied by *recommend.Pipeline.
type PipelineRunner interface {
	Run(ctx context.Context, in *soil.Input, ownerID string) (*recommend.Result, error)
}

// WeatherSource serves weather lookups. Satisfied by *weather.Client.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (*weather.Current, error)
	Forecast(ctx context.Context, lat, lon float64, days int) ([]weather.DailyForecast, error)
}

// MarketSource serves nearby-place searches. Satisfied by
// *market.Client.
type MarketSource interface {
	Search(ctx context.Context, lat, lon float64, radiusMeters int) ([]market.Place, error)
}

// Router holds the handler dependencies and builds the HTTP handler.
type Router struct {
	cfg      *config.Config
	store    Store
	pipeline PipelineRunner
	auditLog audit.Store
	registry *ml.Registry
	weather  WeatherSource
	market   MarketSource
}

// NewRouter wires the API against its dependencies.
func NewRouter(cfg *config.Config, store Store, pipeline PipelineRunner,
	auditLog audit.Store, registry *ml.Registry,
	weatherSrc WeatherSource, marketSrc MarketSource) *Router {
	return &Router{
		cfg:      cfg,
		store:    store,
		pipeline: pipeline,
		auditLog: auditLog,
		registry: registry,
		weather:  weatherSrc,
		market:   marketSrc,
	}
}

// Handler assembles the chi router with the full middleware stack.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(observe)
	r.Use(recoverer)
	r.Use(securityHeaders)
	r.Use(corsMiddleware(rt.cfg.Server))

	r.Get("/healthz", rt.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(rt.cfg.Server))

		r.Post("/readings", rt.handleCreateReading)
		r.Get("/readings", rt.handleListReadings)
		r.Get("/readings/{id}", rt.handleGetReading)
		r.Get("/recommendations", rt.handleListRecommendations)
		r.Get("/audit", rt.handleListAudit)
		r.Get("/audit/stats", rt.handleAuditStats)

		r.Route("/weather", func(r chi.Router) {
			r.Get("/current", rt.handleWeatherCurrent)
			r.Get("/forecast", rt.handleWeatherForecast)
			r.Get("/alerts", rt.handleWeatherAlerts)
			r.Get("/risk", rt.handleWeatherRisk)
		})

		r.Get("/market/search", rt.handleMarketSearch)

		r.Post("/contact", rt.handleCreateContact)
		r.Get("/contact", rt.handleListContact)
		r.Post("/feedback", rt.handleCreateFeedback)
		r.Get("/feedback", rt.handleListFeedback)
		r.Get("/notifications", rt.handleListNotifications)
	})

	return r
}
