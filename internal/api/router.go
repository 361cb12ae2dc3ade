// Package api provides the HTTP API for abrigobot.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/abrigobot/abrigobot/internal/api/handler"
	"github.com/abrigobot/abrigobot/internal/api/middleware"
	"github.com/abrigobot/abrigobot/internal/history"
	"github.com/abrigobot/abrigobot/internal/recommend"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version          string
	Logger           zerolog.Logger
	Metrics          *middleware.Metrics
	RecommendService *recommend.Service
	History          history.Repository
	Probes           []handler.ProviderProbe
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.Probes)
	predictHandler := handler.NewPredictHandler(cfg.RecommendService)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.Health)
			r.Get("/ready", opsHandler.Ready)
		})

		// Prediction: fans out to the forecast provider and the model
		// server, so it gets the tighter limit.
		r.With(expensiveRateLimit, middleware.RequireJSON).Post("/predict", predictHandler.Predict)

		if cfg.History != nil {
			historyHandler := handler.NewHistoryHandler(cfg.History)
			r.With(standardRateLimit).Get("/predictions/recent", historyHandler.Recent)
		}
	})

	return r
}
