// Package main provides the entrypoint for the abrigobot API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/abrigobot/abrigobot/internal/api"
	"github.com/abrigobot/abrigobot/internal/api/handler"
	"github.com/abrigobot/abrigobot/internal/api/middleware"
	"github.com/abrigobot/abrigobot/internal/classifier/modelserver"
	"github.com/abrigobot/abrigobot/internal/database"
	"github.com/abrigobot/abrigobot/internal/features"
	"github.com/abrigobot/abrigobot/internal/forecast"
	"github.com/abrigobot/abrigobot/internal/forecast/openmeteo"
	"github.com/abrigobot/abrigobot/internal/history"
	"github.com/abrigobot/abrigobot/internal/provider/resilience"
	"github.com/abrigobot/abrigobot/internal/recommend"
	"github.com/abrigobot/abrigobot/internal/telemetry"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	const serviceName = "abrigobot-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().Msg("starting abrigobot API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx := context.Background()

	// OpenTelemetry (opt-in via OTEL_ENABLED=true)
	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1)
	}

	// Prediction history: Postgres when DB_ENABLED=true, in-memory otherwise.
	var historyRepo history.Repository
	if os.Getenv("DB_ENABLED") == "true" {
		dbConfig := database.ConfigFromEnv()
		pool, connErr := database.Connect(ctx, dbConfig)
		if connErr != nil {
			log.Fatal().Err(connErr).Msg("failed to connect to database")
		}
		defer pool.Close()
		historyRepo = history.NewPostgresRepository(pool)
		log.Info().
			Str("host", dbConfig.Host).
			Str("database", dbConfig.Database).
			Msg("database connected")
	} else {
		historyRepo = history.NewInMemoryRepository()
		log.Info().Msg("using in-memory prediction history")
	}

	// Forecast provider with its own circuit breaker.
	forecastHTTP := resilience.NewClient(resilience.DefaultClientConfig(openmeteo.ProviderName))
	forecastClient := openmeteo.NewClient(openmeteo.ClientConfig{
		BaseURL:    os.Getenv("OPENMETEO_BASE_URL"),
		HTTPClient: forecastHTTP,
	})
	forecastService := forecast.NewService(forecast.ServiceConfig{
		Provider: forecastClient,
		Logger:   log,
	})
	log.Info().Msg("forecast service initialized")

	// Model server client; the schema and class list come from the server.
	modelHTTP := resilience.NewClient(resilience.DefaultClientConfig(modelserver.ProviderName))
	model := modelserver.NewClient(modelserver.ClientConfig{
		BaseURL:    os.Getenv("MODEL_SERVER_URL"),
		HTTPClient: modelHTTP,
	})
	loadCtx, cancelLoad := context.WithTimeout(ctx, 30*time.Second)
	if err := model.Load(loadCtx); err != nil {
		cancelLoad()
		log.Fatal().Err(err).Msg("failed to load model metadata")
	}
	cancelLoad()
	log.Info().
		Strs("classes", model.Classes()).
		Int("features", len(model.FeatureNames())).
		Msg("model loaded")

	builder := features.NewBuilder(forecastService, log)
	recommendService := recommend.NewService(recommend.ServiceConfig{
		Builder: builder,
		Model:   model,
		History: historyRepo,
		Logger:  log,
	})
	log.Info().Msg("prediction service initialized")

	router := api.NewRouter(api.RouterConfig{
		Version:          Version,
		Logger:           log,
		Metrics:          metrics,
		RecommendService: recommendService,
		History:          historyRepo,
		Probes: []handler.ProviderProbe{
			{Name: openmeteo.ProviderName, State: forecastHTTP.State},
			{Name: modelserver.ProviderName, State: modelHTTP.State},
		},
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
