// Package main provides the entrypoint for the training-data collector.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/abrigobot/abrigobot/internal/collector"
	"github.com/abrigobot/abrigobot/internal/forecast"
	"github.com/abrigobot/abrigobot/internal/forecast/openmeteo"
)

func main() {
	var (
		inputPath  = flag.String("input", "", "labeled observations CSV (required)")
		outputPath = flag.String("output", "", "enriched output CSV (required)")
		baseURL    = flag.String("base-url", openmeteo.HistoricalBaseURL, "forecast API endpoint")
		minDelay   = flag.Duration("min-delay", 2*time.Second, "minimum pause before each provider call")
		maxDelay   = flag.Duration("max-delay", 5*time.Second, "maximum pause before each provider call")
	)
	flag.Parse()

	log := zerolog.New(os.Stderr).
		With().
		Timestamp().
		Str("service", "abrigobot-collector").
		Logger()

	if *inputPath == "" || *outputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	in, err := os.Open(*inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open input")
	}
	defer in.Close()

	out, err := os.Create(*outputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create output")
	}
	defer out.Close()

	// Historical fetches use a one-day window on each side of the target.
	forecastService := forecast.NewService(forecast.ServiceConfig{
		Provider: openmeteo.NewClient(openmeteo.ClientConfig{
			BaseURL: *baseURL,
		}),
		Logger:      log,
		WindowAfter: 1,
	})

	job := collector.New(collector.Config{
		Forecaster: forecastService,
		Logger:     log,
		MinDelay:   *minDelay,
		MaxDelay:   *maxDelay,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	stats, err := job.Run(ctx, in, out)
	if err != nil {
		if stats != nil {
			log.Error().Err(err).
				Int("total", stats.Total).
				Int("enriched", stats.Enriched).
				Int("skipped", stats.Skipped).
				Msg("collector run aborted")
		} else {
			log.Error().Err(err).Msg("collector run aborted")
		}
		os.Exit(1)
	}

	log.Info().
		Int("total", stats.Total).
		Int("enriched", stats.Enriched).
		Int("skipped", stats.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("collector run complete")
}
