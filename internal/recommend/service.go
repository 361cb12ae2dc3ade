// Package recommend turns classifier output into the clothing and rain
// recommendation served to the front-end.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abrigobot/abrigobot/internal/classifier"
	"github.com/abrigobot/abrigobot/internal/features"
	"github.com/abrigobot/abrigobot/internal/history"
)

// ErrInvalidInput means the request carried out-of-range coordinates or lead
// time. Input is normally validated by the front-end; this is a defensive
// backstop.
var ErrInvalidInput = errors.New("invalid prediction input")

// MaxLeadHours is the furthest lead time the service predicts for.
const MaxLeadHours = 48

// Request is a prediction request.
type Request struct {
	Lat       float64
	Lon       float64
	LeadHours int
}

// Option is a clothing class with its predicted probability.
type Option struct {
	Class       string
	Probability float64
}

// Recommendation is the composed prediction payload.
type Recommendation struct {
	Primary       Option
	Secondary     Option
	ShowSecondary bool

	Temperature         float64
	Humidity            float64
	ApparentTemperature float64
	WindSpeed10m        float64

	// PrecipitationProb is a fraction in [0,1]; Precipitation is the raw
	// measured intensity.
	PrecipitationProb float64
	Precipitation     float64

	HourBucket int
	Minute     int
	LocalHour  int
	Altitude   float64

	Advice RainAdvice
}

// ServiceConfig holds configuration for the prediction service.
type ServiceConfig struct {
	// Builder assembles feature rows.
	Builder *features.Builder

	// Model is the loaded classifier, read-only after initialization.
	Model classifier.Model

	// History records served predictions (optional). Recording failures
	// never fail the request.
	History history.Repository

	// Logger for service operations.
	Logger zerolog.Logger

	// Now returns the current instant; defaults to time.Now. Injected for
	// deterministic tests.
	Now func() time.Time
}

// Service is the prediction orchestrator. Safe for concurrent use: the only
// shared state is the read-only model and the collaborators' own caches.
type Service struct {
	builder *features.Builder
	model   classifier.Model
	history history.Repository
	logger  zerolog.Logger
	now     func() time.Time
}

// NewService creates a new prediction service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		builder: cfg.Builder,
		model:   cfg.Model,
		history: cfg.History,
		logger:  cfg.Logger,
		now:     now,
	}
}

// Predict runs the full pipeline: feature assembly (one forecast fetch),
// classification, and policy. Failures are logged with request context and
// returned; the HTTP layer maps them to the generic error shape.
func (s *Service) Predict(ctx context.Context, req Request) (*Recommendation, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := s.now()

	built, err := s.builder.Build(ctx, req.Lat, req.Lon, req.LeadHours, now)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", req.Lat).
			Float64("lon", req.Lon).
			Int("lead_hours", req.LeadHours).
			Msg("feature assembly failed")
		return nil, fmt.Errorf("building feature row: %w", err)
	}

	result, err := classifier.Predict(ctx, s.model, built.Row)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", req.Lat).
			Float64("lon", req.Lon).
			Int("lead_hours", req.LeadHours).
			Strs("row_schema", built.Row.Names()).
			Msg("classification failed")
		return nil, fmt.Errorf("classifying feature row: %w", err)
	}

	top, second := result.Top(), result.Second()
	display := built.Display
	advice := RainAdviceFor(display.PrecipitationProb*100, display.Precipitation)

	rec := &Recommendation{
		Primary:             Option{Class: top.Class, Probability: top.Probability},
		Secondary:           Option{Class: second.Class, Probability: second.Probability},
		ShowSecondary:       ShowSecondOption(top.Probability, second.Probability),
		Temperature:         display.Temperature,
		Humidity:            display.Humidity,
		ApparentTemperature: display.ApparentTemperature,
		WindSpeed10m:        display.WindSpeed10m,
		PrecipitationProb:   display.PrecipitationProb,
		Precipitation:       display.Precipitation,
		HourBucket:          display.HourBucket,
		Minute:              display.Minute,
		LocalHour:           display.LocalHour,
		Altitude:            display.Altitude,
		Advice:              advice,
	}

	s.logger.Info().
		Float64("lat", req.Lat).
		Float64("lon", req.Lon).
		Int("lead_hours", req.LeadHours).
		Str("class_1st", rec.Primary.Class).
		Float64("prob_1st", rec.Primary.Probability).
		Str("class_2nd", rec.Secondary.Class).
		Bool("second_option", rec.ShowSecondary).
		Msg("prediction served")

	s.record(ctx, req, now, rec)

	return rec, nil
}

// record appends the prediction to the history log, best effort.
func (s *Service) record(ctx context.Context, req Request, now time.Time, rec *Recommendation) {
	if s.history == nil {
		return
	}

	err := s.history.Insert(ctx, &history.Record{
		ID:                  uuid.New(),
		RequestedAt:         now.UTC(),
		Lat:                 req.Lat,
		Lon:                 req.Lon,
		LeadHours:           req.LeadHours,
		HourBucket:          rec.HourBucket,
		Class1:              rec.Primary.Class,
		Prob1:               rec.Primary.Probability,
		Class2:              rec.Secondary.Class,
		Prob2:               rec.Secondary.Probability,
		Temperature:         rec.Temperature,
		ApparentTemperature: rec.ApparentTemperature,
		PrecipitationProb:   rec.PrecipitationProb,
		Precipitation:       rec.Precipitation,
		AdviceCategory:      string(rec.Advice.Category),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to record prediction history")
	}
}

func validateRequest(req Request) error {
	if math.IsNaN(req.Lat) || math.IsNaN(req.Lon) {
		return fmt.Errorf("%w: coordinates are NaN", ErrInvalidInput)
	}
	if req.Lat < -90 || req.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidInput, req.Lat)
	}
	if req.Lon < -180 || req.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidInput, req.Lon)
	}
	if req.LeadHours < 0 || req.LeadHours > MaxLeadHours {
		return fmt.Errorf("%w: lead hours %d outside [0,%d]", ErrInvalidInput, req.LeadHours, MaxLeadHours)
	}
	return nil
}
