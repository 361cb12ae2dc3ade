package forecast

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider defines the interface for hourly forecast providers.
type Provider interface {
	// FetchHourly fetches the hourly series for a coordinate over a date range.
	FetchHourly(ctx context.Context, lat, lon float64, startDate, endDate time.Time) (*Series, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the forecast service.
type ServiceConfig struct {
	// Provider is the forecast data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// WindowBefore is how many days before the target date to request.
	// Default: 1. The extra margin guarantees the target date's hours are
	// covered regardless of the provider's timezone normalization.
	WindowBefore int

	// WindowAfter is how many days after the target date to request.
	// Default: 2 for the serving path; the collector uses 1.
	WindowAfter int

	// CacheTTL is how long matched records stay cached (default: 1 hour).
	CacheTTL time.Duration

	// CacheGridSize is the coordinate rounding step for cache keys
	// (default: 0.01 degrees, roughly 1km).
	CacheGridSize float64
}

// Service resolves a (coordinate, date, hour) request to the single matching
// hourly record, with an in-process cache in front of the provider.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	windowBefore  int
	windowAfter   int
	cacheTTL      time.Duration
	cacheGridSize float64

	mu              sync.RWMutex
	cache           map[string]*cachedRecord
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type cachedRecord struct {
	record    *Record
	expiresAt time.Time
}

// NewService creates a new forecast service.
func NewService(cfg ServiceConfig) *Service {
	windowBefore := cfg.WindowBefore
	if windowBefore == 0 {
		windowBefore = 1
	}
	windowAfter := cfg.WindowAfter
	if windowAfter == 0 {
		windowAfter = 2
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 1 * time.Hour
	}
	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		windowBefore:    windowBefore,
		windowAfter:     windowAfter,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		cache:           make(map[string]*cachedRecord),
		cleanupInterval: 10 * time.Minute,
	}
}

// Fetch returns the hourly record whose UTC date equals targetDate and whose
// UTC hour equals hourBucket. Returns ErrNoMatchingHour when the provider's
// window contains no such sample.
func (s *Service) Fetch(ctx context.Context, lat, lon float64, targetDate time.Time, hourBucket int) (*Record, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(lat, lon, targetDate, hourBucket)

	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.record, nil
	}
	s.mu.RUnlock()

	return s.fetch(ctx, lat, lon, targetDate, hourBucket, cacheKey)
}

func (s *Service) fetch(ctx context.Context, lat, lon float64, targetDate time.Time, hourBucket int, cacheKey string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock.
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		return cached.record, nil
	}

	startDate := targetDate.AddDate(0, 0, -s.windowBefore)
	endDate := targetDate.AddDate(0, 0, s.windowAfter)

	s.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Str("target_date", targetDate.Format("2006-01-02")).
		Int("hour", hourBucket).
		Str("provider", s.provider.Name()).
		Msg("fetching hourly forecast from provider")

	series, err := s.provider.FetchHourly(ctx, lat, lon, startDate, endDate)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("forecast provider call failed")
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	record, err := matchRecord(series, targetDate, hourBucket)
	if err != nil {
		return nil, err
	}

	s.cache[cacheKey] = &cachedRecord{
		record:    record,
		expiresAt: time.Now().Add(s.cacheTTL),
	}
	s.cleanupIfNeeded()

	return record, nil
}

// matchRecord selects the sample whose UTC date matches targetDate and whose
// UTC hour matches hourBucket. The series is hourly so at most one sample
// should match; the first match wins regardless.
func matchRecord(series *Series, targetDate time.Time, hourBucket int) (*Record, error) {
	y, m, d := targetDate.UTC().Date()

	for i, ts := range series.Times {
		sampleTime := time.Unix(ts, 0).UTC()
		sy, sm, sd := sampleTime.Date()
		if sy != y || sm != m || sd != d || sampleTime.Hour() != hourBucket {
			continue
		}

		values := make(map[string]float64, len(HourlyVariables))
		for _, name := range HourlyVariables {
			samples, ok := series.Values[name]
			if !ok || i >= len(samples) {
				values[name] = math.NaN()
				continue
			}
			values[name] = samples[i]
		}

		local := time.Unix(ts+series.UTCOffsetSeconds, 0).UTC()
		return &Record{
			Values:    values,
			Time:      sampleTime,
			LocalHour: local.Hour(),
			Elevation: series.Elevation,
		}, nil
	}

	return nil, fmt.Errorf("%w: date=%s hour=%d", ErrNoMatchingHour, targetDate.Format("2006-01-02"), hourBucket)
}

func (s *Service) cacheKey(lat, lon float64, targetDate time.Time, hourBucket int) string {
	gridLat := math.Floor(lat/s.cacheGridSize) * s.cacheGridSize
	gridLon := math.Floor(lon/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%.2f:%.2f:%s:%02d", gridLat, gridLon, targetDate.Format("2006-01-02"), hourBucket)
}

// cleanupIfNeeded drops expired entries. Caller must hold the write lock.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	expired := 0
	for key, cached := range s.cache {
		if now.After(cached.expiresAt) {
			delete(s.cache, key)
			expired++
		}
	}
	if expired > 0 {
		s.logger.Debug().Int("expired_entries", expired).Msg("cleaned up expired forecast cache entries")
	}
}

// InvalidateCache clears all cached records.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedRecord)
}

// validateCoordinates checks that coordinates are finite and in range.
func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
