// Package collector enriches labeled observation batches with forecast
// features for model training.
package collector

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/abrigobot/abrigobot/internal/forecast"
)

// Forecaster fetches the hourly forecast record for a location and time.
type Forecaster interface {
	Fetch(ctx context.Context, lat, lon float64, targetDate time.Time, hourBucket int) (*forecast.Record, error)
}

// Config holds configuration for a collector job.
type Config struct {
	Forecaster Forecaster
	Logger     zerolog.Logger

	// MinDelay and MaxDelay bound the randomized pause before each
	// provider call. Defaults: 2s and 5s.
	MinDelay time.Duration
	MaxDelay time.Duration

	// Rand overrides the delay source. Defaults to a time-seeded source.
	Rand *rand.Rand
}

// Stats summarizes a collector run.
type Stats struct {
	Total    int
	Enriched int
	Skipped  int
}

// Job runs a single batch enrichment pass.
type Job struct {
	forecaster Forecaster
	logger     zerolog.Logger
	minDelay   time.Duration
	maxDelay   time.Duration
	rand       *rand.Rand
}

// New creates a collector job with the given configuration.
func New(cfg Config) *Job {
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = 2 * time.Second
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Job{
		forecaster: cfg.Forecaster,
		logger:     cfg.Logger,
		minDelay:   cfg.MinDelay,
		maxDelay:   cfg.MaxDelay,
		rand:       cfg.Rand,
	}
}

// Run reads labeled observations from in, enriches each with forecast
// features and writes the merged rows to out. Rows that cannot be
// enriched are logged and skipped. Run stops early only when ctx is
// cancelled or the input or output stream fails.
func (j *Job) Run(ctx context.Context, in io.Reader, out io.Writer) (*Stats, error) {
	reader := csv.NewReader(in)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read input header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(outputHeader(header)); err != nil {
		return nil, fmt.Errorf("write output header: %w", err)
	}

	stats := &Stats{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read input row: %w", err)
		}
		stats.Total++

		if err := j.pause(ctx); err != nil {
			return stats, err
		}

		merged, err := j.enrich(ctx, row, cols)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Skipped++
			j.logger.Warn().Err(err).Int("row", stats.Total).Msg("skipping row")
			continue
		}

		if err := writer.Write(merged); err != nil {
			return stats, fmt.Errorf("write output row: %w", err)
		}
		stats.Enriched++

		if stats.Total%25 == 0 {
			j.logger.Info().
				Int("total", stats.Total).
				Int("enriched", stats.Enriched).
				Int("skipped", stats.Skipped).
				Msg("collector progress")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}
	return stats, nil
}

// pause sleeps for a random duration in [minDelay, maxDelay), or returns
// early when ctx is cancelled.
func (j *Job) pause(ctx context.Context) error {
	delay := j.minDelay
	if span := j.maxDelay - j.minDelay; span > 0 {
		delay += time.Duration(j.rand.Int63n(int64(span)))
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (j *Job) enrich(ctx context.Context, row []string, cols columns) ([]string, error) {
	if len(row) <= cols.max() {
		return nil, fmt.Errorf("row has %d columns, want at least %d", len(row), cols.max()+1)
	}

	date, err := parseDate(row[cols.date])
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", row[cols.date], err)
	}
	lat, err := strconv.ParseFloat(row[cols.lat], 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat %q: %w", row[cols.lat], err)
	}
	lon, err := strconv.ParseFloat(row[cols.lon], 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon %q: %w", row[cols.lon], err)
	}
	hourBucket, err := strconv.Atoi(row[cols.hour])
	if err != nil {
		return nil, fmt.Errorf("parse hour_integer %q: %w", row[cols.hour], err)
	}

	record, err := j.forecaster.Fetch(ctx, lat, lon, date, hourBucket)
	if err != nil {
		return nil, err
	}

	merged := make([]string, 0, len(row)+2+len(forecast.HourlyVariables))
	merged = append(merged, row...)
	merged = append(merged,
		strconv.Itoa(record.LocalHour),
		formatFloat(record.Elevation),
	)
	for _, name := range forecast.HourlyVariables {
		merged = append(merged, formatFloat(record.Values[name]))
	}
	return merged, nil
}

type columns struct {
	date int
	lat  int
	lon  int
	hour int
}

func (c columns) max() int {
	m := c.date
	for _, v := range []int{c.lat, c.lon, c.hour} {
		if v > m {
			m = v
		}
	}
	return m
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{date: -1, lat: -1, lon: -1, hour: -1}
	for i, name := range header {
		switch name {
		case "date":
			cols.date = i
		case "lat":
			cols.lat = i
		case "lon":
			cols.lon = i
		case "hour_integer":
			cols.hour = i
		}
	}
	for name, idx := range map[string]int{
		"date": cols.date, "lat": cols.lat, "lon": cols.lon, "hour_integer": cols.hour,
	} {
		if idx < 0 {
			return cols, fmt.Errorf("input header missing %q column", name)
		}
	}
	return cols, nil
}

func outputHeader(header []string) []string {
	out := make([]string, 0, len(header)+2+len(forecast.HourlyVariables))
	out = append(out, header...)
	out = append(out, "hour_geo", "alt")
	for _, name := range forecast.HourlyVariables {
		out = append(out, "weather_"+name)
	}
	return out
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
