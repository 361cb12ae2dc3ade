package features

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/abrigobot/abrigobot/internal/forecast"
)

// droppedWeatherVariables are fetched from the provider but excluded from the
// classifier row: the provider's own combined precipitation estimate is
// superseded by the derived average, and the remaining two were dropped
// during training.
var droppedWeatherVariables = map[string]bool{
	"precipitation_probability":            true,
	"boundary_layer_height":                true,
	"total_column_integrated_water_vapour": true,
}

// Forecaster resolves a coordinate, date, and hour bucket to a single hourly
// record.
type Forecaster interface {
	Fetch(ctx context.Context, lat, lon float64, targetDate time.Time, hourBucket int) (*forecast.Record, error)
}

// Builder assembles classifier input rows.
type Builder struct {
	forecaster Forecaster
	logger     zerolog.Logger
}

// NewBuilder creates a feature builder backed by the given forecaster.
func NewBuilder(forecaster Forecaster, logger zerolog.Logger) *Builder {
	return &Builder{forecaster: forecaster, logger: logger}
}

// Display carries the human-facing fields that accompany a prediction but
// are not part of the classifier row.
type Display struct {
	// LocalHour is the provider's timezone-corrected hour for the matched sample.
	LocalHour int

	// Minute and HourBucket of the target instant.
	Minute     int
	HourBucket int

	// Altitude is the provider's elevation estimate in meters.
	Altitude float64

	// Meteorology shown alongside the recommendation.
	Temperature         float64
	Humidity            float64
	ApparentTemperature float64
	WindSpeed10m        float64

	// Precipitation is the raw measured intensity; PrecipitationProb is the
	// derived probability in [0,1].
	Precipitation     float64
	PrecipitationProb float64
}

// Result is a finalized feature row plus its display fields.
type Result struct {
	Row     *Row
	Display Display
}

// Build computes the feature row for (lat, lon) at now + leadHours.
// The forecast gateway is called exactly once.
func (b *Builder) Build(ctx context.Context, lat, lon float64, leadHours int, now time.Time) (*Result, error) {
	target := now.UTC().Add(time.Duration(leadHours) * time.Hour)

	hour := target.Hour()
	minute := target.Minute()
	bucket := HourBucket(hour, minute)

	record, err := b.forecaster.Fetch(ctx, lat, lon, target, bucket)
	if err != nil {
		return nil, fmt.Errorf("fetching forecast record: %w", err)
	}

	b.logger.Debug().
		Int("hour_bucket", bucket).
		Int("local_hour", record.LocalHour).
		Float64("elevation", record.Elevation).
		Msg("forecast record merged into feature row")

	row := NewRow(len(forecast.HourlyVariables) + 5)
	row.AddCategorical(FeatureEnvironment, EnvironmentOutdoor)
	row.AddNumeric(FeatureAltitude, record.Elevation)
	row.AddCategorical(FeatureHalfOfDay, HalfOfDay(hour))
	row.AddNumeric(FeatureHourBucket, float64(bucket))
	for _, name := range forecast.HourlyVariables {
		if droppedWeatherVariables[name] {
			continue
		}
		row.AddNumeric(WeatherPrefix+name, record.Values[name])
	}
	row.AddCategorical(FeatureSeason, SeasonForMonth(target.Month()))

	display := Display{
		LocalHour:           record.LocalHour,
		Minute:              minute,
		HourBucket:          bucket,
		Altitude:            record.Elevation,
		Temperature:         record.Values["temperature_2m"],
		Humidity:            record.Values["relative_humidity_2m"],
		ApparentTemperature: record.Values["apparent_temperature"],
		WindSpeed10m:        record.Values["wind_speed_10m"],
		Precipitation:       record.Values["precipitation"],
		PrecipitationProb:   precipitationProbability(record),
	}

	return &Result{Row: row, Display: display}, nil
}

// HourBucket rounds an instant to the hourly forecast sample it belongs to:
// minutes of 30 or more round up, and 23:30+ clamps to 23 rather than
// spilling into the next day.
func HourBucket(hour, minute int) int {
	bucket := hour
	if minute >= 30 {
		bucket++
	}
	if bucket > 23 {
		bucket = 23
	}
	return bucket
}

// HalfOfDay returns AM for hours before noon, PM otherwise.
func HalfOfDay(hour int) string {
	if hour < 12 {
		return HalfOfDayAM
	}
	return HalfOfDayPM
}

// SeasonForMonth maps a month to the season label the classifier was trained
// with. The grouping is kept exactly as trained: Dec-Feb is "summer", Mar-May
// "fall", Jun-Aug "winter", Sep-Nov "spring". Changing it requires retraining.
func SeasonForMonth(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return SeasonSummer
	case time.March, time.April, time.May:
		return SeasonFall
	case time.June, time.July, time.August:
		return SeasonWinter
	default:
		return SeasonSpring
	}
}

// precipitationProbability is the unweighted mean of the rain, snowfall, and
// showers values for the matched hour.
func precipitationProbability(record *forecast.Record) float64 {
	return (record.Values["rain"] + record.Values["snowfall"] + record.Values["showers"]) / 3.0
}
