package features_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrigobot/abrigobot/internal/features"
	"github.com/abrigobot/abrigobot/internal/forecast"
)

// mockForecaster returns a canned record and captures the fetch arguments.
type mockForecaster struct {
	record *forecast.Record
	err    error

	callCount int
	gotLat    float64
	gotLon    float64
	gotDate   time.Time
	gotBucket int
}

func (m *mockForecaster) Fetch(_ context.Context, lat, lon float64, targetDate time.Time, hourBucket int) (*forecast.Record, error) {
	m.callCount++
	m.gotLat = lat
	m.gotLon = lon
	m.gotDate = targetDate
	m.gotBucket = hourBucket
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

func testRecord() *forecast.Record {
	values := make(map[string]float64, len(forecast.HourlyVariables))
	for i, name := range forecast.HourlyVariables {
		values[name] = float64(i)
	}
	values["temperature_2m"] = 12.5
	values["relative_humidity_2m"] = 71.0
	values["apparent_temperature"] = 10.1
	values["wind_speed_10m"] = 4.2
	values["precipitation"] = 0.3
	values["rain"] = 0.6
	values["snowfall"] = 0.0
	values["showers"] = 0.3
	return &forecast.Record{
		Values:    values,
		LocalHour: 14,
		Elevation: 25.0,
	}
}

func TestBuilder_Build(t *testing.T) {
	provider := &mockForecaster{record: testRecord()}
	builder := features.NewBuilder(provider, zerolog.Nop())

	// 17:45 UTC on a July day: bucket rounds up to 18, PM, southern winter.
	now := time.Date(2025, time.July, 10, 17, 45, 0, 0, time.UTC)
	result, err := builder.Build(context.Background(), -34.58, -58.42, 0, now)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.callCount)
	assert.Equal(t, -34.58, provider.gotLat)
	assert.Equal(t, -58.42, provider.gotLon)
	assert.Equal(t, 18, provider.gotBucket)

	row := result.Row
	names := row.Names()
	require.Equal(t, 67, row.Len())

	// First four columns and the trailing season are fixed positions.
	assert.Equal(t, features.FeatureEnvironment, names[0])
	assert.Equal(t, features.FeatureAltitude, names[1])
	assert.Equal(t, features.FeatureHalfOfDay, names[2])
	assert.Equal(t, features.FeatureHourBucket, names[3])
	assert.Equal(t, features.FeatureSeason, names[len(names)-1])

	env, ok := row.Categorical(features.FeatureEnvironment)
	require.True(t, ok)
	assert.Equal(t, features.EnvironmentOutdoor, env)

	half, ok := row.Categorical(features.FeatureHalfOfDay)
	require.True(t, ok)
	assert.Equal(t, features.HalfOfDayPM, half)

	season, ok := row.Categorical(features.FeatureSeason)
	require.True(t, ok)
	assert.Equal(t, features.SeasonWinter, season)

	bucket, ok := row.Numeric(features.FeatureHourBucket)
	require.True(t, ok)
	assert.Equal(t, 18.0, bucket)

	alt, ok := row.Numeric(features.FeatureAltitude)
	require.True(t, ok)
	assert.Equal(t, 25.0, alt)

	// Variables dropped during training never appear in the row.
	for _, dropped := range []string{
		"weather_precipitation_probability",
		"weather_boundary_layer_height",
		"weather_total_column_integrated_water_vapour",
	} {
		_, ok := row.Numeric(dropped)
		assert.False(t, ok, dropped)
	}

	// Remaining weather columns preserve the provider's variable order.
	wantWeather := make([]string, 0, 62)
	for _, name := range forecast.HourlyVariables {
		switch name {
		case "precipitation_probability", "boundary_layer_height", "total_column_integrated_water_vapour":
			continue
		}
		wantWeather = append(wantWeather, features.WeatherPrefix+name)
	}
	assert.Equal(t, wantWeather, names[4:len(names)-1])

	display := result.Display
	assert.Equal(t, 14, display.LocalHour)
	assert.Equal(t, 45, display.Minute)
	assert.Equal(t, 18, display.HourBucket)
	assert.Equal(t, 12.5, display.Temperature)
	assert.Equal(t, 71.0, display.Humidity)
	assert.Equal(t, 10.1, display.ApparentTemperature)
	assert.Equal(t, 4.2, display.WindSpeed10m)
	assert.Equal(t, 0.3, display.Precipitation)
	assert.InDelta(t, 0.3, display.PrecipitationProb, 1e-9)
}

func TestBuilder_BuildLeadHoursShiftsTarget(t *testing.T) {
	provider := &mockForecaster{record: testRecord()}
	builder := features.NewBuilder(provider, zerolog.Nop())

	// 23:00 + 3h crosses into the next UTC day.
	now := time.Date(2025, time.March, 1, 23, 0, 0, 0, time.UTC)
	_, err := builder.Build(context.Background(), 40.0, -3.7, 3, now)
	require.NoError(t, err)

	assert.Equal(t, 2, provider.gotDate.UTC().Day())
	assert.Equal(t, 2, provider.gotBucket)
}

func TestBuilder_BuildProviderError(t *testing.T) {
	wantErr := errors.New("provider down")
	provider := &mockForecaster{err: wantErr}
	builder := features.NewBuilder(provider, zerolog.Nop())

	_, err := builder.Build(context.Background(), 0, 0, 0, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestHourBucket(t *testing.T) {
	tests := []struct {
		hour, minute, want int
	}{
		{10, 0, 10},
		{10, 29, 10},
		{10, 30, 11},
		{10, 59, 11},
		{23, 29, 23},
		{23, 30, 23}, // clamped, never spills into the next day
		{0, 45, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, features.HourBucket(tt.hour, tt.minute), "hour=%d minute=%d", tt.hour, tt.minute)
	}
}

func TestHalfOfDay(t *testing.T) {
	assert.Equal(t, features.HalfOfDayAM, features.HalfOfDay(0))
	assert.Equal(t, features.HalfOfDayAM, features.HalfOfDay(11))
	assert.Equal(t, features.HalfOfDayPM, features.HalfOfDay(12))
	assert.Equal(t, features.HalfOfDayPM, features.HalfOfDay(23))
}

func TestSeasonForMonth(t *testing.T) {
	want := map[time.Month]string{
		time.December:  features.SeasonSummer,
		time.January:   features.SeasonSummer,
		time.February:  features.SeasonSummer,
		time.March:     features.SeasonFall,
		time.April:     features.SeasonFall,
		time.May:       features.SeasonFall,
		time.June:      features.SeasonWinter,
		time.July:      features.SeasonWinter,
		time.August:    features.SeasonWinter,
		time.September: features.SeasonSpring,
		time.October:   features.SeasonSpring,
		time.November:  features.SeasonSpring,
	}
	for month, season := range want {
		assert.Equal(t, season, features.SeasonForMonth(month), month.String())
	}
}
