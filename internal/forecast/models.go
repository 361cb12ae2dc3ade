// Package forecast provides hourly weather data for a coordinate and target
// date, resolved to the single sample the feature row is built from.
package forecast

import (
	"errors"
	"time"
)

// Forecast errors.
var (
	ErrProviderUnavailable = errors.New("forecast provider unavailable")
	ErrNoMatchingHour      = errors.New("no hourly sample for requested date and hour")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// HourlyVariables is the fixed set of hourly variables requested from the
// provider, in request order. The classifier was trained against rows built
// from this exact list; do not reorder or trim it without retraining.
var HourlyVariables = []string{
	"temperature_2m",
	"snow_depth",
	"relative_humidity_2m",
	"dew_point_2m",
	"apparent_temperature",
	"precipitation_probability",
	"precipitation",
	"rain",
	"showers",
	"snowfall",
	"weather_code",
	"pressure_msl",
	"surface_pressure",
	"cloud_cover",
	"cloud_cover_low",
	"cloud_cover_mid",
	"cloud_cover_high",
	"evapotranspiration",
	"visibility",
	"et0_fao_evapotranspiration",
	"vapour_pressure_deficit",
	"wind_speed_10m",
	"wind_speed_80m",
	"wind_speed_120m",
	"wind_speed_180m",
	"wind_direction_10m",
	"wind_direction_80m",
	"wind_direction_120m",
	"wind_direction_180m",
	"wind_gusts_10m",
	"temperature_80m",
	"temperature_120m",
	"temperature_180m",
	"soil_temperature_0cm",
	"soil_temperature_6cm",
	"soil_temperature_18cm",
	"soil_temperature_54cm",
	"soil_moisture_0_to_1cm",
	"soil_moisture_1_to_3cm",
	"soil_moisture_3_to_9cm",
	"soil_moisture_9_to_27cm",
	"soil_moisture_27_to_81cm",
	"uv_index",
	"uv_index_clear_sky",
	"is_day",
	"sunshine_duration",
	"wet_bulb_temperature_2m",
	"shortwave_radiation",
	"boundary_layer_height",
	"freezing_level_height",
	"convective_inhibition",
	"lifted_index",
	"cape",
	"total_column_integrated_water_vapour",
	"direct_radiation",
	"diffuse_radiation",
	"direct_normal_irradiance",
	"global_tilted_irradiance",
	"terrestrial_radiation",
	"terrestrial_radiation_instant",
	"global_tilted_irradiance_instant",
	"direct_normal_irradiance_instant",
	"diffuse_radiation_instant",
	"direct_radiation_instant",
	"shortwave_radiation_instant",
}

// Series is the raw hourly time series returned by a provider for a
// coordinate and date window. Sample timestamps are UTC epoch seconds;
// UTCOffsetSeconds is the provider's timezone correction for the location.
type Series struct {
	Times            []int64
	Values           map[string][]float64
	UTCOffsetSeconds int64
	Elevation        float64
}

// Record is the single hourly sample matched to a target date and hour.
type Record struct {
	// Values holds one entry per requested hourly variable.
	Values map[string]float64

	// Time is the UTC timestamp of the matched sample.
	Time time.Time

	// LocalHour is the provider's timezone-corrected hour of day for the
	// matched sample. Display only, never fed to the classifier.
	LocalHour int

	// Elevation is the provider's elevation estimate in meters.
	Elevation float64
}
