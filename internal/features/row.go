// Package features assembles the classifier input row for a prediction
// request: calendar and time-bucket fields plus the merged forecast record.
package features

// Feature names for the non-weather columns. Weather variables are merged
// under the WeatherPrefix namespace to avoid collisions with calendar fields.
const (
	FeatureEnvironment = "Ambiente"
	FeatureAltitude    = "alt"
	FeatureHalfOfDay   = "Half_of_day"
	FeatureHourBucket  = "hour_integer"
	FeatureSeason      = "season"

	WeatherPrefix = "weather_"
)

// Categorical feature values.
const (
	EnvironmentOutdoor = "afuera"

	HalfOfDayAM = "AM"
	HalfOfDayPM = "PM"

	SeasonSummer = "summer"
	SeasonFall   = "fall"
	SeasonWinter = "winter"
	SeasonSpring = "spring"
)

// Value is a single feature value, either categorical or numeric.
type Value struct {
	Str         string
	Num         float64
	Categorical bool
}

// Row is an ordered feature vector. Field order is part of the classifier's
// input contract and must match the schema the model was trained on.
type Row struct {
	names  []string
	values []Value
}

// NewRow creates an empty row with capacity for n features.
func NewRow(n int) *Row {
	return &Row{
		names:  make([]string, 0, n),
		values: make([]Value, 0, n),
	}
}

// AddCategorical appends a categorical feature.
func (r *Row) AddCategorical(name, value string) {
	r.names = append(r.names, name)
	r.values = append(r.values, Value{Str: value, Categorical: true})
}

// AddNumeric appends a numeric feature.
func (r *Row) AddNumeric(name string, value float64) {
	r.names = append(r.names, name)
	r.values = append(r.values, Value{Num: value})
}

// Len returns the number of features in the row.
func (r *Row) Len() int {
	return len(r.names)
}

// Names returns the ordered feature names.
func (r *Row) Names() []string {
	return r.names
}

// At returns the feature at position i.
func (r *Row) At(i int) (string, Value) {
	return r.names[i], r.values[i]
}

// Numeric returns the named numeric feature value.
func (r *Row) Numeric(name string) (float64, bool) {
	for i, n := range r.names {
		if n == name && !r.values[i].Categorical {
			return r.values[i].Num, true
		}
	}
	return 0, false
}

// Categorical returns the named categorical feature value.
func (r *Row) Categorical(name string) (string, bool) {
	for i, n := range r.names {
		if n == name && r.values[i].Categorical {
			return r.values[i].Str, true
		}
	}
	return "", false
}
