package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrigobot/abrigobot/internal/api"
	"github.com/abrigobot/abrigobot/internal/features"
	"github.com/abrigobot/abrigobot/internal/forecast"
	"github.com/abrigobot/abrigobot/internal/history"
	"github.com/abrigobot/abrigobot/internal/recommend"
)

type mockForecaster struct {
	record *forecast.Record
	err    error
}

func (m *mockForecaster) Fetch(_ context.Context, _, _ float64, _ time.Time, _ int) (*forecast.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

type fixedModel struct {
	classes []string
	probs   []float64
	err     error
}

func (m *fixedModel) Classes() []string { return m.classes }

func (m *fixedModel) FeatureNames() []string {
	names := []string{
		features.FeatureEnvironment,
		features.FeatureAltitude,
		features.FeatureHalfOfDay,
		features.FeatureHourBucket,
	}
	for _, name := range forecast.HourlyVariables {
		switch name {
		case "precipitation_probability", "boundary_layer_height", "total_column_integrated_water_vapour":
			continue
		}
		names = append(names, features.WeatherPrefix+name)
	}
	return append(names, features.FeatureSeason)
}

func (m *fixedModel) Score(_ context.Context, _ *features.Row) ([]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.probs, nil
}

func apiRecord() *forecast.Record {
	values := make(map[string]float64, len(forecast.HourlyVariables))
	for _, name := range forecast.HourlyVariables {
		values[name] = 0.0
	}
	values["temperature_2m"] = 15.0
	values["relative_humidity_2m"] = 60.0
	values["apparent_temperature"] = 14.0
	values["wind_speed_10m"] = 2.5
	return &forecast.Record{
		Values:    values,
		LocalHour: 9,
		Elevation: 25.0,
	}
}

func newTestRouter(t *testing.T, forecaster *mockForecaster, model *fixedModel, repo history.Repository) http.Handler {
	t.Helper()
	builder := features.NewBuilder(forecaster, zerolog.Nop())
	service := recommend.NewService(recommend.ServiceConfig{
		Builder: builder,
		Model:   model,
		History: repo,
		Logger:  zerolog.Nop(),
		Now: func() time.Time {
			return time.Date(2025, time.July, 10, 12, 0, 0, 0, time.UTC)
		},
	})
	return api.NewRouter(api.RouterConfig{
		Version:          "test",
		Logger:           zerolog.Nop(),
		RecommendService: service,
		History:          repo,
	})
}

func defaultModel() *fixedModel {
	return &fixedModel{
		classes: []string{"light", "medium", "heavy"},
		probs:   []float64{0.2, 0.5, 0.3},
	}
}

func postPredict(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Predict(t *testing.T) {
	repo := history.NewInMemoryRepository()
	router := newTestRouter(t, &mockForecaster{record: apiRecord()}, defaultModel(), repo)

	rec := postPredict(t, router, `{"lat":-34.58,"lon":-58.42,"lead":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	assert.Equal(t, "medium", payload["class_1st"])
	assert.Equal(t, 0.5, payload["prob_1st"])
	assert.Equal(t, "heavy", payload["class_2nd"])
	assert.Equal(t, 0.3, payload["prob_2nd"])
	assert.Equal(t, true, payload["second_option"])
	assert.Equal(t, 15.0, payload["temperature"])
	assert.Equal(t, 60.0, payload["humidity"])
	assert.Equal(t, 14.0, payload["apparent_temperature"])
	assert.Equal(t, 2.5, payload["weather_wind_speed_10m"])
	assert.Equal(t, 12.0, payload["hour_integer"])
	assert.Equal(t, 0.0, payload["minute"])
	assert.Equal(t, 9.0, payload["hour_geo"])
	assert.Equal(t, 25.0, payload["alt"])
	assert.Equal(t, 0.0, payload["precipitation_prob"])

	advice, ok := payload["rain_advice"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "not_necessary", advice["category"])
	assert.Equal(t, "Salir con ☔️ no es necesario hoy", advice["message"])

	// The served prediction lands in the history log.
	records, err := repo.ListRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "medium", records[0].Class1)
}

func TestRouter_PredictInvalidBody(t *testing.T) {
	router := newTestRouter(t, &mockForecaster{record: apiRecord()}, defaultModel(), nil)

	rec := postPredict(t, router, `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouter_PredictInvalidInput(t *testing.T) {
	router := newTestRouter(t, &mockForecaster{record: apiRecord()}, defaultModel(), nil)

	rec := postPredict(t, router, `{"lat":95,"lon":0,"lead":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "Validation error", problem["title"])
}

func TestRouter_PredictPipelineFailure(t *testing.T) {
	router := newTestRouter(t, &mockForecaster{err: errors.New("provider down")}, defaultModel(), nil)

	rec := postPredict(t, router, `{"lat":0,"lon":0,"lead":0}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// Pipeline failures keep the generic shape.
	assert.JSONEq(t, `{"error":"prediction failed"}`, rec.Body.String())
}

func TestRouter_PredictRejectsWrongContentType(t *testing.T) {
	router := newTestRouter(t, &mockForecaster{record: apiRecord()}, defaultModel(), nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/predict", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t, &mockForecaster{record: apiRecord()}, defaultModel(), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
}

func TestRouter_Ready(t *testing.T) {
	router := newTestRouter(t, &mockForecaster{record: apiRecord()}, defaultModel(), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RecentPredictions(t *testing.T) {
	repo := history.NewInMemoryRepository()
	router := newTestRouter(t, &mockForecaster{record: apiRecord()}, defaultModel(), repo)

	for i := 0; i < 3; i++ {
		rec := postPredict(t, router, `{"lat":-34.58,"lon":-58.42,"lead":0}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/predictions/recent?limit=2", http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Predictions []map[string]interface{} `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(t, payload.Predictions, 2)

	// Bad limit is rejected.
	req = httptest.NewRequest(http.MethodGet, "/v1/predictions/recent?limit=zero", http.NoBody)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_NoHistoryRouteWithoutRepository(t *testing.T) {
	router := newTestRouter(t, &mockForecaster{record: apiRecord()}, defaultModel(), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/predictions/recent", http.NoBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
