// Package openmeteo provides a client for the Open-Meteo forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abrigobot/abrigobot/internal/forecast"
	"github.com/abrigobot/abrigobot/internal/provider/resilience"
)

const (
	// ProviderName identifies this forecast provider.
	ProviderName = "openmeteo"

	// DefaultBaseURL is the Open-Meteo forecast endpoint.
	DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

	// HistoricalBaseURL is the historical forecast endpoint used by the
	// training-data collector.
	HistoricalBaseURL = "https://historical-forecast-api.open-meteo.com/v1/forecast"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// BaseURL is the forecast endpoint (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient executes requests. If nil, a resilient client is created.
	HTTPClient HTTPDoer

	// Timeout for individual requests (default: 10s).
	Timeout time.Duration
}

// Client is an Open-Meteo API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "?"),
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchHourly fetches the full hourly series for a coordinate over
// [startDate, endDate]. Timestamps are requested as UTC epoch seconds;
// timezone=auto makes the provider report the location's UTC offset.
func (c *Client) FetchHourly(ctx context.Context, lat, lon float64, startDate, endDate time.Time) (*forecast.Series, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.6f", lat))
	params.Set("longitude", fmt.Sprintf("%.6f", lon))
	params.Set("start_date", startDate.Format("2006-01-02"))
	params.Set("end_date", endDate.Format("2006-01-02"))
	params.Set("hourly", strings.Join(forecast.HourlyVariables, ","))
	params.Set("timezone", "auto")
	params.Set("timeformat", "unixtime")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var omResp forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&omResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return toSeries(&omResp)
}

// toSeries converts the raw API response to the domain series.
// Null samples become NaN, mirroring how the provider reports gaps.
func toSeries(resp *forecastResponse) (*forecast.Series, error) {
	times, ok := resp.Hourly["time"]
	if !ok || len(times) == 0 {
		return nil, fmt.Errorf("response missing hourly time axis")
	}

	series := &forecast.Series{
		Times:            make([]int64, len(times)),
		Values:           make(map[string][]float64, len(forecast.HourlyVariables)),
		UTCOffsetSeconds: resp.UTCOffsetSeconds,
		Elevation:        resp.Elevation,
	}
	for i, t := range times {
		if t == nil {
			return nil, fmt.Errorf("null timestamp at index %d", i)
		}
		series.Times[i] = int64(*t)
	}

	for _, name := range forecast.HourlyVariables {
		raw, ok := resp.Hourly[name]
		if !ok {
			return nil, fmt.Errorf("response missing hourly variable %q", name)
		}
		values := make([]float64, len(raw))
		for i, v := range raw {
			if v == nil {
				values[i] = math.NaN()
				continue
			}
			values[i] = *v
		}
		series.Values[name] = values
	}

	return series, nil
}

// forecastResponse mirrors the Open-Meteo JSON payload. All hourly arrays,
// including the time axis, arrive under "hourly" keyed by variable name.
type forecastResponse struct {
	Latitude         float64               `json:"latitude"`
	Longitude        float64               `json:"longitude"`
	UTCOffsetSeconds int64                 `json:"utc_offset_seconds"`
	Elevation        float64               `json:"elevation"`
	Hourly           map[string][]*float64 `json:"hourly"`
}
