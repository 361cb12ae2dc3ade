// Package modelserver provides a client for the external model-serving
// process that hosts the trained clothing classifier.
package modelserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/abrigobot/abrigobot/internal/features"
	"github.com/abrigobot/abrigobot/internal/provider/resilience"
)

const (
	// ProviderName identifies the model server.
	ProviderName = "modelserver"

	// DefaultBaseURL is the model server's default local address.
	DefaultBaseURL = "http://localhost:8501"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the model server client.
type ClientConfig struct {
	// BaseURL is the model server address (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient executes requests. If nil, a resilient client is created.
	HTTPClient HTTPDoer

	// Timeout for individual requests (default: 10s).
	Timeout time.Duration
}

// Client scores feature rows against the served model. It implements
// classifier.Model once Load has fetched the model's schema and class list.
type Client struct {
	baseURL    string
	httpClient HTTPDoer

	mu       sync.RWMutex
	classes  []string
	schema   []string
	loadedAt time.Time
}

// NewClient creates a new model server client. Call Load before scoring.
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
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     2 * time.Second,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Load fetches the served model's metadata: its class list in stable output
// order and the ordered feature schema it was trained on.
func (c *Client) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/model", http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var meta modelMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return fmt.Errorf("decoding model metadata: %w", err)
	}
	if len(meta.Classes) == 0 || len(meta.Features) == 0 {
		return fmt.Errorf("model metadata missing classes or features")
	}

	c.mu.Lock()
	c.classes = meta.Classes
	c.schema = meta.Features
	c.loadedAt = time.Now()
	c.mu.Unlock()

	return nil
}

// Classes returns the loaded class list.
func (c *Client) Classes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.classes
}

// FeatureNames returns the loaded feature schema.
func (c *Client) FeatureNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.schema
}

// Score sends the row to the model server and returns the class probability
// distribution in the model's class order.
func (c *Client) Score(ctx context.Context, row *features.Row) ([]float64, error) {
	payload := scoreRequest{Features: make([]featureValue, 0, row.Len())}
	for i := 0; i < row.Len(); i++ {
		name, value := row.At(i)
		fv := featureValue{Name: name}
		if value.Categorical {
			fv.Value = value.Str
		} else {
			fv.Value = value.Num
		}
		payload.Features = append(payload.Features, fv)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var scored scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&scored); err != nil {
		return nil, fmt.Errorf("decoding score response: %w", err)
	}

	return scored.Probabilities, nil
}

// Model server wire types.

type modelMetadata struct {
	Classes  []string `json:"classes"`
	Features []string `json:"features"`
}

type scoreRequest struct {
	Features []featureValue `json:"features"`
}

type featureValue struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

type scoreResponse struct {
	Probabilities []float64 `json:"probabilities"`
}
