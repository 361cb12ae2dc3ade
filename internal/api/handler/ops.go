package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/abrigobot/abrigobot/internal/api/models"
	"github.com/abrigobot/abrigobot/internal/api/response"
)

// ProviderProbe reports the circuit state of one upstream provider.
type ProviderProbe struct {
	Name  string
	State func() gobreaker.State
}

// OpsHandler handles operational endpoints (health, readiness, status).
type OpsHandler struct {
	version string
	started time.Time
	probes  []ProviderProbe
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version string, probes []ProviderProbe) *OpsHandler {
	return &OpsHandler{
		version: version,
		started: time.Now(),
		probes:  probes,
	}
}

// Health handles GET /v1/ops/health - liveness probe.
func (h *OpsHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now().UTC(),
		Details: map[string]interface{}{
			"version": h.version,
			"uptime":  time.Since(h.started).Truncate(time.Second).String(),
		},
	})
}

// Ready handles GET /v1/ops/ready - readiness probe.
//
// Readiness degrades when any upstream circuit is open: the service can
// still answer, but predictions will fail until the provider recovers.
func (h *OpsHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	code := http.StatusOK
	providers := make([]models.ProviderStatus, 0, len(h.probes))
	for _, p := range h.probes {
		state := p.State()
		healthy := state != gobreaker.StateOpen
		if !healthy {
			status = models.HealthStatusDegraded
			code = http.StatusServiceUnavailable
		}
		providers = append(providers, models.ProviderStatus{
			Provider:     p.Name,
			CircuitState: state.String(),
			Healthy:      healthy,
		})
	}

	response.JSON(w, r, code, models.SystemStatus{
		Status:    status,
		Time:      time.Now().UTC(),
		Providers: providers,
	})
}
