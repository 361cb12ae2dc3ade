package models

import "time"

// HealthStatus values.
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
)

// Health is the liveness/readiness payload.
type Health struct {
	Status  string                 `json:"status"`
	Time    time.Time              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ProviderStatus reports the health of one upstream provider.
type ProviderStatus struct {
	Provider     string `json:"provider"`
	CircuitState string `json:"circuitState"`
	Healthy      bool   `json:"healthy"`
}

// SystemStatus is the provider/subsystem status payload.
type SystemStatus struct {
	Status    string           `json:"status"`
	Time      time.Time        `json:"time"`
	Providers []ProviderStatus `json:"providers"`
}
