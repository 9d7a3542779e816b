package observability

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus represents the health status of the bridge
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// GatewayStatusSource reports the configuration status of every gateway name
type GatewayStatusSource interface {
	GatewayStatus() map[string]string
}

// HealthChecker manages health checks for the bridge
type HealthChecker struct {
	gateways GatewayStatusSource
}

// NewHealthChecker creates a new HealthChecker
func NewHealthChecker(gateways GatewayStatusSource) *HealthChecker {
	return &HealthChecker{
		gateways: gateways,
	}
}

// Check performs health checks and returns the status
// Unconfigured gateways degrade the status but the process keeps serving
func (h *HealthChecker) Check() HealthStatus {
	checks := make(map[string]string)
	overallStatus := "healthy"

	if h.gateways != nil {
		for name, status := range h.gateways.GatewayStatus() {
			checks["gateway:"+name] = status
			if status != "configured" {
				overallStatus = "degraded"
			}
		}
	}

	return HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    checks,
	}
}

// HealthHandler returns an HTTP handler for health checks
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}
