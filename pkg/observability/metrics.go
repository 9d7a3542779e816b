package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded by the dispatcher
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected" // caller protocol error, backend never invoked
	OutcomeError    = "error"    // backend raised or panicked
)

var (
	// Bridge request metrics
	bridgeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_requests_total",
			Help: "Total number of bridge requests by gateway, action and outcome",
		},
		[]string{"gateway", "action", "outcome"},
	)

	backendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "bridge_backend_duration_seconds",
			Help: "Duration of backend operation calls in seconds",
			// Buckets: 1ms to 30s (in-process bogus calls through slow gateways)
			Buckets: []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"family", "action"},
	)

	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_circuit_breaker_state",
			Help: "Circuit breaker state per backend endpoint (0=closed, 1=open, 2=half-open)",
		},
		[]string{"backend"},
	)
)

// RecordRequest counts one request cycle
// Gateways that do not resolve are recorded as "unknown" to bound label cardinality
func RecordRequest(gateway, action, outcome string, known bool) {
	if !known {
		gateway = "unknown"
	}
	if action == "" {
		action = "none"
	}
	bridgeRequestsTotal.WithLabelValues(gateway, action, outcome).Inc()
}

// RecordBackendCall records how long one backend operation took
func RecordBackendCall(family, action string, seconds float64) {
	backendDuration.WithLabelValues(family, action).Observe(seconds)
}

// SetCircuitBreakerState publishes the breaker state for a backend
func SetCircuitBreakerState(backend string, state int) {
	circuitBreakerState.WithLabelValues(backend).Set(float64(state))
}
