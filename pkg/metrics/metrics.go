package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreFetches counts collection fetches by store, mode (reset|refresh|more|detail) and result.
	StoreFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storedesk_store_fetch_total",
			Help: "Total number of store fetches",
		},
		[]string{"store", "mode", "result"},
	)

	// StoreMutations counts store writes and optimistic protocol outcomes.
	StoreMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storedesk_store_mutation_total",
			Help: "Total number of store mutations",
		},
		[]string{"store", "op", "result"},
	)

	// StaleResponses counts responses discarded because a newer request superseded them.
	StaleResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storedesk_stale_responses_total",
			Help: "Responses dropped because their request generation was outdated",
		},
		[]string{"store"},
	)

	// APILatency measures backend round trips.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storedesk_api_latency_seconds",
			Help:    "Backend API latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// SandboxRequests counts HTTP requests served by the sandbox backend.
	SandboxRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storedesk_sandbox_requests_total",
			Help: "Total number of sandbox HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// SandboxLatency measures sandbox request durations.
	SandboxLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storedesk_sandbox_request_duration_seconds",
			Help:    "Sandbox HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// PushConnections tracks active push websocket connections.
	PushConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storedesk_push_connections",
			Help: "Number of active push connections",
		},
	)

	// Toasts counts feedback messages shown to the user by kind.
	Toasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storedesk_toasts_total",
			Help: "Total number of toasts shown",
		},
		[]string{"kind"},
	)
)

// Result maps an error to the result label used by the counters above.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
