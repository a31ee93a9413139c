// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Poller metrics
	PollAttempts *prometheus.CounterVec
	PollOutcomes *prometheus.CounterVec

	// Flow metrics
	FlowStageTransitions *prometheus.CounterVec
	FlowsCompleted       *prometheus.CounterVec
	FlowDuration         *prometheus.HistogramVec

	// Chain client metrics
	RPCCallLatency        *prometheus.HistogramVec
	TransactionsSubmitted *prometheus.CounterVec

	// HTTP API metrics
	APIRequests       *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// Database metrics
	DBQueryErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "miden_wallet_lab"
	}

	return &Metrics{
		// Poller metrics
		PollAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "attempts_total",
			Help:      "Total number of poll attempts by result (found, empty, error)",
		}, []string{"result"}),
		PollOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "outcomes_total",
			Help:      "Total number of completed polls by outcome (found, timeout)",
		}, []string{"outcome"}),

		// Flow metrics
		FlowStageTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "stage_transitions_total",
			Help:      "Total number of flow stage transitions",
		}, []string{"flow", "stage"}),
		FlowsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "completed_total",
			Help:      "Total number of flows finished by status (completed, error)",
		}, []string{"flow", "status"}),
		FlowDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "duration_seconds",
			Help:      "Flow execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"flow"}),

		// Chain client metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "miden",
			Name:      "rpc_call_latency_seconds",
			Help:      "Miden node RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		TransactionsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "miden",
			Name:      "transactions_submitted_total",
			Help:      "Total number of transactions submitted by kind",
		}, []string{"kind"}),

		// HTTP API metrics
		APIRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP API requests by route and status code",
		}, []string{"route", "status"}),
		APIRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_latency_seconds",
			Help:      "HTTP API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		// WebSocket metrics
		WSConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Current number of WebSocket subscribers",
		}),

		// Database metrics
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPollAttempt records one poll attempt by result.
func RecordPollAttempt(result string) {
	DefaultMetrics.PollAttempts.WithLabelValues(result).Inc()
}

// RecordPollOutcome records a finished poll by outcome.
func RecordPollOutcome(outcome string) {
	DefaultMetrics.PollOutcomes.WithLabelValues(outcome).Inc()
}

// RecordFlowStage records a flow stage transition.
func RecordFlowStage(flow, stage string) {
	DefaultMetrics.FlowStageTransitions.WithLabelValues(flow, stage).Inc()
}

// RecordFlowFinished records a finished flow with its duration.
func RecordFlowFinished(flow, status string, durationSeconds float64) {
	DefaultMetrics.FlowsCompleted.WithLabelValues(flow, status).Inc()
	DefaultMetrics.FlowDuration.WithLabelValues(flow).Observe(durationSeconds)
}

// RecordRPCCall records the latency of one node RPC call.
func RecordRPCCall(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordTransactionSubmitted increments the submitted transactions counter.
func RecordTransactionSubmitted(kind string) {
	DefaultMetrics.TransactionsSubmitted.WithLabelValues(kind).Inc()
}

// RecordAPIRequest records an HTTP API request.
func RecordAPIRequest(route, status string, seconds float64) {
	DefaultMetrics.APIRequests.WithLabelValues(route, status).Inc()
	DefaultMetrics.APIRequestLatency.WithLabelValues(route).Observe(seconds)
}

// RecordDBQueryError records a database query error.
func RecordDBQueryError(database, operation string) {
	DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
}
