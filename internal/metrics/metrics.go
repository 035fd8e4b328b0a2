package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Planning pipeline metrics
	PlansStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wanderwise_plans_started_total",
			Help: "Total number of trip planning requests started",
		},
	)

	PlansCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wanderwise_plans_completed_total",
			Help: "Total number of trip planning requests completed",
		},
		[]string{"status"},
	)

	PlanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wanderwise_plan_duration_seconds",
			Help:    "End-to-end planning pipeline duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Agent metrics
	AgentExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wanderwise_agent_executions_total",
			Help: "Total number of role agent executions",
		},
		[]string{"agent"},
	)

	AgentFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wanderwise_agent_fallbacks_total",
			Help: "Role agent executions that degraded to the deterministic fallback",
		},
		[]string{"agent", "reason"},
	)

	AgentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wanderwise_agent_duration_seconds",
			Help:    "Role agent execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"agent"},
	)

	// Model provider metrics
	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wanderwise_model_calls_total",
			Help: "Total number of model provider calls",
		},
		[]string{"model", "status"},
	)

	ModelRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wanderwise_model_retries_total",
			Help: "Total number of model call retry attempts",
		},
	)

	ModelCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wanderwise_model_call_duration_seconds",
			Help:    "Model provider call duration including retries",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	ModelTokensUsed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wanderwise_model_tokens_used",
			Help:    "Number of tokens used per model call",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	// Session metrics
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wanderwise_sessions_created_total",
			Help: "Total number of sessions created",
		},
	)

	SessionCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wanderwise_session_cache_size",
			Help: "Number of sessions in the local cache",
		},
	)

	SessionCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wanderwise_session_cache_evictions_total",
			Help: "Total number of sessions evicted from the local cache",
		},
	)

	// Persistence metrics
	TripWritesQueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wanderwise_trip_writes_queued_total",
			Help: "Total number of trip history writes queued",
		},
	)

	TripWritesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wanderwise_trip_writes_dropped_total",
			Help: "Trip history writes dropped because the queue was full",
		},
	)

	TripWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wanderwise_trip_write_failures_total",
			Help: "Trip history writes that failed after reaching the database",
		},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wanderwise_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wanderwise_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wanderwise_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wanderwise_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wanderwise_circuit_breaker_trips_total",
			Help: "Total number of circuit breaker open transitions",
		},
		[]string{"name"},
	)
)

// RecordHTTPRequest records count and latency for one served request.
func RecordHTTPRequest(path, method string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}
