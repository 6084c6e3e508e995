package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Agent metrics
	AgentExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincopilot_agent_executions_total",
			Help: "Total number of agent task executions",
		},
		[]string{"agent", "task", "status"}, // status: success|error
	)

	AgentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fincopilot_agent_duration_seconds",
			Help:    "Agent task execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"agent", "task"},
	)

	// Reasoning (LLM) metrics
	ReasoningRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincopilot_reasoning_requests_total",
			Help: "Total number of LLM reasoning requests",
		},
		[]string{"provider", "status"}, // status: success|error|rate_limited
	)

	ReasoningLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fincopilot_reasoning_latency_seconds",
			Help:    "LLM reasoning latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	// Market data provider metrics
	ProviderFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincopilot_provider_fetches_total",
			Help: "Total number of market data provider fetches",
		},
		[]string{"provider", "endpoint", "status"}, // status: success|error
	)

	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fincopilot_provider_latency_seconds",
			Help:    "Market data provider latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "endpoint"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincopilot_cache_hits_total",
			Help: "Total number of cache lookups",
		},
		[]string{"cache", "result"}, // result: hit|miss
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincopilot_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"}, // database: postgres|redis
	)

	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fincopilot_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"database", "operation"},
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fincopilot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fincopilot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(AgentExecutions)
	prometheus.MustRegister(AgentDuration)

	prometheus.MustRegister(ReasoningRequests)
	prometheus.MustRegister(ReasoningLatency)

	prometheus.MustRegister(ProviderFetches)
	prometheus.MustRegister(ProviderLatency)
	prometheus.MustRegister(CacheHits)

	prometheus.MustRegister(DBQueries)
	prometheus.MustRegister(DBQueryDuration)

	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAgentExecution records an agent task execution
func RecordAgentExecution(agent, task string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	AgentExecutions.WithLabelValues(agent, task, status).Inc()
	AgentDuration.WithLabelValues(agent, task).Observe(duration.Seconds())
}

// RecordReasoningRequest records an LLM reasoning request
func RecordReasoningRequest(provider string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ReasoningRequests.WithLabelValues(provider, status).Inc()
	ReasoningLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// RecordProviderFetch records a market data provider call
func RecordProviderFetch(provider, endpoint string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ProviderFetches.WithLabelValues(provider, endpoint, status).Inc()
	ProviderLatency.WithLabelValues(provider, endpoint).Observe(latency.Seconds())
}

// RecordCacheLookup records a cache hit or miss
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheHits.WithLabelValues(cache, result).Inc()
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	DBQueries.WithLabelValues(database, operation, status).Inc()
	DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}
