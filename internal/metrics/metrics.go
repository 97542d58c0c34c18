package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pool metrics
	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "route_executor_pool_count",
		Help: "Total number of pools in the simulated market",
	})

	ReadyPoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "route_executor_ready_pool_count",
		Help: "Number of active pools with both reserves funded",
	})

	PoolUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "route_executor_pool_updates_total",
		Help: "Total number of pool upserts received",
	})

	PoolsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "route_executor_pools_persisted_total",
		Help: "Total number of pool records written to storage",
	})

	// Validation metrics
	ValidationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_executor_validation_requests_total",
			Help: "Total number of route spec validations",
		},
		[]string{"result"},
	)

	// Execution metrics
	ExecutionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_executor_execution_requests_total",
			Help: "Total number of route spec executions",
		},
		[]string{"state", "kind"},
	)

	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "route_executor_execution_duration_seconds",
			Help:    "Route spec execution duration in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
		[]string{"mode"},
	)

	AdapterCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_executor_adapter_calls_total",
			Help: "Total number of venue adapter invocations",
		},
		[]string{"venue"},
	)

	RoutesPerSpec = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_executor_routes_per_spec",
		Help:    "Number of parallel routes per executed route spec",
		Buckets: []float64{1, 2, 3, 4, 6, 8},
	})

	HopsPerSpec = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_executor_hops_per_spec",
		Help:    "Total hops across all routes per executed route spec",
		Buckets: []float64{1, 2, 3, 5, 7, 10, 15},
	})

	DuplicateOrders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "route_executor_duplicate_orders_total",
		Help: "Total number of executions rejected for a reused order id",
	})

	JournalErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "route_executor_journal_errors_total",
		Help: "Total number of failed execution journal writes",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_executor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "route_executor_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
