package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meshexec",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "meshexec",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meshexec",
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Execution dispatch requests by validation outcome.",
		},
		[]string{"node", "outcome"},
	)
	executions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meshexec",
			Subsystem: "dispatch",
			Name:      "executions_total",
			Help:      "Completed executions by terminal outcome.",
		},
		[]string{"node", "outcome"},
	)
	executionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "meshexec",
			Subsystem: "dispatch",
			Name:      "execution_duration_seconds",
			Help:      "Wall-clock duration of one execution chain run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"node", "outcome"},
	)
	transportAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meshexec",
			Subsystem: "transport",
			Name:      "attempts_total",
			Help:      "Remote-shell transport attempts by transport and outcome.",
		},
		[]string{"node", "transport", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			dispatches,
			executions,
			executionDuration,
			transportAttempts,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordDispatch(node, outcome string) {
	RegisterMetrics()
	dispatches.WithLabelValues(node, outcome).Inc()
}

func RecordExecution(node, outcome string, duration time.Duration) {
	RegisterMetrics()
	executions.WithLabelValues(node, outcome).Inc()
	executionDuration.WithLabelValues(node, outcome).Observe(duration.Seconds())
}

func RecordTransportAttempt(node, transport, outcome string) {
	RegisterMetrics()
	transportAttempts.WithLabelValues(node, transport, outcome).Inc()
}
