// Package metrics holds the prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stackpilot"

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Registry is the registry every collector in this package is registered on.
var Registry = prometheus.NewRegistry()

var (
	// Backend API metrics
	backendCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "api_calls_total",
			Help:      "Total number of provisioning backend API calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	backendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "api_latency_seconds",
			Help:      "Latency of provisioning backend API calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 9), // 50ms to ~13s
		},
		[]string{"operation"},
	)

	// Agent runtime metrics
	agentInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "invocations_total",
			Help:      "Total number of agent runtime invocations by runtime and result",
		},
		[]string{"runtime", "result"},
	)

	// Router metrics
	routerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "requests_total",
			Help:      "Total number of routed requests by action and result",
		},
		[]string{"action", "result"},
	)

	routerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "request_duration_seconds",
			Help:      "Duration of routed requests in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"action"},
	)

	fragmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "fragments_total",
			Help:      "Total number of streamed fragments by transport",
		},
		[]string{"transport"},
	)

	// Template metrics
	validationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "template",
			Name:      "validations_total",
			Help:      "Total number of local template validations by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		backendCallsTotal,
		backendLatency,
		agentInvocationsTotal,
		routerRequestsTotal,
		routerDuration,
		fragmentsTotal,
		validationsTotal,
	)
}

// Handler serves the registry in the prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// RecordBackendCall records one backend API call.
func RecordBackendCall(operation string, latency time.Duration, err error) {
	backendCallsTotal.WithLabelValues(operation, result(err)).Inc()
	backendLatency.WithLabelValues(operation).Observe(latency.Seconds())
}

// RecordAgentInvocation records one agent runtime invocation.
func RecordAgentInvocation(runtime string, err error) {
	agentInvocationsTotal.WithLabelValues(runtime, result(err)).Inc()
}

// RecordRequest records a completed router request.
func RecordRequest(action string, success bool, duration time.Duration) {
	res := ResultSuccess
	if !success {
		res = ResultError
	}
	routerRequestsTotal.WithLabelValues(action, res).Inc()
	routerDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordFragment counts one fragment written to a client.
func RecordFragment(transport string) {
	fragmentsTotal.WithLabelValues(transport).Inc()
}

// RecordValidation records a local validation verdict.
func RecordValidation(valid bool) {
	if valid {
		validationsTotal.WithLabelValues("valid").Inc()
		return
	}
	validationsTotal.WithLabelValues("invalid").Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
