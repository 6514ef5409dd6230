// Package metrics exposes the engine's Prometheus collectors. Mirrors the
// teacher's pkg/metrics: a package-level Registry plus one collector per
// observable quantity, registered eagerly at init.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the engine's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sebaschan",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Current number of events waiting in the priority queue, by priority.",
		},
		[]string{"priority"},
	)

	EventsEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sebaschan",
			Subsystem: "queue",
			Name:      "enqueued_total",
			Help:      "Total number of events accepted onto the queue.",
		},
		[]string{"kind", "priority"},
	)

	EventsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sebaschan",
			Subsystem: "queue",
			Name:      "rejected_total",
			Help:      "Total number of events rejected at enqueue (buffer full).",
		},
		[]string{"kind"},
	)

	WorkflowExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sebaschan",
			Subsystem: "executor",
			Name:      "executions_total",
			Help:      "Total number of workflow executions, by outcome.",
		},
		[]string{"workflow", "outcome"},
	)

	WorkflowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sebaschan",
			Subsystem: "executor",
			Name:      "execution_duration_seconds",
			Help:      "Duration of workflow executions.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"workflow"},
	)

	DriverSelections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sebaschan",
			Subsystem: "driver",
			Name:      "selections_total",
			Help:      "Total number of driver selection attempts, by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		QueueDepth,
		EventsEnqueued,
		EventsRejected,
		WorkflowExecutions,
		WorkflowDuration,
		DriverSelections,
	)
}

// Handler returns an http.Handler exposing Registry in the Prometheus
// exposition format, suitable for mounting at /metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
