package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every weightlog metric. The CLI writes it as a
// node_exporter textfile on exit and serve exposes it at /metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	ObservationsRecorded = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weightlog_observations_recorded_total",
			Help: "Total observations appended to the store",
		},
		[]string{"backend"},
	)

	ObservationsLoaded = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "weightlog_observations_loaded",
			Help: "Observations returned by the most recent store load",
		},
	)

	StoreOperations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weightlog_store_operations_total",
			Help: "Store operations by backend, operation and status",
		},
		[]string{"backend", "op", "status"},
	)

	StoreLatency = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weightlog_store_latency_seconds",
			Help:    "Store operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)

	Reconstructions = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "weightlog_reconstructions_total",
			Help: "Total trend reconstructions computed",
		},
	)

	ChartsRendered = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weightlog_charts_rendered_total",
			Help: "Total chart renders by status",
		},
		[]string{"status"},
	)

	LastValue = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "weightlog_last_value",
			Help: "Most recent recorded value and its moving averages",
		},
		[]string{"series"},
	)
)

// WriteTextfile writes the current state of Registry to path.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
