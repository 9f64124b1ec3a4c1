package profiler

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports pipeline diagnostics as Prometheus metrics.
type PrometheusRecorder struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
}

// NewPrometheusRecorder creates the preprocessing metrics and registers them
// with registry.
//
// Arguments:
// - registry: The registry to register the metrics with.
//
// Returns:
// - The recorder, or an error if registration fails.
func NewPrometheusRecorder(registry prometheus.Registerer) (*PrometheusRecorder, error) {
	p := &PrometheusRecorder{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tensorprep_operations_total",
				Help: "Total number of preprocessing operations by status.",
			},
			[]string{"operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tensorprep_operation_duration_seconds",
				Help:    "Duration of preprocessing operations in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
			},
			[]string{"operation"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tensorprep_errors_total",
				Help: "Total number of preprocessing errors by category.",
			},
			[]string{"operation", "category"},
		),
	}

	for _, c := range []prometheus.Collector{p.operationsTotal, p.operationDuration, p.errorsTotal} {
		if err := registry.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register preprocessing metrics")
		}
	}
	return p, nil
}

// RecordOperation implements Recorder.
func (p *PrometheusRecorder) RecordOperation(operation, status string) {
	p.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (p *PrometheusRecorder) RecordDuration(operation string, seconds float64) {
	p.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (p *PrometheusRecorder) RecordError(operation, category string) {
	p.errorsTotal.WithLabelValues(operation, category).Inc()
}
