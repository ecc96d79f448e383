package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Prediction outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	latency     prometheus.Histogram
}

// NewMetrics registers the prediction collectors. loaded backs the
// pfm_model_loaded gauge.
func NewMetrics(loaded func() bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pfm_predictions_total",
			Help: "Prediction requests by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pfm_prediction_duration_seconds",
			Help:    "Time spent answering prediction requests.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	modelLoaded := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "pfm_model_loaded",
		Help: "1 when a model is loaded and serving.",
	}, func() float64 {
		if loaded() {
			return 1
		}
		return 0
	})

	m.registry.MustRegister(
		m.predictions,
		m.latency,
		modelLoaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry to expose.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one prediction request.
func (m *Metrics) Observe(outcome string, d time.Duration) {
	m.predictions.WithLabelValues(outcome).Inc()
	m.latency.Observe(d.Seconds())
}
