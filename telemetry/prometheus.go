package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusExporter mirrors reason-code counters onto a Prometheus counter
// vector. It is a thin translation layer that never participates in the
// hot path itself.
type PrometheusExporter struct {
	counter *prometheus.CounterVec
}

// NewPrometheusExporter registers a "tracecore_reason_total" counter vector
// labeled by reason_code on the given registerer.
func NewPrometheusExporter(reg prometheus.Registerer) (*PrometheusExporter, error) {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracecore_reason_total",
		Help: "Count of selective tracing engine fallback/failure reasons by code.",
	}, []string{"reason_code"})

	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			c = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PrometheusExporter{counter: c}, nil
}

// Observe increments the exported counter for reason. Call this after
// Telemetry.Record so the two stay consistent.
func (p *PrometheusExporter) Observe(reason ReasonCode) {
	p.counter.WithLabelValues(string(reason)).Inc()
}
