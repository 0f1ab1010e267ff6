// Package metrics exposes Prometheus instrumentation for the engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trustcircles/backend/internal/engine"
)

// Metrics holds the instrument set. All instruments are registered on
// the registry passed to New.
type Metrics struct {
	registry *prometheus.Registry

	operationsCommitted *prometheus.CounterVec
	stakedAmount        prometheus.Counter
	blockHeight         prometheus.Gauge
}

// New registers the engine instruments on reg. A nil reg gets a fresh
// private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		operationsCommitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "circles_operations_committed_total",
				Help: "Committed engine mutations by operation",
			},
			[]string{"op"},
		),
		stakedAmount: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "circles_amount_moved_total",
				Help: "Total token/reputation units moved by committed operations",
			},
		),
		blockHeight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "circles_block_height",
				Help: "Block height observed by the most recent committed operation",
			},
		),
	}
}

// Hook returns an engine commit observer. It runs under the engine lock
// and must stay cheap.
func (m *Metrics) Hook() func(engine.Event) {
	return func(ev engine.Event) {
		m.operationsCommitted.WithLabelValues(ev.Op).Inc()
		m.stakedAmount.Add(float64(ev.Amount))
		m.blockHeight.Set(float64(ev.Height))
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
