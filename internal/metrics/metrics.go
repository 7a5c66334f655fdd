// Package metrics exposes prometheus counters for ledger operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fundchain_ledger"

// Recorder owns its registry so several instances can live in one process.
type Recorder struct {
	registry           *prometheus.Registry
	operations         *prometheus.CounterVec
	sideEffectFailures *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Fund-movement operations by outcome (ok or error kind).",
		}, []string{"operation", "outcome"}),
		sideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Best-effort writes that failed after the ledger commit.",
		}, []string{"operation", "effect"}),
	}
	r.registry.MustRegister(
		r.operations,
		r.sideEffectFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveOperation(operation, outcome string) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(operation, outcome).Inc()
}

func (r *Recorder) ObserveSideEffectFailure(operation, effect string) {
	if r == nil {
		return
	}
	r.sideEffectFailures.WithLabelValues(operation, effect).Inc()
}

// Handler serves the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
