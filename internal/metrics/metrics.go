package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "videohub"

// Metrics is safe to use through a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry          *prometheus.Registry
	authOps           *prometheus.CounterVec
	toggleOps         *prometheus.CounterVec
	conflictsAbsorbed *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_operations_total",
			Help:      "Session operations by outcome.",
		}, []string{"operation", "outcome"}),
		toggleOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toggle_operations_total",
			Help:      "Completed toggles by relation kind and resulting state.",
		}, []string{"kind", "state"}),
		conflictsAbsorbed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toggle_conflicts_absorbed_total",
			Help:      "Concurrent inserts on an existing relation key treated as on.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.authOps,
		m.toggleOps,
		m.conflictsAbsorbed,
	)
	return m
}

func (m *Metrics) AuthOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.authOps.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ToggleOperation(kind, state string) {
	if m == nil {
		return
	}
	m.toggleOps.WithLabelValues(kind, state).Inc()
}

func (m *Metrics) ToggleConflictAbsorbed(kind string) {
	if m == nil {
		return
	}
	m.conflictsAbsorbed.WithLabelValues(kind).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
