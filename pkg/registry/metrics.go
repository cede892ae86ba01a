package registry

import (
	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes registry lookups and structuring calls as Prometheus
// counters. A nil *Metrics records nothing.
type Metrics struct {
	Lookups    *prometheus.CounterVec
	Structured *prometheus.CounterVec
}

// NewMetrics creates the registry counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockgeo",
			Subsystem: "registry",
			Name:      "lookups_total",
			Help:      "Canonical key lookups by entity kind and result (hit or miss).",
		}, []string{"kind", "result"}),
		Structured: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockgeo",
			Subsystem: "registry",
			Name:      "structured_total",
			Help:      "Structuring and recombination calls forwarded to the kernel, by kind.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.Lookups, m.Structured)
	}
	return m
}

func (m *Metrics) lookup(kind geom.Kind, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.Lookups.WithLabelValues(kind.String(), result).Inc()
}

func (m *Metrics) structured(kind string) {
	if m == nil {
		return
	}
	m.Structured.WithLabelValues(kind).Inc()
}
