package transit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transit outcomes. Bounded label values only, no per-player labels.
const (
	OutcomeTeleported   = "teleported"
	OutcomeNoPeer       = "no_peer"
	OutcomeWorldMissing = "world_missing"
	OutcomeEntityGone   = "entity_gone"
)

// Registry operations reported in registry error counters.
const (
	opFindPortal = "find_portal"
	opNetwork    = "portals_in_network"
)

// Metrics are the coordinator's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	outcomes       *prometheus.CounterVec
	registryErrors *prometheus.CounterVec
	inTransit      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered (useful in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_transit_total",
			Help: "Portal transits by outcome",
		}, []string{"outcome"}),
		registryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_registry_errors_total",
			Help: "Portal registry lookups that failed",
		}, []string{"op"}),
		inTransit: factory.NewGauge(prometheus.GaugeOpts{
			Name: "portal_transit_in_flight",
			Help: "Players with a transit in flight",
		}),
	}
}

func (m *Metrics) outcome(label string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(label).Inc()
}

func (m *Metrics) registryError(op string) {
	if m == nil {
		return
	}
	m.registryErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) setInTransit(n int) {
	if m == nil {
		return
	}
	m.inTransit.Set(float64(n))
}
