package geocode

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts lookups per source and cache effectiveness. A nil *Metrics
// records nothing.
type Metrics struct {
	lookups   *prometheus.CounterVec
	cacheHits prometheus.Counter
}

// NewMetrics registers geocode counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listing_signal",
			Subsystem: "geocode",
			Name:      "lookups_total",
			Help:      "Address lookups by source and outcome.",
		}, []string{"source", "outcome"}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "listing_signal",
			Subsystem: "geocode",
			Name:      "cache_hits_total",
			Help:      "Address lookups served from the query cache.",
		}),
	}
}

func (m *Metrics) lookup(source, outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) cacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}
