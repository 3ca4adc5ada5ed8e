package avatar

import "github.com/prometheus/client_golang/prometheus"

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

type serviceMetrics struct {
	requests   *prometheus.CounterVec
	coalesced  prometheus.Counter
	generation prometheus.Summary
}

func newServiceMetrics() *serviceMetrics {
	return &serviceMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "avatars",
			Name:      "requests_total",
			Help:      "Number of avatar requests, by result: hit when the file already existed, miss when it was generated.",
		}, []string{"result"}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "avatars",
			Name:      "coalesced_total",
			Help:      "Number of avatar requests whose result was shared with a concurrent request for the same file.",
		}),
		generation: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace:  "avatars",
			Name:       "generation_duration_seconds",
			Help:       "Durations of the generations of missing avatars, rendering and writing included.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
	}
}

func (m *serviceMetrics) register(reg prometheus.Registerer) {
	reg.MustRegister(m.requests, m.coalesced, m.generation)
}
