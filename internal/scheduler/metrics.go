package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments job firings. A nil *Metrics is a no-op so tests and
// trimmed-down deployments can skip registration.
type Metrics struct {
	firings  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates and registers the engine metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		firings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recapd",
			Subsystem: "scheduler",
			Name:      "firings_total",
			Help:      "Job firings by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recapd",
			Subsystem: "scheduler",
			Name:      "firing_duration_seconds",
			Help:      "Wall time of one job firing, summarization through delivery.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
	reg.MustRegister(m.firings, m.duration)
	return m
}

// ObserveFiring records one finished firing.
func (m *Metrics) ObserveFiring(runErr error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if runErr != nil {
		result = "error"
	}
	m.firings.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
}
