// Package metrics exposes Prometheus counters for announcement reconciliation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the reconciler's collectors
type Metrics struct {
	Announcements *prometheus.CounterVec
	Failures      *prometheus.CounterVec
	ApplyDuration prometheus.Histogram
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in main
// and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Announcements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "announcements_total",
			Help: "Announcement reconciliations by platform and outcome",
		}, []string{"platform", "outcome"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "announcement_failures_total",
			Help: "Announcement reconciliations that failed",
		}, []string{"platform"}),
		ApplyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "announcement_apply_seconds",
			Help:    "Duration of one reconciliation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Observe records one reconciliation. A nil Metrics records nothing.
func (m *Metrics) Observe(platform, outcome string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ApplyDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.Failures.WithLabelValues(platform).Inc()
		return
	}
	m.Announcements.WithLabelValues(platform, outcome).Inc()
}
