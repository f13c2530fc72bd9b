package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Observe(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Observe("twitch", "posted", nil, 10*time.Millisecond)
	m.Observe("twitch", "posted", nil, 10*time.Millisecond)
	m.Observe("glimesh", "skipped", nil, time.Millisecond)
	m.Observe("twitch", "", errors.New("edit failed"), time.Millisecond)

	if got := testutil.ToFloat64(m.Announcements.WithLabelValues("twitch", "posted")); got != 2 {
		t.Errorf("twitch posted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Announcements.WithLabelValues("glimesh", "skipped")); got != 1 {
		t.Errorf("glimesh skipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Failures.WithLabelValues("twitch")); got != 1 {
		t.Errorf("twitch failures = %v, want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Observe("twitch", "posted", nil, time.Second)
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// registering twice on one registry would panic; separate registries must not
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}
