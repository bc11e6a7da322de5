// SPDX-License-Identifier: MPL-2.0

package taskqueue

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK       = "ok"
	outcomeFailed   = "failed"
	outcomePanicked = "panicked"
)

// Metrics are the Prometheus collectors of one queue. Each queue needs its
// own set; share a registry by giving each queue a distinct Subsystem.
type Metrics struct {
	Enqueued  *prometheus.CounterVec
	Coalesced *prometheus.CounterVec
	Completed *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
	Pending   prometheus.Gauge
}

// NewMetrics creates unregistered collectors under buildscan_<subsystem>_*.
func NewMetrics(subsystem string) *Metrics {
	return &Metrics{
		Enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildscan",
			Subsystem: subsystem,
			Name:      "tasks_enqueued_total",
			Help:      "Tasks accepted into the queue.",
		}, []string{"kind"}),
		Coalesced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildscan",
			Subsystem: subsystem,
			Name:      "tasks_coalesced_total",
			Help:      "Tasks dropped because an identical task was already pending.",
		}, []string{"kind"}),
		Completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildscan",
			Subsystem: subsystem,
			Name:      "tasks_completed_total",
			Help:      "Tasks finished, by outcome.",
		}, []string{"kind", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "buildscan",
			Subsystem: subsystem,
			Name:      "task_duration_seconds",
			Help:      "Handler plus listener time per task.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"kind"}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "buildscan",
			Subsystem: subsystem,
			Name:      "tasks_pending",
			Help:      "Tasks waiting to run, barriers excluded.",
		}),
	}
}

// Register adds every collector to reg. Already-registered collectors are
// not an error.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Enqueued, m.Coalesced, m.Completed, m.Duration, m.Pending} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func (m *Metrics) enqueued(kind string) {
	if m == nil {
		return
	}
	m.Enqueued.WithLabelValues(kind).Inc()
	m.Pending.Inc()
}

func (m *Metrics) coalesced(kind string) {
	if m == nil {
		return
	}
	m.Coalesced.WithLabelValues(kind).Inc()
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.Pending.Dec()
}

func (m *Metrics) completed(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Completed.WithLabelValues(kind, outcome).Inc()
	m.Duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}
