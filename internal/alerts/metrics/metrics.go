package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles inspection scheduler metrics.
type Metrics struct {
	TicksTotal     *prometheus.CounterVec
	TickDuration   prometheus.Histogram
	EventsTotal    *prometheus.CounterVec
	ValvesByStatus *prometheus.GaugeVec
	SkippedRecords prometheus.Counter
}

// New constructs and registers metrics.
func New() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collaudo_scheduler_ticks_total",
				Help: "Total scheduler ticks by result",
			},
			[]string{"result"},
		),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "collaudo_scheduler_tick_duration_seconds",
			Help:    "Scheduler tick duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collaudo_notification_events_total",
				Help: "Total notification events by severity",
			},
			[]string{"severity"},
		),
		ValvesByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "collaudo_valves",
				Help: "Valves by inspection status as of the last tick",
			},
			[]string{"status"},
		),
		SkippedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collaudo_skipped_records_total",
			Help: "Total malformed valve records skipped during evaluation",
		}),
	}
	prometheus.MustRegister(
		m.TicksTotal,
		m.TickDuration,
		m.EventsTotal,
		m.ValvesByStatus,
		m.SkippedRecords,
	)
	return m
}

// ObserveTick records one tick outcome. Safe on a nil receiver so the
// scheduler can run without metrics in tests.
func (m *Metrics) ObserveTick(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TicksTotal.WithLabelValues(result).Inc()
	m.TickDuration.Observe(elapsed.Seconds())
}

// CountEvent records one emitted event.
func (m *Metrics) CountEvent(severity string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(severity).Inc()
}

// SetStatusCounts publishes the per-status valve counts of the last tick.
func (m *Metrics) SetStatusCounts(counts map[string]int) {
	if m == nil {
		return
	}
	for status, count := range counts {
		m.ValvesByStatus.WithLabelValues(status).Set(float64(count))
	}
}

// CountSkippedRecord records one malformed record.
func (m *Metrics) CountSkippedRecord() {
	if m == nil {
		return
	}
	m.SkippedRecords.Inc()
}
