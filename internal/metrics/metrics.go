// Package metrics exposes Prometheus instrumentation for the scheduler and
// the Telegram dispatch path.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry      prometheus.Registerer
	jobRuns       *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	messagesSent  *prometheus.CounterVec
	remindersSent prometheus.Counter
	eventsTracked prometheus.Gauge
}

func New(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		registry: reg,
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Total number of scheduled job runs",
			},
			[]string{"job", "status"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Duration of scheduled job runs",
				Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
			},
			[]string{"job"},
		),
		messagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_sent_total",
				Help:      "Messages dispatched to Telegram, by channel role",
			},
			[]string{"channel"},
		),
		remindersSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_reminders_sent_total",
				Help:      "Event reminders delivered",
			},
		),
		eventsTracked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "events_tracked",
				Help:      "Events currently waiting for reminders",
			},
		),
	}

	reg.MustRegister(
		m.jobRuns,
		m.jobDuration,
		m.messagesSent,
		m.remindersSent,
		m.eventsTracked,
	)

	return m
}

func (m *Metrics) RecordJobRun(job, status string, duration time.Duration) {
	m.jobRuns.WithLabelValues(job, status).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func (m *Metrics) RecordMessage(channel string) {
	m.messagesSent.WithLabelValues(channel).Inc()
}

func (m *Metrics) RecordReminder() {
	m.remindersSent.Inc()
}

func (m *Metrics) SetEventsTracked(count int) {
	m.eventsTracked.Set(float64(count))
}
