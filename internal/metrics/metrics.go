// Package metrics defines the Prometheus collectors exported by the notifier.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "notifier"

// Event outcomes recorded by the receiver.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Email statuses recorded by the notifier.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	eventsReceived *prometheus.CounterVec
	emails         *prometheus.CounterVec
	sendDuration   prometheus.Histogram
	brokerUp       prometheus.Gauge
}

// New creates the collectors on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		eventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Inbound report-viewed events by outcome.",
		}, []string{"outcome"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Email send attempts by provider and status.",
		}, []string{"provider", "status"}),
		sendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "email_send_duration_seconds",
			Help:      "Time spent in a single provider send.",
			Buckets:   prometheus.DefBuckets,
		}),
		brokerUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "broker_up",
			Help:      "1 when the last broker health probe succeeded.",
		}),
	}
	reg.MustRegister(
		m.eventsReceived, m.emails, m.sendDuration, m.brokerUp,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// EventReceived counts one inbound event.
func (m *Metrics) EventReceived(outcome string) {
	if m == nil {
		return
	}
	m.eventsReceived.WithLabelValues(outcome).Inc()
}

// EmailSent counts one send attempt and observes its duration.
func (m *Metrics) EmailSent(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(provider, status).Inc()
	m.sendDuration.Observe(seconds)
}

// BrokerUp records the result of a broker health probe.
func (m *Metrics) BrokerUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.brokerUp.Set(1)
		return
	}
	m.brokerUp.Set(0)
}

// RegisterPool exports queue depth and worker count of a named pool.
func (m *Metrics) RegisterPool(name string, queued, workers func() int) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"pool": name}
	m.Registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "pool_queued_tasks",
			Help:        "Tasks waiting in the pool queue.",
			ConstLabels: labels,
		}, func() float64 { return float64(queued()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "pool_workers",
			Help:        "Live worker goroutines in the pool.",
			ConstLabels: labels,
		}, func() float64 { return float64(workers()) }),
	)
}
