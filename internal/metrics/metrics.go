package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "repopulse"

// Delivery outcomes reported on repopulse_webhook_deliveries_total.
const (
	OutcomeAccepted        = "accepted"
	OutcomeDuplicate       = "duplicate"
	OutcomeUnauthorized    = "unauthorized"
	OutcomeRateLimited     = "rate_limited"
	OutcomeBadRequest      = "bad_request"
	OutcomeUnknownProvider = "unknown_provider"
	OutcomeQueueFull       = "queue_full"
	OutcomeError           = "error"
)

// Metrics owns its registry so tests can build isolated instances.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry      *prometheus.Registry
	deliveries    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	processing    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Inbound webhook deliveries by provider and admission outcome",
		}, []string{"provider", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Routing decisions by chat platform, event kind and log status",
		}, []string{"platform", "event", "status"}),
		processing: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_processing_seconds",
			Help:      "Time from dequeue to completion of one delivery",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}

	m.registry.MustRegister(
		m.deliveries,
		m.notifications,
		m.processing,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RegisterQueueDepth exposes repopulse_queue_depth backed by depth.
func (m *Metrics) RegisterQueueDepth(depth func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Admitted deliveries waiting for a worker",
	}, func() float64 { return float64(depth()) }))
}

func (m *Metrics) DeliveryAdmitted(provider, outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) NotificationRecorded(platform, event, status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(platform, event, status).Inc()
}

func (m *Metrics) DeliveryProcessed(provider string, took time.Duration) {
	if m == nil {
		return
	}
	m.processing.WithLabelValues(provider).Observe(took.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
