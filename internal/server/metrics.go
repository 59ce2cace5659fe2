package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nerdintosubs/hiring-agent/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "hiring_agent"

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	errors5xx  prometheus.Counter
	latency    *prometheus.HistogramVec
	webhooks   *prometheus.CounterVec
	deliveries *prometheus.GaugeVec
	overdue    prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "route_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		errors5xx: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_5xx_total",
			Help:      "HTTP requests answered with a 5xx status.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "webhook_outcomes_total",
			Help:      "Webhook deliveries by channel and outcome.",
		}, []string{"channel", "outcome"}),
		deliveries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "webhook_deliveries",
			Help:      "Webhook delivery records by status.",
		}, []string{"status"}),
		overdue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "webhook_overdue_retries",
			Help:      "retry_pending deliveries whose next retry time has passed.",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.errors5xx, m.latency, m.webhooks, m.deliveries, m.overdue,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry (for testing purposes).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one completed request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	if status >= http.StatusInternalServerError {
		m.errors5xx.Inc()
	}
	m.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveWebhook records the outcome of one webhook delivery.
func (m *Metrics) ObserveWebhook(channel, outcome string) {
	m.webhooks.WithLabelValues(channel, outcome).Inc()
}

// SetDeliveries replaces the delivery gauges. Every status is written so
// drained statuses drop back to zero.
func (m *Metrics) SetDeliveries(counts map[types.WebhookStatus]int, overdue int) {
	for _, status := range []types.WebhookStatus{
		types.WebhookReceived, types.WebhookProcessed, types.WebhookRetryPending, types.WebhookFailed,
	} {
		m.deliveries.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
	m.overdue.Set(float64(overdue))
}
