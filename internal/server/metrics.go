package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the prometheus instruments exposed on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal          *prometheus.CounterVec
	RequestDuration        *prometheus.HistogramVec
	FeedConnections        prometheus.Gauge
	NotificationsPublished *prometheus.CounterVec
}

// NewMetrics creates and registers the server instruments on a private
// registry, so tests can instantiate isolated instances.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equimapp_http_requests_total",
			Help: "HTTP requests by method, route pattern, and status code.",
		}, []string{"method", "pattern", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "equimapp_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"pattern"}),
		FeedConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "equimapp_feed_connections",
			Help: "Currently open websocket feed connections.",
		}),
		NotificationsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equimapp_feed_notifications_total",
			Help: "Change notifications published, by entity and change kind.",
		}, []string{"entity", "change"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		m.RequestsTotal,
		m.RequestDuration,
		m.FeedConnections,
		m.NotificationsPublished,
	)
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
