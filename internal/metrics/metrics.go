// Package metrics exposes Prometheus counters for bookings, payments and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lagoon"

// Metrics holds every collector the service records to
type Metrics struct {
	registry *prometheus.Registry

	bookingsCreated    prometheus.Counter
	bookingTransitions *prometheus.CounterVec
	payments           *prometheus.CounterVec
	publishFailures    *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Count of bookings created.",
		}),
		bookingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Count of booking status changes by target status.",
		}, []string{"status"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Count of recorded payments by gateway and outcome.",
		}, []string{"method", "status"}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Count of booking events that could not be published.",
		}, []string{"queue"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.bookingsCreated,
		m.bookingTransitions,
		m.payments,
		m.publishFailures,
		m.httpDuration,
	)

	return m
}

// Registry returns the registry backing /metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncBookingCreated counts a new booking
func (m *Metrics) IncBookingCreated() {
	m.bookingsCreated.Inc()
}

// IncBookingTransition counts a booking moving to status
func (m *Metrics) IncBookingTransition(status string) {
	m.bookingTransitions.WithLabelValues(status).Inc()
}

// IncPayment counts a recorded payment
func (m *Metrics) IncPayment(method, status string) {
	m.payments.WithLabelValues(method, status).Inc()
}

// IncPublishFailure counts an event that was dropped
func (m *Metrics) IncPublishFailure(queue string) {
	m.publishFailures.WithLabelValues(queue).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request latency. Unmatched routes are grouped under "unmatched".
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
