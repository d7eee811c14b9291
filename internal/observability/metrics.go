package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes prometheus instruments for the HTTP surface and payments.
type Metrics struct {
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	errors         *prometheus.CounterVec
	paymentChanges *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. A nil registerer yields no-op metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Failed requests by error code.",
		}, []string{"route", "method", "code"}),
		paymentChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_status_changes_total",
			Help: "Payment line status changes.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.requests, m.latency, m.errors, m.paymentChanges)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeRoute(route)
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil || m.errors == nil {
		return
	}
	m.errors.WithLabelValues(normalizeRoute(route), method, code).Inc()
}

// RecordPaymentChange counts a mark-paid or undo.
func (m *Metrics) RecordPaymentChange(status string) {
	if m == nil || m.paymentChanges == nil {
		return
	}
	m.paymentChanges.WithLabelValues(status).Inc()
}

func normalizeRoute(route string) string {
	if route == "" {
		return "unmatched"
	}
	return route
}
