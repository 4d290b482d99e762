package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the portal's Prometheus collectors.
type Metrics struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	overdue       prometheus.Gauge
}

// NewMetrics registers collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_errors_total",
			Help: "Error responses by route and error code.",
		}, []string{"route", "method", "code"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_ticket_transitions_total",
			Help: "Ticket lifecycle transitions by target state.",
		}, []string{"state"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_notifications_total",
			Help: "Notification mails by template and result.",
		}, []string{"template", "result"}),
		overdue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "portal_overdue_tickets",
			Help: "Overdue tickets found by the last sweep.",
		}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordTransition counts a ticket entering state.
func (m *Metrics) RecordTransition(state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(state).Inc()
}

// RecordNotification counts a notification attempt; result is "sent" or "failed".
func (m *Metrics) RecordNotification(template, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(template, result).Inc()
}

// SetOverdue publishes the overdue count of the last sweep.
func (m *Metrics) SetOverdue(count int) {
	if m == nil {
		return
	}
	m.overdue.Set(float64(count))
}
