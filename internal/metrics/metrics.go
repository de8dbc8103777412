// Package metrics holds the Prometheus collectors of the notifier.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the notifier collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Notifications   *prometheus.CounterVec
	WhatsAppResults *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commerce_notifications_total",
				Help: "Commerce events handled, by event type and outcome",
			},
			[]string{"event_type", "outcome"},
		),
		WhatsAppResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whatsapp_messages_total",
				Help: "WhatsApp send attempts by result",
			},
			[]string{"result"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler", "method"},
		),
	}
	reg.MustRegister(m.Notifications, m.WhatsAppResults, m.HTTPRequests, m.HTTPDuration)
	return m
}

// ObserveNotification counts one handled event. outcome is a status such as
// "sent", "disabled", "failed" or a rejection kind.
func (m *Metrics) ObserveNotification(eventType, outcome string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.Notifications.WithLabelValues(eventType, outcome).Inc()
}

// ObserveWhatsApp counts one send attempt result.
func (m *Metrics) ObserveWhatsApp(result string) {
	if m == nil {
		return
	}
	m.WhatsAppResults.WithLabelValues(result).Inc()
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(handler, method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(handler, method).Observe(seconds)
	m.HTTPRequests.WithLabelValues(handler, method, strconv.Itoa(status)).Inc()
}
