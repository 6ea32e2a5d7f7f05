// Package metrics provides Prometheus metrics for the bridge.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal counts total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// CanvasOperationsTotal counts interactive canvas operations by outcome.
	CanvasOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_canvas_operations_total",
			Help: "Total number of canvas operations processed",
		},
		[]string{"operation", "component", "status"},
	)

	// WebhookEventsTotal counts webhook notifications by topic and outcome.
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_webhook_events_total",
			Help: "Total number of webhook events processed",
		},
		[]string{"topic", "status"},
	)

	// TicketWritesTotal counts datastore writes by class and operation.
	TicketWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_ticket_writes_total",
			Help: "Total number of ticket write operations",
		},
		[]string{"class", "operation", "status"},
	)

	// SyncedTicketsTotal counts per-ticket outcomes of message fan-out.
	SyncedTicketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_synced_tickets_total",
			Help: "Total number of per-ticket log sync outcomes",
		},
		[]string{"status"},
	)

	// OutboundNotesTotal counts notes posted back to the chat platform.
	OutboundNotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_outbound_notes_total",
			Help: "Total number of outbound conversation notes",
		},
		[]string{"status"},
	)

	// AuthFailuresTotal counts rejected requests by endpoint.
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_auth_failures_total",
			Help: "Total number of rejected signature verifications",
		},
		[]string{"endpoint"},
	)

	// EventsPublishedTotal counts bridge events published to NATS.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_events_published_total",
			Help: "Total number of bridge events published",
		},
		[]string{"subject", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration time.Duration) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCanvasOperation records the outcome of a canvas operation.
func RecordCanvasOperation(operation, component, status string) {
	CanvasOperationsTotal.WithLabelValues(operation, component, status).Inc()
}

// RecordWebhookEvent records the outcome of a webhook notification.
func RecordWebhookEvent(topic, status string) {
	WebhookEventsTotal.WithLabelValues(topic, status).Inc()
}

// RecordTicketWrite records a datastore write outcome.
func RecordTicketWrite(class, operation, status string) {
	TicketWritesTotal.WithLabelValues(class, operation, status).Inc()
}
