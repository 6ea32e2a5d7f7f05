package handler

import (
	"net/http"

	"github.com/itsm-tools/intercom-bridge/internal/events"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	publisher *events.Publisher
	eventsOn  bool
}

// NewHealthHandler creates a new health handler. eventsOn marks whether
// event publishing is configured; readiness only checks NATS when it is.
func NewHealthHandler(publisher *events.Publisher, eventsOn bool) *HealthHandler {
	return &HealthHandler{publisher: publisher, eventsOn: eventsOn}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.eventsOn && !h.publisher.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
