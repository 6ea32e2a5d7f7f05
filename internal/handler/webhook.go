package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/itsm-tools/intercom-bridge/internal/model"
	"github.com/itsm-tools/intercom-bridge/internal/service"
	"github.com/itsm-tools/intercom-bridge/pkg/logger"
	"github.com/itsm-tools/intercom-bridge/pkg/metrics"
)

// WebhookHandler serves the asynchronous webhook endpoint. The response body
// is never consumed by the platform; it reports per-delivery diagnostics for
// operators.
type WebhookHandler struct {
	guard   *Guard
	tickets *service.TicketService
	logger  *logger.Logger
}

// NewWebhookHandler creates the webhook endpoint handler.
func NewWebhookHandler(guard *Guard, tickets *service.TicketService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{guard: guard, tickets: tickets, logger: log}
}

// webhookResponse is the diagnostic response body.
type webhookResponse struct {
	Status  string             `json:"status"`
	Message string             `json:"message,omitempty"`
	Tickets []ticketSyncStatus `json:"tickets,omitempty"`
}

type ticketSyncStatus struct {
	Ticket string `json:"ticket"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Handle handles POST /hooks/webhook.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := h.guard.Admit(r, WebhookScheme)
	if err != nil {
		h.logger.Error("webhook rejected", zap.Error(err))
		failRequest(w, err)
		return
	}

	env, err := model.WebhookFromEvent(body)
	if err != nil {
		writeRawError(w, http.StatusBadRequest, err)
		return
	}

	topic := env.Topic()
	switch topic {
	case model.TopicPing:
		metrics.RecordWebhookEvent(string(topic), "ok")
		writeJSON(w, http.StatusOK, webhookResponse{Status: "ok"})

	case model.TopicUserReplied, model.TopicAdminReplied, model.TopicAdminNoted:
		wh, err := model.NewMessageFromEnvelope(env)
		if err != nil {
			metrics.RecordWebhookEvent(string(topic), "malformed")
			writeRawError(w, http.StatusBadRequest, err)
			return
		}

		results, err := h.tickets.AppendConversationMessage(r.Context(), wh)
		if err != nil {
			metrics.RecordWebhookEvent(string(topic), "error")
			writeJSON(w, http.StatusOK, webhookResponse{Status: "error", Message: err.Error()})
			return
		}

		resp := webhookResponse{Status: "ok"}
		for _, result := range results {
			status := ticketSyncStatus{Ticket: result.Ticket.String(), Status: "ok"}
			if result.Err != nil {
				status.Status = "error"
				status.Error = result.Err.Error()
			}
			resp.Tickets = append(resp.Tickets, status)
		}
		metrics.RecordWebhookEvent(string(topic), "ok")
		writeJSON(w, http.StatusOK, resp)

	default:
		h.logger.Warn("webhook topic not supported", zap.String("topic", env.RawTopic))
		metrics.RecordWebhookEvent(env.RawTopic, "unsupported")
		writeJSON(w, http.StatusOK, webhookResponse{
			Status:  "error",
			Message: "Webhook topic not supported (" + env.RawTopic + ")",
		})
	}
}
