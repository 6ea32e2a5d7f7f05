package handler

import (
	"net/http"

	"github.com/itsm-tools/intercom-bridge/internal/config"
)

// OpsHandler serves the authenticated operator diagnostics API.
type OpsHandler struct {
	cfg *config.Config
}

// NewOpsHandler creates a new ops handler.
func NewOpsHandler(cfg *config.Config) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// Config handles GET /api/v1/ops/config. It reports the effective bridge
// configuration without the secrets.
func (h *OpsHandler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticket_class":        h.cfg.Bridge.TicketClass,
		"attributes_mapping":  h.cfg.Bridge.Attributes,
		"done_states":         h.cfg.Bridge.DoneStates,
		"details_attributes":  h.cfg.Bridge.DetailAttributes,
		"form_attributes":     h.cfg.Bridge.FormAttributes,
		"max_tickets_display": h.cfg.Bridge.MaxTicketsDisplay,
		"contact_class":       h.cfg.Bridge.ContactClass,
		"user_class":          h.cfg.Bridge.UserClass,
		"events_enabled":      h.cfg.NATSURL != "",
		"secret_configured":   h.cfg.ClientSecret != "",
	})
}
