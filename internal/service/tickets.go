// Package service implements the ticket operations behind the canvas screens
// and the webhook fan-out.
package service

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"

	"github.com/itsm-tools/intercom-bridge/internal/apperr"
	"github.com/itsm-tools/intercom-bridge/internal/canvas"
	"github.com/itsm-tools/intercom-bridge/internal/config"
	"github.com/itsm-tools/intercom-bridge/internal/events"
	"github.com/itsm-tools/intercom-bridge/internal/i18n"
	"github.com/itsm-tools/intercom-bridge/internal/intercom"
	"github.com/itsm-tools/intercom-bridge/internal/itsm"
	"github.com/itsm-tools/intercom-bridge/internal/model"
	"github.com/itsm-tools/intercom-bridge/pkg/logger"
	"github.com/itsm-tools/intercom-bridge/pkg/metrics"
)

// Notifier posts messages back into a chat conversation. *intercom.Client
// implements it; tests substitute a recorder.
type Notifier interface {
	ReplyToConversation(ctx context.Context, conversationID string, reply intercom.Reply) error
}

// TicketService performs the ticket side effects of the canvas flows and the
// webhook fan-out. It holds no per-request state.
type TicketService struct {
	store    itsm.Store
	cfg      *config.Config
	notifier Notifier
	events   *events.Publisher
	logger   *logger.Logger
}

// NewTicketService creates a new ticket service. notifier and publisher may
// be nil, in which case outbound notes and events are skipped.
func NewTicketService(store itsm.Store, cfg *config.Config, notifier Notifier, publisher *events.Publisher, log *logger.Logger) *TicketService {
	return &TicketService{
		store:    store,
		cfg:      cfg,
		notifier: notifier,
		events:   publisher,
		logger:   log,
	}
}

// LinkedTickets returns the tickets whose remote-reference attribute equals
// conversationID, capped at the configured display maximum.
func (s *TicketService) LinkedTickets(ctx context.Context, conversationID string) ([]*itsm.Object, error) {
	tickets, err := s.store.Find(ctx, s.cfg.Bridge.TicketClass, itsm.Filter{
		Equals: map[string]string{s.cfg.Bridge.Attributes.RemoteRef: conversationID},
	})
	if err != nil {
		return nil, apperr.DomainLookup(err, "could not search tickets linked to conversation %s", conversationID)
	}
	return capTickets(tickets, s.cfg.Bridge.MaxTicketsDisplay), nil
}

// OngoingTickets returns the tickets whose caller is the contact's linked
// host record and whose status is not among the configured done states,
// capped at the configured display maximum.
func (s *TicketService) OngoingTickets(ctx context.Context, contact *model.Contact) ([]*itsm.Object, error) {
	if !contact.HasLinkedRecord() {
		return nil, apperr.DomainLookup(nil, "contact %s has no host record, cannot search ongoing tickets", contact.RemoteID)
	}

	tickets, err := s.store.Find(ctx, s.cfg.Bridge.TicketClass, itsm.Filter{
		Equals: map[string]string{s.cfg.Bridge.Attributes.Caller: contact.LinkedRecordID},
		NotIn:  map[string][]string{s.cfg.Bridge.Attributes.Status: s.cfg.Bridge.DoneStates},
	})
	if err != nil {
		return nil, apperr.DomainLookup(err, "could not search ongoing tickets for contact %s", contact.RemoteID)
	}
	return capTickets(tickets, s.cfg.Bridge.MaxTicketsDisplay), nil
}

func capTickets(tickets []*itsm.Object, max int) []*itsm.Object {
	if max > 0 && len(tickets) > max {
		return tickets[:max]
	}
	return tickets
}

// GetTicket fetches the ticket a composite component id points at.
func (s *TicketService) GetTicket(ctx context.Context, ref canvas.TicketRef) (*itsm.Object, error) {
	ticket, err := s.store.Get(ctx, ref.Class, ref.ID)
	if err != nil {
		return nil, apperr.DomainLookup(err, "ticket %s not found", ref)
	}
	return ticket, nil
}

// RemoteRef returns the conversation id a ticket is linked to, empty when
// unlinked.
func (s *TicketService) RemoteRef(ticket *itsm.Object) string {
	return ticket.GetString(s.cfg.Bridge.Attributes.RemoteRef)
}

// LinkTicket sets the ticket's remote-reference attribute to the conversation
// id and persists it, then posts an internal note into the conversation so
// other operators see the linkage. The note is best-effort: a delivery
// failure is logged and does not undo the link. Relinking an already linked
// ticket rewrites the same value and still re-posts the note.
func (s *TicketService) LinkTicket(ctx context.Context, ref canvas.TicketRef, conv *model.ConversationModel, admin *model.Admin) (*itsm.Object, error) {
	ticket, err := s.GetTicket(ctx, ref)
	if err != nil {
		return nil, err
	}

	ticket.Set(s.cfg.Bridge.Attributes.RemoteRef, conv.RemoteID)
	if err := s.store.Save(ctx, ticket); err != nil {
		metrics.RecordTicketWrite(ref.Class, "link", "error")
		return nil, apperr.DomainLookup(err, "could not link ticket %s to conversation %s", ref, conv.RemoteID)
	}
	if _, err := s.store.RecordChange(ctx, itsm.Change{
		Origin:   changeOrigin,
		UserInfo: changeUserInfo,
	}); err != nil {
		s.logger.Warn("could not record change for ticket link",
			zap.String("ticket", ref.String()),
			zap.Error(err),
		)
	}
	metrics.RecordTicketWrite(ref.Class, "link", "ok")

	s.events.Publish(ctx, events.SubjectTicketLinked, events.TicketEvent{
		ConversationID: conv.RemoteID,
		TicketClass:    ref.Class,
		TicketID:       ref.ID,
		TicketRef:      ref.String(),
	})

	title := i18n.F("SyncApp:TicketLinkedMessage:Title", admin.FullName)
	s.postNote(ctx, conv.RemoteID, admin.RemoteID, title, ticket)

	return ticket, nil
}

const (
	changeOrigin   = "chat-bridge"
	changeUserInfo = "Intercom chat integration"
)

// postNote delivers an internal note announcing a ticket operation. Failures
// are logged and swallowed; the local write stands either way.
func (s *TicketService) postNote(ctx context.Context, conversationID, adminID, title string, ticket *itsm.Object) {
	if s.notifier == nil {
		return
	}

	portalURL := s.objectURL(s.cfg.Bridge.PortalURL, ticket)
	body := fmt.Sprintf(`<html>
<body>
	<p>🔗 %s</p>
	<p><a href="%s" target="_blank">%s</a></p>
</body>
</html>`, html.EscapeString(title), portalURL, html.EscapeString(ticket.FriendlyName()))

	err := s.notifier.ReplyToConversation(ctx, conversationID, intercom.Reply{
		MessageType: intercom.ReplyTypeNote,
		Type:        "admin",
		AdminID:     adminID,
		Body:        body,
	})
	if err != nil {
		notifErr := &apperr.RemoteNotificationError{ConversationID: conversationID, Err: err}
		s.logger.Error("could not post note to conversation",
			zap.String("conversation_id", conversationID),
			zap.String("ticket", ticket.Class()+"::"+ticket.Key()),
			zap.Error(notifErr),
		)
		metrics.OutboundNotesTotal.WithLabelValues("error").Inc()
		return
	}
	metrics.OutboundNotesTotal.WithLabelValues("ok").Inc()
}

// objectURL expands a configured URL template with the object's class and id.
func (s *TicketService) objectURL(template string, obj *itsm.Object) string {
	if template == "" {
		return ""
	}
	return fmt.Sprintf(template, obj.Class(), obj.Key())
}

// BackofficeURL returns the console URL of a ticket, empty when the button
// is not configured.
func (s *TicketService) BackofficeURL(ticket *itsm.Object) string {
	if !s.cfg.Bridge.ShowBackoffice {
		return ""
	}
	return s.objectURL(s.cfg.Bridge.BackofficeURL, ticket)
}
