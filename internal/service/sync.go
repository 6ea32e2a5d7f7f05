package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/itsm-tools/intercom-bridge/internal/apperr"
	"github.com/itsm-tools/intercom-bridge/internal/canvas"
	"github.com/itsm-tools/intercom-bridge/internal/events"
	"github.com/itsm-tools/intercom-bridge/internal/i18n"
	"github.com/itsm-tools/intercom-bridge/internal/itsm"
	"github.com/itsm-tools/intercom-bridge/internal/model"
	"github.com/itsm-tools/intercom-bridge/pkg/metrics"
)

// SyncResult is the outcome of the log append for one ticket of a webhook
// fan-out.
type SyncResult struct {
	Ticket canvas.TicketRef
	Err    error
}

// AppendConversationMessage fans a new conversation message out to every
// ticket linked to the conversation with synchronization explicitly enabled.
// Notes land in the private log, replies in the public log. Each ticket is
// updated under its own change record and a failure on one ticket does not
// stop the others; the per-ticket outcomes are returned for diagnostics.
func (s *TicketService) AppendConversationMessage(ctx context.Context, wh *model.NewMessageWebhook) ([]SyncResult, error) {
	mapping := s.cfg.Bridge.Attributes

	logAttCode := mapping.PublicLog
	if wh.IsNote() {
		logAttCode = mapping.PrivateLog
	}

	userID, userLogin := s.resolveAuthor(ctx, wh.AuthorFullName)
	entry := itsm.LogEntry{
		UserID:    userID,
		UserLogin: userLogin,
		Date:      wh.FirstSentAt,
		Message:   logMessage(wh.MessageBody),
	}

	// Tickets opt in to message synchronization so a ticket linked for
	// reference only never changes unexpectedly.
	tickets, err := s.store.Find(ctx, s.cfg.Bridge.TicketClass, itsm.Filter{
		Equals: map[string]string{
			mapping.RemoteRef:   wh.RemoteID,
			mapping.SyncEnabled: "yes",
		},
	})
	if err != nil {
		return nil, apperr.DomainLookup(err, "could not search tickets synced with conversation %s", wh.RemoteID)
	}

	results := make([]SyncResult, 0, len(tickets))
	for _, ticket := range tickets {
		ref := canvas.TicketRef{Class: ticket.Class(), ID: ticket.Key()}
		err := s.appendEntry(ctx, ticket, logAttCode, entry)
		if err != nil {
			s.logger.Error("could not append log entry to ticket",
				zap.String("ticket", ref.String()),
				zap.String("conversation_id", wh.RemoteID),
				zap.Error(err),
			)
			metrics.SyncedTicketsTotal.WithLabelValues("error").Inc()
		} else {
			metrics.SyncedTicketsTotal.WithLabelValues("ok").Inc()
			s.events.Publish(ctx, events.SubjectLogSynced, events.TicketEvent{
				ConversationID: wh.RemoteID,
				WorkspaceID:    wh.WorkspaceID,
				TicketClass:    ref.Class,
				TicketID:       ref.ID,
				TicketRef:      ref.String(),
			})
		}
		results = append(results, SyncResult{Ticket: ref, Err: err})
	}

	return results, nil
}

func (s *TicketService) appendEntry(ctx context.Context, ticket *itsm.Object, attCode string, entry itsm.LogEntry) error {
	if _, err := s.store.RecordChange(ctx, itsm.Change{
		Date:     entry.Date,
		Origin:   changeOrigin,
		UserInfo: changeUserInfo,
	}); err != nil {
		return err
	}
	ticket.AppendLogEntry(attCode, entry)
	return s.store.Save(ctx, ticket)
}

// resolveAuthor maps a chat display name onto a host user account. When no
// account matches, the entry is attributed to nobody (id 0) with a
// synthesized display login so the origin stays visible in the log.
func (s *TicketService) resolveAuthor(ctx context.Context, fullName string) (userID, userLogin string) {
	users, err := s.store.Find(ctx, s.cfg.Bridge.UserClass, itsm.Filter{
		Equals: map[string]string{"friendlyname": fullName},
	})
	if err != nil || len(users) == 0 {
		return "0", i18n.F("SyncApp:SynchedTicket:LogEntry:FallbackUserLogin", fullName)
	}
	user := users[0]
	login := user.GetString("login")
	if login == "" {
		login = user.FriendlyName()
	}
	return user.Key(), login
}

// logMessage wraps a synced message body with the disclaimer marking it as
// coming from the linked chat conversation. The icon rides in a "code" tag,
// one of the few elements the host's HTML sanitizer lets keep a class.
func logMessage(body string) string {
	disclaimer := i18n.S("SyncApp:SynchedTicket:LogEntry:NewMessageFromConversation")
	return fmt.Sprintf(`<p>
	<code class="fas fa-link" style="background-color: transparent;"></code>
	<i>%s</i>
</p>
<br />
%s`, disclaimer, body)
}
