package service

import (
	"context"
	"html"
	"strings"

	"go.uber.org/zap"

	"github.com/itsm-tools/intercom-bridge/internal/apperr"
	"github.com/itsm-tools/intercom-bridge/internal/events"
	"github.com/itsm-tools/intercom-bridge/internal/i18n"
	"github.com/itsm-tools/intercom-bridge/internal/itsm"
	"github.com/itsm-tools/intercom-bridge/internal/model"
	"github.com/itsm-tools/intercom-bridge/pkg/metrics"
)

// FormField is one input of the ticket creation form, in the class's
// attribute display order.
type FormField struct {
	AttCode   string
	Label     string
	Mandatory bool
	Kind      itsm.EditKind
	Format    string
	Value     string
	Allowed   []itsm.AllowedValue
}

// FormFields builds the creation form field plan from the ticket class
// metadata. posted carries the values of a previous submission keyed by
// attribute code so a rejected form re-renders with the user's input intact.
//
// An attribute is exposed when it is writable, not computed by the host, not
// an external field or link set, and either on the configured allow-list or
// mandatory without a default value. Edit kinds the canvas renderer cannot
// express (dates, documents, images, durations, case logs) are skipped.
func (s *TicketService) FormFields(ctx context.Context, posted map[string]string) ([]FormField, error) {
	class := s.cfg.Bridge.TicketClass
	meta, err := s.store.ClassMeta(class)
	if err != nil {
		return nil, apperr.DomainLookup(err, "unknown ticket class %q", class)
	}

	var fields []FormField
	for _, att := range meta.Attributes {
		if !att.Writable || att.Magic || att.Kind == itsm.KindExternalField || att.Kind == itsm.KindLinkSet {
			s.logger.Debug("attribute skipped from creation form as it is not applicable",
				zap.String("ticket_class", class),
				zap.String("attcode", att.Code),
			)
			continue
		}

		mandatory := att.Mandatory()
		if !contains(s.cfg.Bridge.FormAttributes, att.Code) {
			if !mandatory {
				continue
			}
			if att.DefaultValue != "" && posted[att.Code] == "" {
				continue
			}
		}

		switch att.Kind {
		case itsm.KindString, itsm.KindInteger, itsm.KindText, itsm.KindHTML, itsm.KindEnum, itsm.KindExternalKey:
			// Renderable kinds fall through below.
		default:
			s.logger.Debug("attribute skipped from creation form, edit kind not renderable",
				zap.String("ticket_class", class),
				zap.String("attcode", att.Code),
				zap.String("kind", att.Kind.String()),
			)
			continue
		}

		label := att.Label
		if mandatory {
			label += " *"
		}

		value := posted[att.Code]
		if value == "" {
			value = att.DefaultValue
		}

		field := FormField{
			AttCode:   att.Code,
			Label:     label,
			Mandatory: mandatory,
			Kind:      att.Kind,
			Format:    att.Format,
			Value:     value,
		}
		for _, av := range att.AllowedValues {
			// External key labels come back entity-encoded from the
			// metadata layer.
			field.Allowed = append(field.Allowed, itsm.AllowedValue{
				Key:   av.Key,
				Label: html.UnescapeString(av.Label),
			})
		}
		fields = append(fields, field)
	}

	return fields, nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// CreateTicketFromForm builds a ticket from the submitted form values,
// pre-filling the conversation reference and, when the contact resolves to a
// host record, the caller and organization. The host's pre-write check runs
// before the insert so a rejected ticket never consumes an identifier. On
// success the full conversation transcript is appended to the ticket's logs,
// a creation note is posted and an event published.
func (s *TicketService) CreateTicketFromForm(ctx context.Context, contact *model.Contact, conv *model.ConversationModel, admin *model.Admin, values map[string]string) (*itsm.Object, error) {
	class := s.cfg.Bridge.TicketClass
	mapping := s.cfg.Bridge.Attributes

	defaults := map[string]any{
		mapping.RemoteRef: conv.RemoteID,
	}
	if contact.HasLinkedRecord() {
		defaults[mapping.Caller] = contact.LinkedRecordID
		if person, err := s.store.Get(ctx, contact.LinkedRecordClass, contact.LinkedRecordID); err == nil {
			if org := person.GetString(mapping.Organization); org != "" {
				defaults[mapping.Organization] = org
			}
		}
	}

	ticket, err := s.store.Create(ctx, class, defaults)
	if err != nil {
		return nil, apperr.DomainLookup(err, "could not build %s ticket", class)
	}

	for attCode, value := range values {
		att, err := s.store.AttributeMeta(class, attCode)
		if err != nil {
			s.logger.Warn("submitted value for unknown attribute ignored",
				zap.String("ticket_class", class),
				zap.String("attcode", attCode),
			)
			continue
		}
		switch att.Kind {
		case itsm.KindText, itsm.KindHTML:
			if att.Format == "html" {
				value = textToHTML(value)
			}
			ticket.Set(attCode, value)
		default:
			ticket.Set(attCode, value)
		}
	}

	check, err := s.store.CheckToWrite(ctx, ticket)
	if err != nil {
		metrics.RecordTicketWrite(class, "create", "error")
		return nil, apperr.DomainLookup(err, "pre-write check failed for %s ticket", class)
	}
	if !check.OK {
		s.logger.Error("ticket could not be created, blocked by pre-write checks",
			zap.String("ticket_class", class),
			zap.Strings("check_issues", check.Issues),
		)
		metrics.RecordTicketWrite(class, "create", "rejected")
		return nil, apperr.DomainLookup(nil, "ticket rejected by pre-write checks: %s", strings.Join(check.Issues, "; "))
	}

	if err := s.store.Save(ctx, ticket); err != nil {
		metrics.RecordTicketWrite(class, "create", "error")
		return nil, apperr.DomainLookup(err, "could not insert %s ticket", class)
	}
	if _, err := s.store.RecordChange(ctx, itsm.Change{
		Origin:   changeOrigin,
		UserInfo: changeUserInfo,
	}); err != nil {
		s.logger.Warn("could not record change for ticket creation",
			zap.String("ticket", ticket.Class()+"::"+ticket.Key()),
			zap.Error(err),
		)
	}
	metrics.RecordTicketWrite(class, "create", "ok")

	s.appendTranscript(ctx, ticket, conv)

	s.events.Publish(ctx, events.SubjectTicketCreated, events.TicketEvent{
		ConversationID: conv.RemoteID,
		TicketClass:    ticket.Class(),
		TicketID:       ticket.Key(),
		TicketRef:      ticket.Class() + "::" + ticket.Key(),
	})

	title := i18n.F("SyncApp:TicketCreatedMessage:Title", admin.FullName)
	s.postNote(ctx, conv.RemoteID, admin.RemoteID, title, ticket)

	return ticket, nil
}

// appendTranscript copies the conversation history onto a freshly created
// ticket: the opening message plus every non-bot part, in payload order.
// Notes go to the private log, replies to the public log. Transcript
// problems never fail the creation that triggered them.
func (s *TicketService) appendTranscript(ctx context.Context, ticket *itsm.Object, conv *model.ConversationModel) {
	parts := make([]model.ConversationPart, 0, len(conv.Parts)+1)
	if conv.Source.Body != "" {
		parts = append(parts, conv.Source)
	}
	for _, part := range conv.Parts {
		if part.Author.IsBot() {
			continue
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return
	}

	mapping := s.cfg.Bridge.Attributes
	for _, part := range parts {
		attCode := mapping.PublicLog
		if part.IsNote() {
			attCode = mapping.PrivateLog
		}

		userID, userLogin := s.resolveAuthor(ctx, part.Author.Name)
		ticket.AppendLogEntry(attCode, itsm.LogEntry{
			UserID:    userID,
			UserLogin: userLogin,
			Date:      part.CreatedAt,
			Message:   logMessage(part.Body),
		})
	}

	if err := s.store.Save(ctx, ticket); err != nil {
		s.logger.Error("could not persist conversation transcript",
			zap.String("ticket", ticket.Class()+"::"+ticket.Key()),
			zap.Error(err),
		)
	}
}

// textToHTML converts a plain-text submission to the stored HTML shape of an
// html-formatted attribute.
func textToHTML(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>\n")
}
