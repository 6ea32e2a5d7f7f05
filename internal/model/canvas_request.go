// Package model defines the typed decoders for the chat platform's inbound
// payloads. Every DTO is built per request and discarded with it.
package model

import (
	"fmt"
	"time"

	"github.com/itsm-tools/intercom-bridge/internal/apperr"
)

// Canvas operations.
const (
	OperationInitialize = "initialize-conversation-details"
	OperationSubmit     = "submit-conversation-details"
)

// CanvasRequest is the body of a Canvas Kit call. The contact, admin and
// conversation envelopes are kept raw here; the typed accessors below
// validate them on demand so each screen only pays for what it reads.
type CanvasRequest struct {
	WorkspaceID  string               `json:"workspace_id"`
	Operation    string               `json:"operation"`
	ComponentID  string               `json:"component_id"`
	InputValues  map[string]string    `json:"input_values"`
	ContactData  *contactPayload      `json:"contact"`
	AdminData    *adminPayload        `json:"admin"`
	Conversation *conversationPayload `json:"conversation"`
}

type contactPayload struct {
	ID               string         `json:"id"`
	WorkspaceID      string         `json:"workspace_id"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	CustomAttributes map[string]any `json:"custom_attributes"`
}

type adminPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type conversationPayload struct {
	ID        string             `json:"id"`
	CreatedAt int64              `json:"created_at"`
	Source    *partPayload       `json:"source"`
	Parts     *conversationParts `json:"conversation_parts"`
}

type conversationParts struct {
	Parts []partPayload `json:"conversation_parts"`
}

type partPayload struct {
	Author    authorPayload `json:"author"`
	Body      string        `json:"body"`
	PartType  string        `json:"part_type"`
	CreatedAt int64         `json:"created_at"`
}

type authorPayload struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Contact is the end-user party to a conversation. The linked-record fields
// point at the host-store record the chat widget was bootstrapped with; they
// are either both present or both absent.
type Contact struct {
	RemoteID          string
	WorkspaceID       string
	FullName          string
	Email             string
	LinkedRecordClass string
	LinkedRecordID    string
}

// HasLinkedRecord reports whether the contact carries a host-store record
// reference.
func (c *Contact) HasLinkedRecord() bool {
	return c.LinkedRecordClass != "" && c.LinkedRecordID != ""
}

// Contact decodes and validates the request's contact envelope.
func (r *CanvasRequest) Contact() (*Contact, error) {
	if r.ContactData == nil {
		return nil, apperr.MalformedPayload(`missing "contact" entry in canvas request`)
	}
	p := r.ContactData
	if p.ID == "" {
		return nil, apperr.MalformedPayload("contact entry has no id")
	}

	c := &Contact{
		RemoteID:    p.ID,
		WorkspaceID: p.WorkspaceID,
		FullName:    p.Name,
		Email:       p.Email,
	}
	class := customAttribute(p.CustomAttributes, "itop_contact_class")
	id := customAttribute(p.CustomAttributes, "itop_contact_id")
	if (class == "") != (id == "") {
		return nil, apperr.MalformedPayload("contact carries a partial linked-record reference (class %q, id %q)", class, id)
	}
	c.LinkedRecordClass = class
	c.LinkedRecordID = id

	return c, nil
}

func customAttribute(attrs map[string]any, key string) string {
	v, ok := attrs[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers for ids come through as floats; they are integral.
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Admin is the support-agent operator driving the canvas. All fields are
// required.
type Admin struct {
	RemoteID string
	FullName string
	Email    string
}

// Admin decodes and validates the request's admin envelope.
func (r *CanvasRequest) Admin() (*Admin, error) {
	if r.AdminData == nil {
		return nil, apperr.MalformedPayload(`missing "admin" entry in canvas request`)
	}
	p := r.AdminData
	if p.ID == "" || p.Name == "" || p.Email == "" {
		return nil, apperr.MalformedPayload("admin entry is incomplete (id %q, name %q, email %q)", p.ID, p.Name, p.Email)
	}
	return &Admin{RemoteID: p.ID, FullName: p.Name, Email: p.Email}, nil
}

// AuthorRef identifies the author of a conversation part.
type AuthorRef struct {
	Type string
	ID   string
	Name string
}

// IsBot reports whether the part was authored by the platform's bot.
func (a AuthorRef) IsBot() bool {
	return a.Type == "bot"
}

// ConversationPart is one message of a conversation thread.
type ConversationPart struct {
	Author    AuthorRef
	Body      string
	PartType  string
	CreatedAt time.Time
}

// IsNote reports whether the part is an internal note rather than a reply
// visible to the end user.
func (p ConversationPart) IsNote() bool {
	return p.PartType == "note"
}

// ConversationModel is a chat thread: the opening message plus its ordered
// follow-up parts, chronological as delivered by the platform.
type ConversationModel struct {
	RemoteID  string
	StartedAt time.Time
	Source    ConversationPart
	Parts     []ConversationPart
}

// ConversationDetails decodes and validates the request's conversation
// envelope.
func (r *CanvasRequest) ConversationDetails() (*ConversationModel, error) {
	if r.Conversation == nil {
		return nil, apperr.MalformedPayload(`missing "conversation" entry in canvas request`)
	}
	p := r.Conversation
	if p.ID == "" {
		return nil, apperr.MalformedPayload("conversation entry has no id")
	}

	conv := &ConversationModel{
		RemoteID:  p.ID,
		StartedAt: time.Unix(p.CreatedAt, 0).UTC(),
	}
	if p.Source != nil {
		conv.Source = decodePart(*p.Source)
	}
	if p.Parts != nil {
		for _, part := range p.Parts.Parts {
			conv.Parts = append(conv.Parts, decodePart(part))
		}
	}
	return conv, nil
}

func decodePart(p partPayload) ConversationPart {
	return ConversationPart{
		Author: AuthorRef{
			Type: p.Author.Type,
			ID:   p.Author.ID,
			Name: p.Author.Name,
		},
		Body:      p.Body,
		PartType:  p.PartType,
		CreatedAt: time.Unix(p.CreatedAt, 0).UTC(),
	}
}
