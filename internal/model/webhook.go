package model

import (
	"encoding/json"
	"time"

	"github.com/itsm-tools/intercom-bridge/internal/apperr"
)

// Topic is a webhook topic code.
type Topic string

// Known webhook topics. Anything else routes to TopicUnsupported; an unknown
// topic is never an error.
const (
	TopicPing         Topic = "ping"
	TopicUserReplied  Topic = "conversation.user.replied"
	TopicAdminReplied Topic = "conversation.admin.replied"
	TopicAdminNoted   Topic = "conversation.admin.noted"
	TopicUnsupported  Topic = "unsupported"
)

// WebhookEnvelope is the outer wrapper of a webhook delivery. Item is kept
// opaque; topic-specific decoders pull what they need from it.
type WebhookEnvelope struct {
	WorkspaceID string
	RawTopic    string
	FirstSentAt time.Time
	Item        json.RawMessage
}

type webhookPayload struct {
	AppID       string `json:"app_id"`
	Topic       string `json:"topic"`
	FirstSentAt int64  `json:"first_sent_at"`
	Data        struct {
		Item json.RawMessage `json:"item"`
	} `json:"data"`
}

// WebhookFromEvent decodes the webhook envelope from a raw body.
func WebhookFromEvent(body []byte) (*WebhookEnvelope, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, apperr.MalformedPayload("webhook envelope could not be decoded: %v", err)
	}
	if p.Topic == "" {
		return nil, apperr.MalformedPayload(`webhook envelope has no "topic"`)
	}
	return &WebhookEnvelope{
		WorkspaceID: p.AppID,
		RawTopic:    p.Topic,
		FirstSentAt: time.Unix(p.FirstSentAt, 0).UTC(),
		Item:        p.Data.Item,
	}, nil
}

// Topic normalizes the raw topic code to the known set.
func (w *WebhookEnvelope) Topic() Topic {
	switch Topic(w.RawTopic) {
	case TopicPing, TopicUserReplied, TopicAdminReplied, TopicAdminNoted:
		return Topic(w.RawTopic)
	default:
		return TopicUnsupported
	}
}

// IsNote reports whether the delivery is an internal note rather than a
// user-visible reply.
func (w *WebhookEnvelope) IsNote() bool {
	return w.Topic() == TopicAdminNoted
}

// NewMessageWebhook specializes the envelope for the new-conversation-message
// topics: the item carries the conversation id and the freshly added part.
type NewMessageWebhook struct {
	*WebhookEnvelope

	RemoteID       string
	AuthorFullName string
	MessageBody    string
}

type newMessageItem struct {
	ID    string `json:"id"`
	Parts struct {
		Parts []partPayload `json:"conversation_parts"`
	} `json:"conversation_parts"`
}

// NewMessageFromEnvelope decodes the new-message specialization. The item
// must contain at least one conversation part.
func NewMessageFromEnvelope(env *WebhookEnvelope) (*NewMessageWebhook, error) {
	var item newMessageItem
	if err := json.Unmarshal(env.Item, &item); err != nil {
		return nil, apperr.MalformedPayload("webhook item could not be decoded: %v", err)
	}
	if item.ID == "" {
		return nil, apperr.MalformedPayload("webhook item has no conversation id")
	}
	if len(item.Parts.Parts) == 0 {
		return nil, apperr.MalformedPayload("webhook item for topic %q has no conversation part", env.RawTopic)
	}

	part := item.Parts.Parts[0]
	return &NewMessageWebhook{
		WebhookEnvelope: env,
		RemoteID:        item.ID,
		AuthorFullName:  part.Author.Name,
		MessageBody:     part.Body,
	}, nil
}
