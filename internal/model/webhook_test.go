package model

import "testing"

func TestWebhookTopicNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want Topic
	}{
		{"ping", TopicPing},
		{"conversation.user.replied", TopicUserReplied},
		{"conversation.admin.replied", TopicAdminReplied},
		{"conversation.admin.noted", TopicAdminNoted},
		{"conversation.admin.closed", TopicUnsupported},
		{"company.created", TopicUnsupported},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			env, err := WebhookFromEvent([]byte(`{"app_id":"w1","topic":"` + tt.raw + `","first_sent_at":1700000000}`))
			if err != nil {
				t.Fatalf("WebhookFromEvent() error = %v", err)
			}
			if env.Topic() != tt.want {
				t.Errorf("Topic() = %q, want %q", env.Topic(), tt.want)
			}
		})
	}
}

func TestWebhookFromEventFailures(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		`not json`,
		`{"app_id":"w1","first_sent_at":1}`,
	} {
		if _, err := WebhookFromEvent([]byte(raw)); err == nil {
			t.Errorf("WebhookFromEvent(%s) expected error", raw)
		}
	}
}

func TestNewMessageFromEnvelope(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"app_id":"w1",
		"topic":"conversation.user.replied",
		"first_sent_at":1700000000,
		"data":{"item":{
			"id":"c1",
			"conversation_parts":{"conversation_parts":[
				{"author":{"type":"user","name":"Ada Lovelace"},"body":"<p>still broken</p>","part_type":"comment","created_at":1700000000}
			]}
		}}
	}`)

	env, err := WebhookFromEvent(raw)
	if err != nil {
		t.Fatalf("WebhookFromEvent() error = %v", err)
	}

	wh, err := NewMessageFromEnvelope(env)
	if err != nil {
		t.Fatalf("NewMessageFromEnvelope() error = %v", err)
	}
	if wh.RemoteID != "c1" {
		t.Errorf("RemoteID = %q", wh.RemoteID)
	}
	if wh.AuthorFullName != "Ada Lovelace" {
		t.Errorf("AuthorFullName = %q", wh.AuthorFullName)
	}
	if wh.MessageBody != "<p>still broken</p>" {
		t.Errorf("MessageBody = %q", wh.MessageBody)
	}
	if wh.IsNote() {
		t.Error("user reply should not be a note")
	}
}

func TestNewMessageRequiresAPart(t *testing.T) {
	t.Parallel()

	for name, raw := range map[string]string{
		"no parts": `{"app_id":"w1","topic":"conversation.user.replied","data":{"item":{"id":"c1","conversation_parts":{"conversation_parts":[]}}}}`,
		"no id":    `{"app_id":"w1","topic":"conversation.user.replied","data":{"item":{"conversation_parts":{"conversation_parts":[{"body":"x"}]}}}}`,
	} {
		env, err := WebhookFromEvent([]byte(raw))
		if err != nil {
			t.Fatalf("%s: WebhookFromEvent() error = %v", name, err)
		}
		if _, err := NewMessageFromEnvelope(env); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
