package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/itsm-tools/intercom-bridge/internal/config"
	"github.com/itsm-tools/intercom-bridge/internal/itsm"
	"github.com/itsm-tools/intercom-bridge/internal/service"
	"github.com/itsm-tools/intercom-bridge/pkg/logger"
)

type webhookFixture struct {
	handler *WebhookHandler
	store   *itsm.MemoryStore
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	cfg := &config.Config{ClientSecret: testSecret, Bridge: config.DefaultBridgeSettings()}
	store := itsm.NewMemoryStore(itsm.DefaultDatamodel()...)
	log := logger.NewNop()
	tickets := service.NewTicketService(store, cfg, nil, nil, log)
	guard := NewGuard(testSecret, log)

	return &webhookFixture{
		handler: NewWebhookHandler(guard, tickets, log),
		store:   store,
	}
}

// webhookPayload builds a delivery envelope for a new-message topic.
func webhookPayload(topic, conversationID, author, body string) map[string]any {
	return map[string]any{
		"app_id":        "ws1",
		"topic":         topic,
		"first_sent_at": 1767430800,
		"data": map[string]any{
			"item": map[string]any{
				"id": conversationID,
				"conversation_parts": map[string]any{
					"conversation_parts": []map[string]any{
						{
							"author":     map[string]any{"type": "admin", "name": author},
							"body":       body,
							"part_type":  "comment",
							"created_at": 1767430800,
						},
					},
				},
			},
		},
	}
}

func (f *webhookFixture) post(t *testing.T, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	r := httptest.NewRequest("POST", "/hooks/webhook", bytes.NewReader(body))
	r.Header.Set(WebhookSignatureHeader, signBody(WebhookScheme, testSecret, body))
	w := httptest.NewRecorder()
	f.handler.Handle(w, r)
	return w
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	body, _ := json.Marshal(webhookPayload("ping", "c1", "a", "b"))
	r := httptest.NewRequest("POST", "/hooks/webhook", bytes.NewReader(body))
	r.Header.Set(WebhookSignatureHeader, "sha1=deadbeef")
	w := httptest.NewRecorder()
	f.handler.Handle(w, r)

	if w.Code != 401 {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestWebhookPing(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	w := f.post(t, map[string]any{"app_id": "ws1", "topic": "ping"})
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("response = %v", resp)
	}
}

// Only tickets that explicitly opted in to synchronization receive the
// message; linkage alone is not enough.
func TestWebhookFansOutToOptedInTickets(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	synced := f.store.MustSeed("UserRequest", map[string]any{
		"title": "synced", "description": "d",
		"intercom_ref": "c1", "intercom_sync_activated": "yes",
	})
	muted := f.store.MustSeed("UserRequest", map[string]any{
		"title": "muted", "description": "d",
		"intercom_ref": "c1", "intercom_sync_activated": "no",
	})

	w := f.post(t, webhookPayload("conversation.user.replied", "c1", "Alice", "<p>hello?</p>"))
	if w.Code != 200 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status  string `json:"status"`
		Tickets []struct {
			Ticket string `json:"ticket"`
			Status string `json:"status"`
		} `json:"tickets"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || len(resp.Tickets) != 1 {
		t.Fatalf("response = %+v, want one synced ticket", resp)
	}
	if resp.Tickets[0].Ticket != "UserRequest::"+synced.Key() || resp.Tickets[0].Status != "ok" {
		t.Errorf("ticket status = %+v", resp.Tickets[0])
	}

	if got := synced.CaseLog("public_log"); len(got) != 1 {
		t.Errorf("synced public log = %d entries, want 1", len(got))
	}
	if got := muted.CaseLog("public_log"); len(got) != 0 {
		t.Errorf("muted public log = %d entries, want 0", len(got))
	}
}

func TestWebhookNoteLandsInPrivateLog(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	ticket := f.store.MustSeed("UserRequest", map[string]any{
		"title": "t", "description": "d",
		"intercom_ref": "c1", "intercom_sync_activated": "yes",
	})

	w := f.post(t, webhookPayload("conversation.admin.noted", "c1", "Grace Hopper", "<p>internal</p>"))
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	if got := ticket.CaseLog("private_log"); len(got) != 1 {
		t.Errorf("private log = %d entries, want 1", len(got))
	}
	if got := ticket.CaseLog("public_log"); len(got) != 0 {
		t.Errorf("public log = %d entries, want 0", len(got))
	}
}

func TestWebhookUnsupportedTopic(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	w := f.post(t, map[string]any{"app_id": "ws1", "topic": "contact.created"})
	if w.Code != 200 {
		t.Fatalf("status = %d, unsupported topics are acknowledged", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "error" {
		t.Errorf("response = %v", resp)
	}
	if !strings.Contains(resp["message"], "contact.created") {
		t.Errorf("message = %q, want the raw topic named", resp["message"])
	}
}

// A correctly signed delivery that is not a JSON object is the sender's
// fault, not an authentication failure.
func TestWebhookNonObjectBodyIsBadRequest(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	body := []byte(`[1,2]`)
	r := httptest.NewRequest("POST", "/hooks/webhook", bytes.NewReader(body))
	r.Header.Set(WebhookSignatureHeader, signBody(WebhookScheme, testSecret, body))
	w := httptest.NewRecorder()
	f.handler.Handle(w, r)

	if w.Code != 400 {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestWebhookMalformedDeliveries(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)

	// Envelope without a topic.
	w := f.post(t, map[string]any{"app_id": "ws1"})
	if w.Code != 400 {
		t.Errorf("missing topic: status = %d, want 400", w.Code)
	}

	// Message topic without any conversation part.
	w = f.post(t, map[string]any{
		"app_id": "ws1",
		"topic":  "conversation.user.replied",
		"data":   map[string]any{"item": map[string]any{"id": "c1"}},
	})
	if w.Code != 400 {
		t.Errorf("missing part: status = %d, want 400", w.Code)
	}
}
