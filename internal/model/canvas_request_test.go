package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/itsm-tools/intercom-bridge/internal/apperr"
)

func decodeRequest(t *testing.T, raw string) *CanvasRequest {
	t.Helper()
	var req CanvasRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	return &req
}

func TestContactDecoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		wantErr    bool
		wantLinked bool
	}{
		{
			"full contact with linked record",
			`{"contact":{"id":"ct1","workspace_id":"w1","name":"Ada Lovelace","email":"ada@example.org","custom_attributes":{"itop_contact_class":"Person","itop_contact_id":7}}}`,
			false,
			true,
		},
		{
			"contact without linked record",
			`{"contact":{"id":"ct1","name":"Ada Lovelace"}}`,
			false,
			false,
		},
		{
			"missing contact envelope",
			`{"workspace_id":"w1"}`,
			true,
			false,
		},
		{
			"contact without id",
			`{"contact":{"name":"Ada Lovelace"}}`,
			true,
			false,
		},
		{
			"partial linked record",
			`{"contact":{"id":"ct1","custom_attributes":{"itop_contact_class":"Person"}}}`,
			true,
			false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := decodeRequest(t, tt.raw)
			contact, err := req.Contact()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				var malformed *apperr.MalformedPayloadError
				if !errors.As(err, &malformed) {
					t.Errorf("error type = %T, want MalformedPayloadError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Contact() error = %v", err)
			}
			if contact.HasLinkedRecord() != tt.wantLinked {
				t.Errorf("HasLinkedRecord() = %v, want %v", contact.HasLinkedRecord(), tt.wantLinked)
			}
		})
	}
}

func TestContactNumericLinkedRecordID(t *testing.T) {
	t.Parallel()

	req := decodeRequest(t, `{"contact":{"id":"ct1","custom_attributes":{"itop_contact_class":"Person","itop_contact_id":12345}}}`)
	contact, err := req.Contact()
	if err != nil {
		t.Fatalf("Contact() error = %v", err)
	}
	if contact.LinkedRecordID != "12345" {
		t.Errorf("LinkedRecordID = %q, want 12345", contact.LinkedRecordID)
	}
}

func TestAdminDecoding(t *testing.T) {
	t.Parallel()

	req := decodeRequest(t, `{"admin":{"id":"a1","name":"Grace Hopper","email":"grace@example.org"}}`)
	admin, err := req.Admin()
	if err != nil {
		t.Fatalf("Admin() error = %v", err)
	}
	if admin.FullName != "Grace Hopper" {
		t.Errorf("FullName = %q", admin.FullName)
	}

	for _, raw := range []string{
		`{}`,
		`{"admin":{"id":"a1","name":"Grace Hopper"}}`,
		`{"admin":{"name":"Grace Hopper","email":"grace@example.org"}}`,
	} {
		req := decodeRequest(t, raw)
		if _, err := req.Admin(); err == nil {
			t.Errorf("Admin() on %s expected error", raw)
		}
	}
}

func TestConversationDecoding(t *testing.T) {
	t.Parallel()

	raw := `{"conversation":{
		"id":"c1",
		"created_at":1700000000,
		"source":{"author":{"type":"user","id":"u1","name":"Ada"},"body":"<p>hello</p>","created_at":1700000000},
		"conversation_parts":{"conversation_parts":[
			{"author":{"type":"admin","name":"Grace"},"body":"<p>hi</p>","part_type":"comment","created_at":1700000100},
			{"author":{"type":"bot","name":"Operator"},"body":"<p>auto</p>","part_type":"comment","created_at":1700000200},
			{"author":{"type":"admin","name":"Grace"},"body":"<p>internal</p>","part_type":"note","created_at":1700000300}
		]}
	}}`

	req := decodeRequest(t, raw)
	conv, err := req.ConversationDetails()
	if err != nil {
		t.Fatalf("ConversationDetails() error = %v", err)
	}
	if conv.RemoteID != "c1" {
		t.Errorf("RemoteID = %q", conv.RemoteID)
	}
	if conv.Source.Body != "<p>hello</p>" {
		t.Errorf("Source.Body = %q", conv.Source.Body)
	}
	if len(conv.Parts) != 3 {
		t.Fatalf("parts = %d, want 3 in payload order", len(conv.Parts))
	}
	if !conv.Parts[1].Author.IsBot() {
		t.Error("second part should be a bot part")
	}
	if !conv.Parts[2].IsNote() {
		t.Error("third part should be a note")
	}
	if !conv.Parts[0].CreatedAt.Before(conv.Parts[2].CreatedAt) {
		t.Error("chronological order lost")
	}

	req = decodeRequest(t, `{"conversation":{"created_at":1}}`)
	if _, err := req.ConversationDetails(); err == nil {
		t.Error("conversation without id should fail")
	}
}
