package service

import (
	"context"
	"strings"
	"testing"

	"github.com/itsm-tools/intercom-bridge/internal/canvas"
	"github.com/itsm-tools/intercom-bridge/internal/config"
	"github.com/itsm-tools/intercom-bridge/internal/intercom"
	"github.com/itsm-tools/intercom-bridge/internal/itsm"
	"github.com/itsm-tools/intercom-bridge/internal/model"
	"github.com/itsm-tools/intercom-bridge/pkg/logger"
)

// noteRecorder records outbound conversation replies.
type noteRecorder struct {
	calls []recordedNote
	fail  bool
}

type recordedNote struct {
	ConversationID string
	Reply          intercom.Reply
}

func (r *noteRecorder) ReplyToConversation(ctx context.Context, conversationID string, reply intercom.Reply) error {
	r.calls = append(r.calls, recordedNote{ConversationID: conversationID, Reply: reply})
	if r.fail {
		return context.DeadlineExceeded
	}
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{Bridge: config.DefaultBridgeSettings()}
	cfg.Bridge.DetailAttributes = []string{"title", "description", "status", "public_log"}
	cfg.Bridge.FormAttributes = []string{"title", "description", "status"}
	cfg.Bridge.PortalURL = "https://portal.example.org/%s/%s"
	return cfg
}

func newTestService(t *testing.T) (*TicketService, *itsm.MemoryStore, *noteRecorder) {
	t.Helper()
	store := itsm.NewMemoryStore(itsm.DefaultDatamodel()...)
	notes := &noteRecorder{}
	svc := NewTicketService(store, testConfig(), notes, nil, logger.NewNop())
	return svc, store, notes
}

func testConversation(id string) *model.ConversationModel {
	return &model.ConversationModel{RemoteID: id}
}

func testAdmin() *model.Admin {
	return &model.Admin{RemoteID: "a1", FullName: "Grace Hopper", Email: "grace@example.org"}
}

func TestOngoingTicketsExcludesDoneStatesAndOtherCallers(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	ctx := context.Background()

	store.MustSeed("UserRequest", map[string]any{"title": "mine ongoing", "description": "d", "status": "new", "caller_id": "7"})
	store.MustSeed("UserRequest", map[string]any{"title": "mine resolved", "description": "d", "status": "resolved", "caller_id": "7"})
	store.MustSeed("UserRequest", map[string]any{"title": "mine closed", "description": "d", "status": "closed", "caller_id": "7"})
	store.MustSeed("UserRequest", map[string]any{"title": "other caller", "description": "d", "status": "new", "caller_id": "8"})

	contact := &model.Contact{RemoteID: "ct1", LinkedRecordClass: "Person", LinkedRecordID: "7"}
	got, err := svc.OngoingTickets(ctx, contact)
	if err != nil {
		t.Fatalf("OngoingTickets() error = %v", err)
	}
	if len(got) != 1 || got[0].GetString("title") != "mine ongoing" {
		t.Fatalf("ongoing = %d tickets, want only the caller's non-done ticket", len(got))
	}

	unlinked := &model.Contact{RemoteID: "ct2"}
	if _, err := svc.OngoingTickets(ctx, unlinked); err == nil {
		t.Error("contact without host record should fail the lookup")
	}
}

func TestLinkedTicketsCapped(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	svc.cfg.Bridge.MaxTicketsDisplay = 2

	for i := 0; i < 5; i++ {
		store.MustSeed("UserRequest", map[string]any{"title": "t", "description": "d", "intercom_ref": "c1"})
	}

	got, err := svc.LinkedTickets(context.Background(), "c1")
	if err != nil {
		t.Fatalf("LinkedTickets() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("linked = %d tickets, want display cap of 2", len(got))
	}
}

func TestLinkTicketSetsRemoteRefAndPostsNote(t *testing.T) {
	t.Parallel()

	svc, store, notes := newTestService(t)
	ctx := context.Background()

	seeded := store.MustSeed("UserRequest", map[string]any{"title": "Printer down", "description": "d", "status": "new"})
	ref := canvas.TicketRef{Class: "UserRequest", ID: seeded.Key()}

	ticket, err := svc.LinkTicket(ctx, ref, testConversation("c1"), testAdmin())
	if err != nil {
		t.Fatalf("LinkTicket() error = %v", err)
	}
	if got := ticket.GetString("intercom_ref"); got != "c1" {
		t.Errorf("intercom_ref = %q, want c1", got)
	}

	if len(notes.calls) != 1 {
		t.Fatalf("outbound notes = %d, want 1", len(notes.calls))
	}
	note := notes.calls[0]
	if note.ConversationID != "c1" {
		t.Errorf("note conversation = %q", note.ConversationID)
	}
	if note.Reply.MessageType != "note" || note.Reply.AdminID != "a1" {
		t.Errorf("note payload = %+v", note.Reply)
	}
	if !strings.Contains(note.Reply.Body, "Printer down") {
		t.Errorf("note body misses ticket name: %s", note.Reply.Body)
	}
	if !strings.Contains(note.Reply.Body, "https://portal.example.org/UserRequest/"+seeded.Key()) {
		t.Errorf("note body misses portal link: %s", note.Reply.Body)
	}
}

// Relinking is idempotent on the attribute but still re-posts the note.
func TestRelinkKeepsRefAndRepostsNote(t *testing.T) {
	t.Parallel()

	svc, store, notes := newTestService(t)
	ctx := context.Background()

	seeded := store.MustSeed("UserRequest", map[string]any{"title": "t", "description": "d", "intercom_ref": "c1"})
	ref := canvas.TicketRef{Class: "UserRequest", ID: seeded.Key()}

	for i := 0; i < 2; i++ {
		if _, err := svc.LinkTicket(ctx, ref, testConversation("c1"), testAdmin()); err != nil {
			t.Fatalf("LinkTicket() #%d error = %v", i+1, err)
		}
	}

	if got := seeded.GetString("intercom_ref"); got != "c1" {
		t.Errorf("intercom_ref after relink = %q, want c1", got)
	}
	if len(notes.calls) != 2 {
		t.Errorf("outbound notes = %d, want one per link call", len(notes.calls))
	}
}

func TestLinkTicketNoteFailureDoesNotUndoLink(t *testing.T) {
	t.Parallel()

	svc, store, notes := newTestService(t)
	notes.fail = true
	ctx := context.Background()

	seeded := store.MustSeed("UserRequest", map[string]any{"title": "t", "description": "d"})
	ref := canvas.TicketRef{Class: "UserRequest", ID: seeded.Key()}

	if _, err := svc.LinkTicket(ctx, ref, testConversation("c9"), testAdmin()); err != nil {
		t.Fatalf("LinkTicket() error = %v, note failure must stay soft", err)
	}
	if got := seeded.GetString("intercom_ref"); got != "c9" {
		t.Errorf("intercom_ref = %q, want c9", got)
	}
}

func TestLinkTicketUnknownTicket(t *testing.T) {
	t.Parallel()

	svc, _, notes := newTestService(t)

	_, err := svc.LinkTicket(context.Background(), canvas.TicketRef{Class: "UserRequest", ID: "999"}, testConversation("c1"), testAdmin())
	if err == nil {
		t.Fatal("expected lookup failure")
	}
	if len(notes.calls) != 0 {
		t.Error("no note should go out for a failed link")
	}
}
