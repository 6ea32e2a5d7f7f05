package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.APIBaseURL != "https://api.intercom.io" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.RateLimitRequests != 120 || cfg.RateLimitWindow != time.Minute {
		t.Errorf("rate limit = %d/%v", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	if cfg.Bridge.TicketClass != "UserRequest" {
		t.Errorf("TicketClass = %q", cfg.Bridge.TicketClass)
	}
	if cfg.Bridge.Attributes.RemoteRef != "intercom_ref" {
		t.Errorf("RemoteRef = %q", cfg.Bridge.Attributes.RemoteRef)
	}
	if got := cfg.Bridge.DoneStates; len(got) != 2 || got[0] != "resolved" || got[1] != "closed" {
		t.Errorf("DoneStates = %v", got)
	}
	if cfg.Bridge.MaxTicketsDisplay != 30 {
		t.Errorf("MaxTicketsDisplay = %d", cfg.Bridge.MaxTicketsDisplay)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("INTERCOM_CLIENT_SECRET", "shh")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("OPS_ALLOWED_ROLES", "admin, operator")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.ClientSecret != "shh" {
		t.Errorf("ClientSecret = %q", cfg.ClientSecret)
	}
	if cfg.ServerReadTimeout != 5*time.Second {
		t.Errorf("ServerReadTimeout = %v", cfg.ServerReadTimeout)
	}
	if cfg.RateLimitRequests != 10 {
		t.Errorf("RateLimitRequests = %d", cfg.RateLimitRequests)
	}
	if !cfg.TracingEnabled {
		t.Error("TracingEnabled = false, want true")
	}
	if roles := cfg.OpsAllowedRoles; len(roles) != 2 || roles[0] != "admin" || roles[1] != "operator" {
		t.Errorf("OpsAllowedRoles = %v", roles)
	}
}

func TestLoadBridgeSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	data := `
ticket_class: Incident
attributes_mapping:
  remote_ref: chat_ref
  sync_enabled: chat_sync
done_states: [closed]
form_attributes: [title, impact]
max_tickets_display: 5
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BRIDGE_SETTINGS_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bridge.TicketClass != "Incident" {
		t.Errorf("TicketClass = %q", cfg.Bridge.TicketClass)
	}
	if cfg.Bridge.Attributes.RemoteRef != "chat_ref" || cfg.Bridge.Attributes.SyncEnabled != "chat_sync" {
		t.Errorf("attributes = %+v", cfg.Bridge.Attributes)
	}
	if cfg.Bridge.MaxTicketsDisplay != 5 {
		t.Errorf("MaxTicketsDisplay = %d", cfg.Bridge.MaxTicketsDisplay)
	}
	// Unset mappings keep their defaults through validation.
	if cfg.Bridge.Attributes.PublicLog != "public_log" {
		t.Errorf("PublicLog = %q", cfg.Bridge.Attributes.PublicLog)
	}
}

func TestLoadRejectsInvalidBridgeFile(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty ticket class", "ticket_class: \"\"\n"},
		{
			"missing sync mapping",
			"ticket_class: UserRequest\nattributes_mapping:\n  remote_ref: intercom_ref\n  sync_enabled: \"\"\n",
		},
		{"not yaml", "{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bridge.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
				t.Fatal(err)
			}
			t.Setenv("BRIDGE_SETTINGS_FILE", path)

			if _, err := Load(); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestLoadMissingBridgeFile(t *testing.T) {
	t.Setenv("BRIDGE_SETTINGS_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Error("Load() succeeded, want error for a missing file")
	}
}
