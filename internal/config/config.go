// Package config provides configuration for the bridge.
//
// Server-level settings come from environment variables; the structured
// bridge settings (attribute mapping, form/detail attribute lists) come from
// an optional YAML file and fall back to the defaults below.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the bridge. It is loaded once at
// startup and read-only afterwards.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Shared secret both inbound endpoints verify signatures against.
	ClientSecret string

	// Outbound chat platform API
	APIBaseURL  string
	AccessToken string

	// Ops API
	OpsJWTSecret    string
	OpsAllowedRoles []string

	// NATS settings (event publishing is disabled when URL is empty)
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool

	// Host datamodel description for the in-memory store
	DatamodelFile string

	// Static assets base URL used for canvas icons
	IconsBaseURL string

	Bridge BridgeSettings
}

// BridgeSettings is the structured part of the configuration: which host
// class holds tickets and how its attributes map onto the sync surface.
type BridgeSettings struct {
	TicketClass       string           `yaml:"ticket_class"`
	Attributes        AttributeMapping `yaml:"attributes_mapping"`
	DoneStates        []string         `yaml:"done_states"`
	DetailAttributes  []string         `yaml:"details_attributes"`
	FormAttributes    []string         `yaml:"form_attributes"`
	SubtitleAttribute string           `yaml:"subtitle_attribute"`
	MaxTicketsDisplay int              `yaml:"max_tickets_display"`
	ShowBackoffice    bool             `yaml:"show_open_in_backoffice_button"`
	BackofficeURL     string           `yaml:"backoffice_url"` // %s placeholders: class, id
	PortalURL         string           `yaml:"portal_url"`     // %s placeholders: class, id
	ContactClass      string           `yaml:"contact_class"`
	UserClass         string           `yaml:"user_class"`
}

// AttributeMapping names the ticket attributes the bridge reads and writes.
type AttributeMapping struct {
	RemoteRef    string `yaml:"remote_ref" json:"remote_ref"`
	SyncEnabled  string `yaml:"sync_enabled" json:"sync_enabled"`
	Caller       string `yaml:"caller" json:"caller"`
	Organization string `yaml:"organization" json:"organization"`
	PublicLog    string `yaml:"public_log" json:"public_log"`
	PrivateLog   string `yaml:"private_log" json:"private_log"`
	Status       string `yaml:"status" json:"status"`
}

// DefaultBridgeSettings returns the settings used when no bridge file is
// configured. The attribute codes match the reference datamodel.
func DefaultBridgeSettings() BridgeSettings {
	return BridgeSettings{
		TicketClass: "UserRequest",
		Attributes: AttributeMapping{
			RemoteRef:    "intercom_ref",
			SyncEnabled:  "intercom_sync_activated",
			Caller:       "caller_id",
			Organization: "org_id",
			PublicLog:    "public_log",
			PrivateLog:   "private_log",
			Status:       "status",
		},
		DoneStates:        []string{"resolved", "closed"},
		MaxTicketsDisplay: 30,
		ContactClass:      "Person",
		UserClass:         "User",
	}
}

// Load reads configuration from environment variables and, when
// BRIDGE_SETTINGS_FILE is set, the YAML bridge settings file.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),

		ClientSecret: getEnv("INTERCOM_CLIENT_SECRET", ""),

		APIBaseURL:  getEnv("INTERCOM_API_BASE_URL", "https://api.intercom.io"),
		AccessToken: getEnv("INTERCOM_ACCESS_TOKEN", ""),

		OpsJWTSecret:    getEnv("OPS_JWT_SECRET", ""),
		OpsAllowedRoles: getListEnv("OPS_ALLOWED_ROLES", []string{"admin"}),

		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),

		DatamodelFile: getEnv("BRIDGE_DATAMODEL_FILE", ""),
		IconsBaseURL:  getEnv("BRIDGE_ICONS_BASE_URL", ""),

		Bridge: DefaultBridgeSettings(),
	}

	if path := getEnv("BRIDGE_SETTINGS_FILE", ""); path != "" {
		if err := loadBridgeFile(path, &cfg.Bridge); err != nil {
			return nil, err
		}
	}
	if err := cfg.Bridge.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadBridgeFile(path string, settings *BridgeSettings) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read bridge settings file: %w", err)
	}
	if err := yaml.Unmarshal(raw, settings); err != nil {
		return fmt.Errorf("parse bridge settings file %s: %w", path, err)
	}
	return nil
}

func (s *BridgeSettings) validate() error {
	if s.TicketClass == "" {
		return fmt.Errorf("bridge settings: ticket_class must not be empty")
	}
	if s.Attributes.RemoteRef == "" || s.Attributes.SyncEnabled == "" {
		return fmt.Errorf("bridge settings: remote_ref and sync_enabled attribute mappings must not be empty")
	}
	if s.MaxTicketsDisplay <= 0 {
		s.MaxTicketsDisplay = 30
	}
	if s.Attributes.PublicLog == "" {
		s.Attributes.PublicLog = "public_log"
	}
	if s.Attributes.PrivateLog == "" {
		s.Attributes.PrivateLog = "private_log"
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
