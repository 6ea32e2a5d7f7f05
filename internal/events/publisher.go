// Package events publishes bridge audit events to NATS JetStream.
package events

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/itsm-tools/intercom-bridge/pkg/logger"
	"github.com/itsm-tools/intercom-bridge/pkg/metrics"
)

const (
	// StreamName is the name of the bridge events stream.
	StreamName = "BRIDGE_EVENTS"

	// SubjectPrefix is the prefix for all bridge event subjects.
	SubjectPrefix = "bridge"

	// SubjectTicketLinked is published when a conversation is linked to a ticket.
	SubjectTicketLinked = "bridge.ticket.linked"
	// SubjectTicketCreated is published when a ticket is created from a conversation.
	SubjectTicketCreated = "bridge.ticket.created"
	// SubjectLogSynced is published for each ticket log updated from a chat message.
	SubjectLogSynced = "bridge.log.synced"
)

// Config holds NATS connection configuration.
type Config struct {
	URL      string
	CAFile   string
	CertFile string
	KeyFile  string
	Token    string
}

// TicketEvent describes a ticket touched by the bridge.
type TicketEvent struct {
	ConversationID string    `json:"conversation_id"`
	WorkspaceID    string    `json:"workspace_id"`
	TicketClass    string    `json:"ticket_class"`
	TicketID       string    `json:"ticket_id"`
	TicketRef      string    `json:"ticket_ref"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher publishes bridge events. A nil Publisher discards everything,
// so callers can skip publishing when NATS is not configured.
type Publisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logger.Logger
}

// Connect establishes a connection to the NATS server and ensures the
// bridge events stream exists.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error("NATS error", zap.Error(err))
		}),
	}

	if cfg.CAFile != "" && cfg.CertFile != "" && cfg.KeyFile != "" {
		tlsConfig, err := createTLSConfig(cfg.CAFile, cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts = append(opts, nats.Secure(tlsConfig))
	}

	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{conn: nc, js: js, logger: log}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}

	return p, nil
}

func (p *Publisher) ensureStream(ctx context.Context) error {
	_, err := p.js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Ticket bridge audit events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// Publish publishes an event to the bridge stream. It never fails the
// caller's operation: publish errors are logged and counted.
func (p *Publisher) Publish(ctx context.Context, subject string, event TicketEvent) {
	if p == nil {
		return
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal bridge event", zap.Error(err))
		metrics.EventsPublishedTotal.WithLabelValues(subject, "error").Inc()
		return
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		p.logger.Error("failed to publish bridge event",
			zap.String("subject", subject),
			zap.Error(err),
		)
		metrics.EventsPublishedTotal.WithLabelValues(subject, "error").Inc()
		return
	}

	metrics.EventsPublishedTotal.WithLabelValues(subject, "ok").Inc()
}

// IsConnected returns true if connected to NATS.
func (p *Publisher) IsConnected() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

func createTLSConfig(caFile, certFile, keyFile string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert: %w", err)
	}

	return &tls.Config{
		RootCAs:      caCertPool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
