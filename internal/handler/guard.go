// Package handler implements the HTTP surface of the bridge: the two
// signed inbound hook endpoints, health checks and operator diagnostics.
package handler

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"hash"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/itsm-tools/intercom-bridge/internal/apperr"
	"github.com/itsm-tools/intercom-bridge/pkg/logger"
	"github.com/itsm-tools/intercom-bridge/pkg/metrics"
)

// Signature schemes of the two inbound endpoints.
const (
	// CanvasSignatureHeader carries a hex HMAC-SHA256 digest of the raw body.
	CanvasSignatureHeader = "X-Body-Signature"
	// WebhookSignatureHeader carries "sha1=" plus a hex HMAC-SHA1 digest of
	// the raw body.
	WebhookSignatureHeader = "X-Hub-Signature"

	webhookSignaturePrefix = "sha1="
)

// SignatureScheme names an endpoint's header and digest algorithm pair.
type SignatureScheme struct {
	Name    string
	Header  string
	Prefix  string // literal prefix expected on the header value
	NewHash func() hash.Hash
}

// CanvasScheme is the canvas endpoint's signature scheme.
var CanvasScheme = SignatureScheme{
	Name:    "canvas",
	Header:  CanvasSignatureHeader,
	NewHash: sha256.New,
}

// WebhookScheme is the webhook endpoint's signature scheme.
var WebhookScheme = SignatureScheme{
	Name:    "webhook",
	Header:  WebhookSignatureHeader,
	Prefix:  webhookSignaturePrefix,
	NewHash: sha1.New,
}

// Guard authenticates and pre-parses inbound hook requests. Both endpoints
// share the same two-stage check: the raw body is read exactly once, its
// HMAC is verified against the endpoint's signature header, then the body
// must decode to a JSON object.
type Guard struct {
	secret []byte
	logger *logger.Logger
}

// NewGuard creates a guard over the configured shared secret.
func NewGuard(secret string, log *logger.Logger) *Guard {
	return &Guard{secret: []byte(secret), logger: log}
}

// Admit reads and authenticates the request, returning the raw body for the
// handler to decode. Structural failures come back as typed errors.
func (g *Guard) Admit(r *http.Request, scheme SignatureScheme) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, apperr.MalformedPayload("could not read request body: %v", err)
	}

	received := r.Header.Get(scheme.Header)

	g.logger.Debug("inbound hook received",
		zap.String("handler", scheme.Name),
		zap.String("signature", received),
		zap.ByteString("payload", body),
	)

	if len(g.secret) == 0 {
		metrics.AuthFailuresTotal.WithLabelValues(scheme.Name).Inc()
		return nil, apperr.Authentication("no client secret configured")
	}
	if received == "" {
		metrics.AuthFailuresTotal.WithLabelValues(scheme.Name).Inc()
		return nil, apperr.Authentication("missing signature in HTTP header")
	}

	mac := hmac.New(scheme.NewHash, g.secret)
	mac.Write(body)
	expected := scheme.Prefix + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(received), []byte(expected)) {
		g.logger.Error("signature does not match payload and secret key",
			zap.String("handler", scheme.Name),
			zap.String("signature", received),
		)
		metrics.AuthFailuresTotal.WithLabelValues(scheme.Name).Inc()
		return nil, apperr.Authentication("signature does not match payload and secret key")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, apperr.MalformedPayload("request body is not a JSON object: %v", err)
	}
	// Unmarshal accepts a JSON null into a map without error; the map stays
	// nil. Only real objects may pass.
	if top == nil {
		return nil, apperr.MalformedPayload("request body is not a JSON object")
	}

	return body, nil
}
