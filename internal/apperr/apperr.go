// Package apperr defines the error taxonomy for inbound event handling.
//
// Structural errors (authentication, malformed payload, unknown operation)
// abort the request and surface at the HTTP boundary. Domain errors (lookup
// failures, rejected saves, undelivered notifications) are absorbed by the
// handlers and rendered as canvas alerts instead.
package apperr

import "fmt"

// AuthenticationError indicates a missing or mismatched request signature,
// or a missing shared secret in the configuration.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return e.Reason
}

// Authentication builds an AuthenticationError.
func Authentication(format string, args ...any) *AuthenticationError {
	return &AuthenticationError{Reason: fmt.Sprintf(format, args...)}
}

// MalformedPayloadError indicates a body that is not a JSON object, or a
// payload missing a required top-level key for the active flow.
type MalformedPayloadError struct {
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return e.Reason
}

// MalformedPayload builds a MalformedPayloadError.
func MalformedPayload(format string, args ...any) *MalformedPayloadError {
	return &MalformedPayloadError{Reason: fmt.Sprintf(format, args...)}
}

// UnknownOperationError indicates an unrecognized operation value or a
// component id with no bound handler. It carries the raw routing inputs so
// the failed dispatch can be diagnosed from logs alone.
type UnknownOperationError struct {
	Operation   string
	ComponentID string
	Normalized  string
}

func (e *UnknownOperationError) Error() string {
	if e.ComponentID == "" {
		return fmt.Sprintf("operation not supported: %q", e.Operation)
	}
	return fmt.Sprintf("no handler for operation %q component %q (normalized %q)", e.Operation, e.ComponentID, e.Normalized)
}

// DomainLookupError indicates a contact or ticket that could not be resolved,
// or a save rejected by the store's pre-write checks. Callers convert it to a
// user-visible alert; it never reaches the HTTP boundary.
type DomainLookupError struct {
	Reason string
	Err    error
}

func (e *DomainLookupError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *DomainLookupError) Unwrap() error {
	return e.Err
}

// DomainLookup builds a DomainLookupError wrapping err (which may be nil).
func DomainLookup(err error, format string, args ...any) *DomainLookupError {
	return &DomainLookupError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// RemoteNotificationError indicates an outbound note or reply that could not
// be delivered to the chat platform. The local write it was announcing is
// kept; delivery is fire-and-forget.
type RemoteNotificationError struct {
	ConversationID string
	Err            error
}

func (e *RemoteNotificationError) Error() string {
	return fmt.Sprintf("notification to conversation %s failed: %v", e.ConversationID, e.Err)
}

func (e *RemoteNotificationError) Unwrap() error {
	return e.Err
}
