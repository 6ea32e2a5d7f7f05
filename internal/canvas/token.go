package canvas

import (
	"fmt"
	"strings"
)

// TokenDelimiter joins token segments. The platform cannot carry server-side
// session state between screens, so all cross-screen context (which ticket,
// which flow step) rides inside the component ids the platform echoes back
// verbatim. This delimiter-joined grammar is the only sanctioned channel for
// that context.
const TokenDelimiter = "::"

// Component id prefixes with a ticket reference suffix.
const (
	PrefixViewLinkedTicket  = "view-linked-ticket"
	PrefixViewOngoingTicket = "view-ongoing-ticket"
	PrefixLinkTicket        = "link-ticket"
	PrefixFormField         = "att"
)

// TicketRef identifies a ticket record in the host store. Both parts are
// always set together.
type TicketRef struct {
	Class string
	ID    string
}

func (r TicketRef) String() string {
	return r.Class + TokenDelimiter + r.ID
}

// EncodeTicketToken builds "prefix::class::id". Segments containing the
// delimiter are rejected so the token stays decodable; ticket classes and
// numeric ids never contain it, but any new caller of this grammar must
// preserve that invariant.
func EncodeTicketToken(prefix string, ref TicketRef) (string, error) {
	for _, segment := range []string{prefix, ref.Class, ref.ID} {
		if segment == "" {
			return "", fmt.Errorf("token segment must not be empty")
		}
		if strings.Contains(segment, TokenDelimiter) {
			return "", fmt.Errorf("token segment %q contains delimiter %q", segment, TokenDelimiter)
		}
	}
	return prefix + TokenDelimiter + ref.Class + TokenDelimiter + ref.ID, nil
}

// DecodeTicketToken extracts the ticket reference from a composite component
// id. The class and id are the last two segments, whatever the prefix; tokens
// from the remote platform are only ever decoded, never assumed structurally
// valid beyond that.
func DecodeTicketToken(token string) (TicketRef, error) {
	parts := strings.Split(token, TokenDelimiter)
	if len(parts) < 3 {
		return TicketRef{}, fmt.Errorf("component id %q does not carry a ticket reference", token)
	}
	ref := TicketRef{
		Class: parts[len(parts)-2],
		ID:    parts[len(parts)-1],
	}
	if ref.Class == "" || ref.ID == "" {
		return TicketRef{}, fmt.Errorf("component id %q has empty ticket reference segments", token)
	}
	return ref, nil
}

// TokenPrefix returns the component id up to the first delimiter. Plain
// component ids are returned unchanged.
func TokenPrefix(componentID string) string {
	if i := strings.Index(componentID, TokenDelimiter); i >= 0 {
		return componentID[:i]
	}
	return componentID
}

// EncodeFieldToken builds the component id of a creation-form input from its
// attribute code.
func EncodeFieldToken(attCode string) string {
	return PrefixFormField + TokenDelimiter + attCode
}

// DecodeFieldToken is the inverse of EncodeFieldToken. ok is false for
// component ids that are not form fields.
func DecodeFieldToken(componentID string) (attCode string, ok bool) {
	rest, found := strings.CutPrefix(componentID, PrefixFormField+TokenDelimiter)
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}
