// Package credentials models the pluggable credentials capability and the
// SetCredentials control message the supervisor pushes into the child on
// startup and on every refresh cycle.
//
// The producer-client's real wire schema (how the child actually parses a
// SetCredentials message) is an external collaborator's concern — out of
// scope per the supervisor's charter. This package only needs a
// deterministic, self-describing encoding: enough for the supervisor's
// own tests to recognize and filter credential traffic from user
// traffic, and enough to survive the -k/-w hex command-line embedding.
package credentials

import (
	"context"
	"encoding/binary"
)

// Credentials is the short-lived credential triple a Provider returns.
type Credentials struct {
	AccessKeyID  string
	SecretKey    string
	SessionToken *string // optional
}

// Provider is the pluggable capability that supplies fresh Credentials.
// Implementations are expected to be safe for concurrent use; the
// supervisor calls Credentials once at startup and once per refresh
// cycle for each of its (up to two) configured providers.
type Provider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// magicByte tags the front of every SetCredentials encoding so it can be
// distinguished from opaque user messages without parsing the rest.
const magicByte byte = 0xC5

// SetCredentials is the control message sent each refresh cycle. Two
// variants are produced per cycle: one for the primary provider
// (ForMetrics=false) and one for the metrics provider (ForMetrics=true,
// falling back to the primary provider's Credentials when no metrics
// provider is configured).
type SetCredentials struct {
	AccessKeyID  string
	SecretKey    string
	SessionToken *string
	ForMetrics   bool
}

// New builds a SetCredentials control message from a credential set.
func New(c Credentials, forMetrics bool) SetCredentials {
	return SetCredentials{
		AccessKeyID:  c.AccessKeyID,
		SecretKey:    c.SecretKey,
		SessionToken: c.SessionToken,
		ForMetrics:   forMetrics,
	}
}

// IsSetCredentials reports whether payload was produced by Encode — used
// by tests and diagnostics to tell credential traffic apart from opaque
// user messages without owning the child's real schema.
func IsSetCredentials(payload []byte) bool {
	return len(payload) > 0 && payload[0] == magicByte
}

// Encode serializes m into an opaque, length-prefixed byte blob suitable
// for enqueuing as a Message or embedding via childargs.Builder.WithHex.
func (m SetCredentials) Encode() []byte {
	var forMetrics byte
	if m.ForMetrics {
		forMetrics = 1
	}

	session := ""
	hasSession := byte(0)
	if m.SessionToken != nil {
		session = *m.SessionToken
		hasSession = 1
	}

	buf := make([]byte, 0, 1+1+1+2+len(m.AccessKeyID)+2+len(m.SecretKey)+2+len(session))
	buf = append(buf, magicByte, forMetrics, hasSession)
	buf = appendLenPrefixed(buf, m.AccessKeyID)
	buf = appendLenPrefixed(buf, m.SecretKey)
	buf = appendLenPrefixed(buf, session)
	return buf
}

func appendLenPrefixed(buf []byte, s string) []byte {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, s...)
}
