package domain

import (
	"encoding/json"
	"time"
)

const (
	// DefaultTTL is applied when a publisher does not supply a TTL.
	DefaultTTL = 24 * time.Hour

	// MaxDeliveryAttempts is the ceiling of an envelope's failed-push
	// counter; further failed push rounds no longer increment it.
	MaxDeliveryAttempts = 3
)

// Envelope is the atomic unit the broker buffers and routes. The payload is
// ciphertext produced by the sending client; the broker stores and forwards
// it without interpretation.
type Envelope struct {
	// ID is the client-chosen identifier, unique across the pool. Clients
	// use it to de-duplicate envelopes replicated across brokers.
	ID string

	// RecipientCode names the destination mailbox. The broker matches it
	// by byte equality only.
	RecipientCode string

	// Payload is the opaque encrypted message as received on the wire.
	Payload json.RawMessage

	// MessageType is an opaque hint set by the sender (text, voice note,
	// contact request, ...). Forwarded verbatim.
	MessageType string

	// Timestamp is the sender-supplied wall-clock time in Unix seconds.
	// If the publisher omits it, ingress fills it in.
	Timestamp int64

	// CreatedAt is the broker's ingress time, used together with TTL for
	// expiry. It comes from the broker clock, never from the client.
	CreatedAt time.Time

	// TTL bounds how long the envelope may stay pooled.
	TTL time.Duration

	// Attempts counts failed push rounds for this envelope.
	Attempts int

	// MaxAttempts is the push retry budget.
	MaxAttempts int
}

// ExpiresAt returns the instant after which the envelope is eligible for
// eviction by the envelope sweep.
func (e Envelope) ExpiresAt() time.Time {
	return e.CreatedAt.Add(e.TTL)
}

// Expired reports whether the envelope has outlived its TTL at now.
func (e Envelope) Expired(now time.Time) bool {
	return !e.ExpiresAt().After(now)
}
