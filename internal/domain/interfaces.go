package domain

import (
	"context"
	"time"
)

// MessagePool buffers envelopes until they are pushed, pulled, deleted, or
// expired. All operations are safe for concurrent use.
type MessagePool interface {
	// Insert adds an envelope. ErrDuplicateID is returned when the id is
	// already pooled; the existing entry is retained unchanged.
	Insert(env Envelope) error

	// TakeFor atomically removes and returns every envelope addressed to
	// recipientCode, in insertion order.
	TakeFor(recipientCode string) []Envelope

	// Remove deletes the envelope with the given id and reports whether
	// it was present.
	Remove(id string) bool

	// RecordAttempt counts a failed push round against the envelope.
	RecordAttempt(id string)

	// ExpireBefore evicts every envelope whose expiry is at or before
	// instant and returns how many were removed.
	ExpireBefore(instant time.Time) int

	// Size reports the number of pooled envelopes.
	Size() int
}

// NodeDirectory is the set of peer brokers known to this node.
type NodeDirectory interface {
	// Register inserts or refreshes a peer. Registering the same URL
	// twice leaves the directory size unchanged.
	Register(nodeURL, publicKey string)

	// List returns the current view of peers.
	List() []Node

	// Count reports the number of known peers.
	Count() int
}

// Replicator copies published envelopes to peer brokers, best effort.
type Replicator interface {
	Replicate(ctx context.Context, env Envelope)
}

// Admitter gates requests by source address before any work is done.
type Admitter interface {
	Admit(source string) bool
}
