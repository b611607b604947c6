package domain

import "time"

// Node is a peer broker that receives replicated envelopes.
type Node struct {
	// URL is the base address of the peer's HTTP API.
	URL string

	// PublicKey is the peer's advertised key. The broker stores it for
	// clients but does not interpret it.
	PublicKey string

	// LastSeen is when the peer last registered with this broker.
	LastSeen time.Time
}
