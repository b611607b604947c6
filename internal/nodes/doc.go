// Package nodes tracks the peer brokers that receive replicated envelopes.
// Peers persist until process exit; there is no staleness eviction.
package nodes
