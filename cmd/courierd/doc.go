// Command courierd runs a store-and-forward broker for an end-to-end
// encrypted messenger. Clients publish opaque encrypted envelopes addressed
// to a recipient code; the broker buffers them in memory with a TTL, pushes
// them over a WebSocket to any connected recipient, and otherwise holds them
// until the recipient polls. A cluster of brokers replicates envelopes so a
// client can retrieve its mail from any node.
//
// The broker never sees plaintext and never touches keys; payloads are
// ciphertext produced and consumed entirely client-side. All state is in
// memory and lost on restart — clients re-poll on reconnect.
package main
