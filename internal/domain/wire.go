package domain

import (
	"encoding/json"
	"time"
)

// EnvelopeWire is the JSON body of publish and replicate requests. TTL is in
// milliseconds on the wire, matching the desktop client.
type EnvelopeWire struct {
	MessageID            string          `json:"messageId"`
	RecipientContactCode string          `json:"recipientContactCode"`
	EncryptedMessage     json.RawMessage `json:"encryptedMessage"`
	Timestamp            int64           `json:"timestamp,omitempty"`
	TTLMillis            int64           `json:"ttl,omitempty"`
	MessageType          string          `json:"messageType,omitempty"`
}

// ToWire converts a pooled envelope back to its wire form for replication.
func (e Envelope) ToWire() EnvelopeWire {
	return EnvelopeWire{
		MessageID:            e.ID,
		RecipientContactCode: e.RecipientCode,
		EncryptedMessage:     e.Payload,
		Timestamp:            e.Timestamp,
		TTLMillis:            e.TTL.Milliseconds(),
		MessageType:          e.MessageType,
	}
}

// PublishAck is the response to publish and replicate requests.
type PublishAck struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Delivered bool   `json:"delivered"`
	Pooled    bool   `json:"pooled"`
}

// PulledMessage is one envelope returned by the pull endpoint.
type PulledMessage struct {
	MessageID        string          `json:"messageId"`
	EncryptedMessage json.RawMessage `json:"encryptedMessage"`
	Timestamp        int64           `json:"timestamp"`
	MessageType      string          `json:"messageType,omitempty"`
}

// PullResponse wraps the drained envelopes for a recipient.
type PullResponse struct {
	Messages []PulledMessage `json:"messages"`
}

// DeleteResponse reports whether an explicit delete removed anything.
type DeleteResponse struct {
	Removed bool `json:"removed"`
}

// HealthStatus is the health endpoint response.
type HealthStatus struct {
	Status          string `json:"status"`
	Timestamp       int64  `json:"timestamp"`
	Version         string `json:"version"`
	MessagePoolSize int    `json:"messagePoolSize"`
	ActiveSessions  int    `json:"activeSessions"`
	ConnectedNodes  int    `json:"connectedNodes"`
}

// RegisterNodeRequest is the body of a peer registration.
type RegisterNodeRequest struct {
	NodeURL   string `json:"nodeUrl"`
	PublicKey string `json:"publicKey"`
}

// NodeInfo is one entry in the node listing.
type NodeInfo struct {
	NodeURL  string `json:"nodeUrl"`
	LastSeen int64  `json:"lastSeen"`
}

// NodeListResponse wraps the known peers.
type NodeListResponse struct {
	Nodes []NodeInfo `json:"nodes"`
}

// ToPulled converts an envelope to its pull-response form.
func (e Envelope) ToPulled() PulledMessage {
	return PulledMessage{
		MessageID:        e.ID,
		EncryptedMessage: e.Payload,
		Timestamp:        e.Timestamp,
		MessageType:      e.MessageType,
	}
}

// TTLFromWire converts a wire TTL to a duration, applying the default for
// absent values and clamping to the ceiling.
func TTLFromWire(millis int64, def, max time.Duration) time.Duration {
	if millis <= 0 {
		return def
	}
	ttl := time.Duration(millis) * time.Millisecond
	if ttl > max {
		return max
	}
	return ttl
}
