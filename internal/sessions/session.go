package sessions

import (
	"sync"
	"time"
)

// Conn is the send side of a duplex channel. The WebSocket connection in the
// front door satisfies it through a thin adapter; tests substitute fakes.
type Conn interface {
	// WriteJSON marshals v and writes it as one frame.
	WriteJSON(v any) error

	// WriteRaw writes pre-encoded bytes as one frame, used for verbatim
	// broadcast and real-time forwards.
	WriteRaw(data []byte) error

	// Close tears down the transport, telling the peer why.
	Close(reason string) error
}

// Session is one live duplex channel. The recipient binding, presence status
// and last-seen time are guarded by the registry lock; the write mutex only
// serialises concurrent frame writes to the transport.
type Session struct {
	// ID is broker-minted and unique for the process lifetime.
	ID string

	conn    Conn
	writeMu sync.Mutex

	// Guarded by Registry.mu.
	recipientCode string
	status        string
	lastSeen      time.Time
}

// WriteJSON sends one frame, serialised against other writers.
func (s *Session) WriteJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// WriteRaw sends pre-encoded bytes as one frame.
func (s *Session) WriteRaw(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteRaw(data)
}
