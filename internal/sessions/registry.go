package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"courier/internal/clock"
)

var (
	// ErrUnknownSession is returned when binding a session that has
	// already been closed or was never opened.
	ErrUnknownSession = errors.New("unknown session")
)

// Registry maps session ids to open duplex channels. Lookups snapshot the
// candidate sessions under the lock and release it before any channel write,
// so a slow peer never stalls the registry.
type Registry struct {
	mu   sync.Mutex
	byID map[string]*Session
	clk  clock.Clock
	log  zerolog.Logger
}

// New returns an empty registry driven by clk.
func New(clk clock.Clock, log zerolog.Logger) *Registry {
	return &Registry{
		byID: make(map[string]*Session),
		clk:  clk,
		log:  log.With().Str("component", "sessions").Logger(),
	}
}

// Open records a new unbound session over conn and returns it.
func (r *Registry) Open(conn Conn) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		conn:     conn,
		lastSeen: r.clk.Now(),
	}

	r.mu.Lock()
	r.byID[s.ID] = s
	r.mu.Unlock()

	r.log.Debug().Str("session", s.ID).Msg("session opened")
	return s
}

// Bind associates a session with a recipient code. Rebinding an already
// bound session replaces the previous binding. Returns ErrUnknownSession if
// the session has been closed.
func (r *Registry) Bind(sessionID, recipientCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return ErrUnknownSession
	}
	s.recipientCode = recipientCode
	s.lastSeen = r.clk.Now()
	return nil
}

// Touch updates the session's last-seen time. Unknown ids are ignored.
func (r *Registry) Touch(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.byID[sessionID]; ok {
		s.lastSeen = r.clk.Now()
	}
}

// SetStatus records the presence status a session last announced.
func (r *Registry) SetStatus(sessionID, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.byID[sessionID]; ok {
		s.status = status
	}
}

// Lookup returns every session currently bound to recipientCode. The result
// is a snapshot; sessions may close between lookup and write.
func (r *Registry) Lookup(recipientCode string) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Session
	for _, s := range r.byID {
		if s.recipientCode == recipientCode && s.recipientCode != "" {
			out = append(out, s)
		}
	}
	return out
}

// All returns a snapshot of every open session, bound or not.
func (r *Registry) All() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	return out
}

// Close removes the session and closes its channel with reason. Reports
// whether the session was present.
func (r *Registry) Close(sessionID, reason string) bool {
	r.mu.Lock()
	s, ok := r.byID[sessionID]
	if ok {
		delete(r.byID, sessionID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	if err := s.conn.Close(reason); err != nil {
		r.log.Debug().Err(err).Str("session", sessionID).Msg("channel close failed")
	}
	r.log.Debug().Str("session", sessionID).Str("reason", reason).Msg("session closed")
	return true
}

// CloseAll closes every session with the same terminal reason. Used on
// shutdown.
func (r *Registry) CloseAll(reason string) {
	for _, s := range r.All() {
		r.Close(s.ID, reason)
	}
}

// SweepIdle closes every session whose last activity is at or before cutoff
// and returns how many were closed.
func (r *Registry) SweepIdle(cutoff time.Time, reason string) int {
	r.mu.Lock()
	var idle []string
	for id, s := range r.byID {
		if !s.lastSeen.After(cutoff) {
			idle = append(idle, id)
		}
	}
	r.mu.Unlock()

	for _, id := range idle {
		r.Close(id, reason)
	}
	return len(idle)
}

// Count reports the number of open sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
