package delivery

import (
	"github.com/rs/zerolog"

	"courier/internal/domain"
	"courier/internal/sessions"
)

// Engine routes envelopes between the pool and live sessions.
type Engine struct {
	pool     domain.MessagePool
	sessions *sessions.Registry
	log      zerolog.Logger
}

// New constructs a delivery engine over the given pool and session registry.
func New(pool domain.MessagePool, reg *sessions.Registry, log zerolog.Logger) *Engine {
	return &Engine{
		pool:     pool,
		sessions: reg,
		log:      log.With().Str("component", "delivery").Logger(),
	}
}

// Deliver offers a freshly pooled envelope to every session bound to its
// recipient. If at least one write succeeds the envelope is removed from the
// pool and true is returned; otherwise it stays pooled for a later pull or
// reconnect. A write failure closes the offending session and the push moves
// on to the next candidate.
func (e *Engine) Deliver(env domain.Envelope) bool {
	candidates := e.sessions.Lookup(env.RecipientCode)
	if len(candidates) == 0 {
		return false
	}

	frame := domain.NewMessagePush(env)
	delivered := 0
	for _, s := range candidates {
		if err := s.WriteJSON(frame); err != nil {
			e.log.Warn().Err(err).
				Str("session", s.ID).
				Str("message", env.ID).
				Msg("push failed, closing session")
			e.sessions.Close(s.ID, "write failed")
			continue
		}
		delivered++
	}

	if delivered == 0 {
		e.pool.RecordAttempt(env.ID)
		return false
	}
	e.pool.Remove(env.ID)
	e.log.Debug().Str("message", env.ID).Int("sessions", delivered).Msg("envelope pushed")
	return true
}

// Drain removes and returns every pooled envelope for recipientCode, serving
// the pull endpoint.
func (e *Engine) Drain(recipientCode string) []domain.Envelope {
	return e.pool.TakeFor(recipientCode)
}

// Broadcast writes a frame verbatim to every open session, bound or not.
// Failed writers are closed.
func (e *Engine) Broadcast(raw []byte) {
	for _, s := range e.sessions.All() {
		if err := s.WriteRaw(raw); err != nil {
			e.sessions.Close(s.ID, "write failed")
		}
	}
}

// Forward writes a frame verbatim to every session bound to recipientCode
// and returns how many received it. The pool is never touched: real-time
// frames are ephemeral.
func (e *Engine) Forward(recipientCode string, raw []byte) int {
	forwarded := 0
	for _, s := range e.sessions.Lookup(recipientCode) {
		if err := s.WriteRaw(raw); err != nil {
			e.sessions.Close(s.ID, "write failed")
			continue
		}
		forwarded++
	}
	return forwarded
}
