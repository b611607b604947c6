package pool

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"courier/internal/domain"
)

var (
	// ErrDuplicateID is returned when inserting an envelope whose id is
	// already pooled. The existing entry is retained unchanged.
	ErrDuplicateID = errors.New("envelope id already in pool")
)

// entry pairs an envelope with its insertion sequence number. The sequence
// gives TakeFor a total order even when ids collide lexically.
type entry struct {
	env domain.Envelope
	seq uint64
}

// Pool is the in-memory envelope buffer. A single mutex guards the id map
// and the sequence counter together so Insert, TakeFor, Remove and
// ExpireBefore are each atomic with respect to one another.
type Pool struct {
	mu   sync.Mutex
	byID map[string]*entry
	seq  uint64
	log  zerolog.Logger
}

// New returns an empty pool.
func New(log zerolog.Logger) *Pool {
	return &Pool{
		byID: make(map[string]*entry),
		log:  log.With().Str("component", "pool").Logger(),
	}
}

// Insert adds an envelope. ErrDuplicateID is returned if the id is present.
func (p *Pool) Insert(env domain.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byID[env.ID]; exists {
		return ErrDuplicateID
	}
	p.seq++
	p.byID[env.ID] = &entry{env: env, seq: p.seq}
	return nil
}

// TakeFor atomically removes and returns every envelope addressed to
// recipientCode, in insertion order. Racing callers split the pool: each
// envelope goes to exactly one of them.
func (p *Pool) TakeFor(recipientCode string) []domain.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()

	var taken []*entry
	for id, e := range p.byID {
		if e.env.RecipientCode == recipientCode {
			taken = append(taken, e)
			delete(p.byID, id)
		}
	}
	sort.Slice(taken, func(i, j int) bool { return taken[i].seq < taken[j].seq })

	out := make([]domain.Envelope, len(taken))
	for i, e := range taken {
		out[i] = e.env
	}
	return out
}

// Remove deletes the envelope with the given id and reports whether it was
// present. A second Remove for the same id reports false.
func (p *Pool) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byID[id]; !ok {
		return false
	}
	delete(p.byID, id)
	return true
}

// RecordAttempt counts a failed push round against a pooled envelope. The
// counter saturates at the envelope's retry budget.
func (p *Pool) RecordAttempt(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.byID[id]
	if !ok {
		return
	}
	if e.env.Attempts < e.env.MaxAttempts {
		e.env.Attempts++
	}
}

// ExpireBefore evicts every envelope whose expiry is at or before instant
// and returns how many were removed.
func (p *Pool) ExpireBefore(instant time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	for id, e := range p.byID {
		if e.env.Expired(instant) {
			delete(p.byID, id)
			removed++
		}
	}
	if removed > 0 {
		p.log.Debug().Int("removed", removed).Msg("expired envelopes evicted")
	}
	return removed
}

// Size reports the number of pooled envelopes.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byID)
}

// Compile-time assertion that Pool implements domain.MessagePool.
var _ domain.MessagePool = (*Pool)(nil)
