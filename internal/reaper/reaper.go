package reaper

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"courier/internal/clock"
	"courier/internal/domain"
	"courier/internal/ratelimit"
	"courier/internal/sessions"
)

const (
	// DefaultEnvelopeEvery is the envelope sweep cadence.
	DefaultEnvelopeEvery = 5 * time.Minute

	// DefaultSessionEvery is the session sweep cadence.
	DefaultSessionEvery = time.Minute

	// DefaultSessionIdle is how long a session may stay silent before the
	// sweep closes it.
	DefaultSessionIdle = 5 * time.Minute
)

// Reaper owns the two maintenance schedules. Construct with New, then Start;
// Stop waits for both goroutines to exit.
type Reaper struct {
	pool     domain.MessagePool
	sessions *sessions.Registry
	limiter  *ratelimit.Limiter
	clk      clock.Clock
	log      zerolog.Logger

	envelopeEvery time.Duration
	sessionEvery  time.Duration
	sessionIdle   time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New constructs a reaper. Zero cadences fall back to the defaults.
func New(
	pool domain.MessagePool,
	reg *sessions.Registry,
	limiter *ratelimit.Limiter,
	clk clock.Clock,
	envelopeEvery, sessionEvery, sessionIdle time.Duration,
	log zerolog.Logger,
) *Reaper {
	if envelopeEvery <= 0 {
		envelopeEvery = DefaultEnvelopeEvery
	}
	if sessionEvery <= 0 {
		sessionEvery = DefaultSessionEvery
	}
	if sessionIdle <= 0 {
		sessionIdle = DefaultSessionIdle
	}
	return &Reaper{
		pool:          pool,
		sessions:      reg,
		limiter:       limiter,
		clk:           clk,
		log:           log.With().Str("component", "reaper").Logger(),
		envelopeEvery: envelopeEvery,
		sessionEvery:  sessionEvery,
		sessionIdle:   sessionIdle,
		stop:          make(chan struct{}),
	}
}

// Start launches both sweep schedules.
func (r *Reaper) Start() {
	r.wg.Add(2)
	go r.run(r.envelopeEvery, r.SweepEnvelopes)
	go r.run(r.sessionEvery, r.SweepSessions)
}

// Stop halts the schedules and waits for in-flight sweeps to finish.
func (r *Reaper) Stop() {
	r.once.Do(func() { close(r.stop) })
	r.wg.Wait()
}

// run drives one sweep on its own ticker until Stop.
func (r *Reaper) run(every time.Duration, sweep func()) {
	defer r.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sweep()
		case <-r.stop:
			return
		}
	}
}

// SweepEnvelopes evicts every envelope past its TTL.
func (r *Reaper) SweepEnvelopes() {
	if n := r.pool.ExpireBefore(r.clk.Now()); n > 0 {
		r.log.Info().Int("expired", n).Msg("envelope sweep")
	}
}

// SweepSessions closes sessions idle past the threshold and drops rate-limit
// buckets that have refilled in full since their last use.
func (r *Reaper) SweepSessions() {
	cutoff := r.clk.Now().Add(-r.sessionIdle)
	if n := r.sessions.SweepIdle(cutoff, "idle timeout"); n > 0 {
		r.log.Info().Int("closed", n).Msg("session sweep")
	}
	if r.limiter != nil {
		r.limiter.SweepStale()
	}
}
