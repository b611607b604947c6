package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"courier/internal/clock"
	"courier/internal/domain"
)

// bucket pairs a token bucket with the time of its last request (admitted or
// not) for GC.
type bucket struct {
	lim      *rate.Limiter
	lastUsed time.Time
}

// Limiter keys token buckets by source network address. Capacity `points`,
// refilling to full over `window`. Each Admit consumes one token.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	points  int
	window  time.Duration
	clk     clock.Clock
}

// New returns a limiter granting points per window for each source.
func New(points int, window time.Duration, clk clock.Clock) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		points:  points,
		window:  window,
		clk:     clk,
	}
}

// Admit consumes one token for source and reports whether the request may
// proceed. The first request from an unseen source always succeeds.
func (l *Limiter) Admit(source string) bool {
	now := l.clk.Now()

	l.mu.Lock()
	b, ok := l.buckets[source]
	if !ok {
		// A fresh bucket is full; it refills to capacity over one window.
		b = &bucket{
			lim: rate.NewLimiter(rate.Limit(float64(l.points)/l.window.Seconds()), l.points),
		}
		l.buckets[source] = b
	}
	b.lastUsed = now
	l.mu.Unlock()

	return b.lim.AllowN(now, 1)
}

// SweepIdle drops buckets that have seen no request since cutoff and returns
// how many were removed. A dropped bucket reappears full on the
// source's next request.
func (l *Limiter) SweepIdle(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for source, b := range l.buckets {
		if !b.lastUsed.After(cutoff) {
			delete(l.buckets, source)
			removed++
		}
	}
	return removed
}

// SweepStale drops buckets that have been idle for at least one full refill
// window. Anything older is indistinguishable from a fresh bucket.
func (l *Limiter) SweepStale() int {
	return l.SweepIdle(l.clk.Now().Add(-l.window))
}

// Compile-time assertion that Limiter implements domain.Admitter.
var _ domain.Admitter = (*Limiter)(nil)
