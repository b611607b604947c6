package reaper_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"courier/internal/clock"
	"courier/internal/domain"
	"courier/internal/pool"
	"courier/internal/ratelimit"
	"courier/internal/reaper"
	"courier/internal/sessions"
)

type fakeConn struct {
	closed bool
	reason string
}

func (c *fakeConn) WriteJSON(any) error   { return nil }
func (c *fakeConn) WriteRaw([]byte) error { return nil }

func (c *fakeConn) Close(reason string) error {
	c.closed = true
	c.reason = reason
	return nil
}

func TestSweepEnvelopes_EvictsExpired(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	p := pool.New(zerolog.Nop())
	reg := sessions.New(clk, zerolog.Nop())
	r := reaper.New(p, reg, nil, clk, 0, 0, 0, zerolog.Nop())

	env := domain.Envelope{
		ID:            "m3",
		RecipientCode: "R",
		Payload:       json.RawMessage(`"Z"`),
		CreatedAt:     clk.Now(),
		TTL:           time.Second,
	}
	if err := p.Insert(env); err != nil {
		t.Fatalf("insert: %v", err)
	}

	r.SweepEnvelopes()
	if p.Size() != 1 {
		t.Fatal("sweep evicted a live envelope")
	}

	clk.Advance(1500 * time.Millisecond)
	r.SweepEnvelopes()
	if p.Size() != 0 {
		t.Fatalf("expired envelope survived, size %d", p.Size())
	}
}

func TestSweepSessions_ClosesIdleAndSweepsBuckets(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	p := pool.New(zerolog.Nop())
	reg := sessions.New(clk, zerolog.Nop())
	lim := ratelimit.New(100, time.Minute, clk)
	r := reaper.New(p, reg, lim, clk, 0, 0, 0, zerolog.Nop())

	conn := &fakeConn{}
	reg.Open(conn)
	lim.Admit("10.0.0.1")

	clk.Advance(4 * time.Minute)
	r.SweepSessions()
	if conn.closed {
		t.Fatal("session closed before the idle threshold")
	}

	clk.Advance(2 * time.Minute)
	r.SweepSessions()
	if !conn.closed {
		t.Fatal("idle session survived the sweep")
	}
	if conn.reason != "idle timeout" {
		t.Fatalf("unexpected close reason %q", conn.reason)
	}
	if reg.Count() != 0 {
		t.Fatalf("want 0 sessions, got %d", reg.Count())
	}

	// The bucket idle since the start was dropped by the same sweep.
	if n := lim.SweepIdle(clk.Now()); n != 0 {
		t.Fatalf("stale rate-limit bucket survived the sweep: %d left", n)
	}
}

func TestStartStop_Terminates(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	p := pool.New(zerolog.Nop())
	reg := sessions.New(clk, zerolog.Nop())
	r := reaper.New(p, reg, nil, clk, 10*time.Millisecond, 10*time.Millisecond, 0, zerolog.Nop())

	r.Start()
	time.Sleep(30 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
