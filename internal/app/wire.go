package app

import (
	"net/http"

	"github.com/rs/zerolog"

	"courier/internal/clock"
	"courier/internal/delivery"
	"courier/internal/nodes"
	"courier/internal/pool"
	"courier/internal/ratelimit"
	"courier/internal/reaper"
	"courier/internal/replicate"
	"courier/internal/server"
	"courier/internal/sessions"
)

// Wire bundles the constructed broker components for the command layer.
type Wire struct {
	Pool       *pool.Pool
	Sessions   *sessions.Registry
	Engine     *delivery.Engine
	Nodes      *nodes.Registry
	Replicator *replicate.Replicator
	Limiter    *ratelimit.Limiter
	Reaper     *reaper.Reaper
	Server     *server.Server
}

// NewWire constructs the dependency graph from cfg. A nil clock or HTTP
// client falls back to the system clock and http.DefaultClient.
func NewWire(cfg Config, clk clock.Clock, httpClient *http.Client, log zerolog.Logger) *Wire {
	if clk == nil {
		clk = clock.System{}
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	p := pool.New(log)
	reg := sessions.New(clk, log)
	engine := delivery.New(p, reg, log)
	dir := nodes.New(clk)
	rep := replicate.New(dir, httpClient, cfg.ReplicationTimeout, log)
	lim := ratelimit.New(cfg.RateLimitPoints, cfg.RateLimitWindow, clk)
	reap := reaper.New(p, reg, lim, clk,
		cfg.EnvelopeSweepEvery, cfg.SessionSweepEvery, cfg.SessionIdleAfter, log)

	// Seed peers configured at startup count as registered nodes.
	for _, peer := range cfg.Peers {
		dir.Register(peer, "")
	}

	srv := server.New(server.Options{
		Version:        Version,
		AllowedOrigins: cfg.AllowedOrigins,
		DefaultTTL:     cfg.DefaultTTL,
		MaxTTL:         cfg.MaxTTL,
	}, p, reg, engine, dir, rep, lim, clk, log)

	return &Wire{
		Pool:       p,
		Sessions:   reg,
		Engine:     engine,
		Nodes:      dir,
		Replicator: rep,
		Limiter:    lim,
		Reaper:     reap,
		Server:     srv,
	}
}
