package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"courier/internal/clock"
	"courier/internal/delivery"
	"courier/internal/domain"
	"courier/internal/sessions"
)

// Options carries the front door's tunables.
type Options struct {
	// Version is reported by the health endpoint.
	Version string

	// AllowedOrigins is the cross-origin allow list. A single "*" admits
	// any origin.
	AllowedOrigins []string

	// DefaultTTL is applied to envelopes published without a TTL.
	DefaultTTL time.Duration

	// MaxTTL caps caller-supplied TTLs.
	MaxTTL time.Duration
}

// Server routes ingress into the broker components.
type Server struct {
	opts Options

	pool       domain.MessagePool
	sessions   *sessions.Registry
	engine     *delivery.Engine
	nodes      domain.NodeDirectory
	replicator domain.Replicator
	admitter   domain.Admitter
	clk        clock.Clock
	log        zerolog.Logger

	upgrader websocket.Upgrader
}

// New constructs the front door over the given components.
func New(
	opts Options,
	pool domain.MessagePool,
	reg *sessions.Registry,
	engine *delivery.Engine,
	nodes domain.NodeDirectory,
	replicator domain.Replicator,
	admitter domain.Admitter,
	clk clock.Clock,
	log zerolog.Logger,
) *Server {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = domain.DefaultTTL
	}
	if opts.MaxTTL <= 0 {
		opts.MaxTTL = 7 * 24 * time.Hour
	}
	s := &Server{
		opts:       opts,
		pool:       pool,
		sessions:   reg,
		engine:     engine,
		nodes:      nodes,
		replicator: replicator,
		admitter:   admitter,
		clk:        clk,
		log:        log.With().Str("component", "server").Logger(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return s.originAllowed(r.Header.Get("Origin")) },
	}
	return s
}

// Handler returns the fully wired HTTP handler: routes behind the access
// log, rate-limit and CORS middleware, in that order.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/message", s.handlePublish)
	mux.HandleFunc("GET /api/messages/{contactCode}", s.handlePull)
	mux.HandleFunc("DELETE /api/message/{messageId}", s.handleDelete)
	mux.HandleFunc("POST /api/replicate", s.handleReplicate)
	mux.HandleFunc("POST /api/nodes", s.handleRegisterNode)
	mux.HandleFunc("GET /api/nodes", s.handleListNodes)
	mux.HandleFunc("GET /ws", s.handleWS)

	return s.accessLog(s.rateLimit(s.cors(mux)))
}

// originAllowed applies the cross-origin allow list.
func (s *Server) originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
