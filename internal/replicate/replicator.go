package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"courier/internal/domain"
)

// DefaultTimeout bounds each peer request independently.
const DefaultTimeout = 5 * time.Second

// Replicator fans accepted envelopes out to the node directory over HTTP.
type Replicator struct {
	nodes   domain.NodeDirectory
	client  *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

// New returns a replicator over the given directory. A nil client falls back
// to http.DefaultClient; a zero timeout falls back to DefaultTimeout.
func New(nodes domain.NodeDirectory, client *http.Client, timeout time.Duration, log zerolog.Logger) *Replicator {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Replicator{
		nodes:   nodes,
		client:  client,
		timeout: timeout,
		log:     log.With().Str("component", "replicate").Logger(),
	}
}

// Replicate posts the envelope to every known peer concurrently. Failures
// are logged and swallowed; the enclosing publish never observes them.
func (r *Replicator) Replicate(ctx context.Context, env domain.Envelope) {
	peers := r.nodes.List()
	if len(peers) == 0 {
		return
	}

	body, err := json.Marshal(env.ToWire())
	if err != nil {
		r.log.Error().Err(err).Str("message", env.ID).Msg("encode replica")
		return
	}

	// The fan-out outlives the publish request that triggered it.
	ctx = context.WithoutCancel(ctx)

	for _, peer := range peers {
		go func(node domain.Node) {
			if err := r.post(ctx, node.URL, body); err != nil {
				r.log.Warn().Err(err).
					Str("peer", node.URL).
					Str("message", env.ID).
					Msg("replication failed")
			}
		}(peer)
	}
}

// post issues one replicate request with its own deadline.
func (r *Replicator) post(ctx context.Context, baseURL string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/replicate", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("replicate %s: %s", baseURL, resp.Status)
	}
	return nil
}

// Compile-time assertion that Replicator implements domain.Replicator.
var _ domain.Replicator = (*Replicator)(nil)
