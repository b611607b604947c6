package nodes

import (
	"sort"
	"sync"

	"courier/internal/clock"
	"courier/internal/domain"
)

// Registry is the set of peer brokers known to this node, keyed by URL.
type Registry struct {
	mu    sync.Mutex
	byURL map[string]domain.Node
	clk   clock.Clock
}

// New returns an empty registry driven by clk.
func New(clk clock.Clock) *Registry {
	return &Registry{
		byURL: make(map[string]domain.Node),
		clk:   clk,
	}
}

// Register inserts or refreshes a peer. The last-seen time is always updated;
// registering the same URL twice leaves the registry size unchanged.
func (r *Registry) Register(nodeURL, publicKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byURL[nodeURL] = domain.Node{
		URL:       nodeURL,
		PublicKey: publicKey,
		LastSeen:  r.clk.Now(),
	}
}

// List returns the current view of peers, ordered by URL for stable output.
func (r *Registry) List() []domain.Node {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Node, 0, len(r.byURL))
	for _, n := range r.byURL {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// Count reports the number of known peers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byURL)
}

// Compile-time assertion that Registry implements domain.NodeDirectory.
var _ domain.NodeDirectory = (*Registry)(nil)
