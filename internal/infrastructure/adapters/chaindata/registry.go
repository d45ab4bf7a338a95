package chaindata

import (
	"fmt"

	"github.com/bazaar-service/bazaar_service/internal/domain/services/reconciliation"
)

// Registry resolves the data client registered for a chain id. One client
// is configured per supported network at startup.
type Registry struct {
	clients map[int64]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[int64]*Client)}
}

// Register adds a client for a chain id, replacing any previous one.
func (r *Registry) Register(chainID int64, client *Client) {
	r.clients[chainID] = client
}

// ClientFor returns the client for the chain id.
func (r *Registry) ClientFor(chainID int64) (reconciliation.ChainDataClient, error) {
	client, ok := r.clients[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoClientForChain, chainID)
	}
	return client, nil
}

var _ reconciliation.ChainDataRegistry = (*Registry)(nil)
