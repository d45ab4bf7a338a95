// Package marketchain implements the marketplace contract reader used to
// cross-validate purchase confirmations against the authoritative on-chain
// order record.
package marketchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	"github.com/bazaar-service/bazaar_service/internal/domain/services/reconciliation"
)

const defaultTimeout = 30 * time.Second

// ErrNoClientForChain indicates no marketplace chain client is registered
// for the requested chain id.
var ErrNoClientForChain = errors.New("no marketplace chain client registered for chain")

// Config represents one marketplace contract reader endpoint.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client reads order records from the marketplace contract via the
// network's RPC gateway.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a marketplace chain client.
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// wireOrder is the gateway's order payload. Price is a decimal string in
// the token's base units.
type wireOrder struct {
	BuyerAddress    string `json:"buyer_address"`
	Price           string `json:"price"`
	PaymentContract string `json:"payment_contract"`
}

// GetOrder retrieves the on-chain order record by its reference.
func (c *Client) GetOrder(ctx context.Context, network *entities.Network, orderReference string) (*entities.OnChainOrder, error) {
	endpoint := fmt.Sprintf("%s/api/v1/networks/%d/orders/%s",
		c.config.BaseURL, network.ChainID, url.PathEscape(orderReference))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderReference, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Order lookup failed",
			zap.String("order_reference", orderReference),
			zap.Int64("chain_id", network.ChainID),
			zap.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("get order %s: status %d", orderReference, resp.StatusCode)
	}

	var wire wireOrder
	if err := json.Unmarshal(body, &wire); err != nil {
		c.logger.Warn("Malformed order response",
			zap.String("order_reference", orderReference),
			zap.Error(err))
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	price, err := decimal.NewFromString(wire.Price)
	if err != nil {
		c.logger.Warn("Malformed order price",
			zap.String("order_reference", orderReference),
			zap.String("price", wire.Price))
		return nil, fmt.Errorf("parse order price %q: %w", wire.Price, err)
	}

	return &entities.OnChainOrder{
		BuyerAddress:    wire.BuyerAddress,
		Price:           price,
		PaymentContract: wire.PaymentContract,
	}, nil
}

// Registry resolves the marketplace chain client for a chain id.
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
func (r *Registry) ClientFor(chainID int64) (reconciliation.OrderChainClient, error) {
	client, ok := r.clients[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoClientForChain, chainID)
	}
	return client, nil
}

var _ reconciliation.OrderChainRegistry = (*Registry)(nil)
