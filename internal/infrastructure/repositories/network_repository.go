package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
)

// NetworkRepository reads supported blockchain networks.
type NetworkRepository struct {
	db *sqlx.DB
}

// NewNetworkRepository creates a network repository.
func NewNetworkRepository(db *sqlx.DB) *NetworkRepository {
	return &NetworkRepository{db: db}
}

// GetByChainID retrieves a network by its chain id.
func (r *NetworkRepository) GetByChainID(ctx context.Context, chainID int64) (*entities.Network, error) {
	query := `
		SELECT id, chain_id, name, currency, commission_rate, enabled, created_at
		FROM networks
		WHERE chain_id = $1
	`

	var network entities.Network
	if err := r.db.GetContext(ctx, &network, query, chainID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("network")
		}
		return nil, fmt.Errorf("get network by chain id: %w", err)
	}
	return &network, nil
}

// ListEnabled returns every network eligible for reconciliation.
func (r *NetworkRepository) ListEnabled(ctx context.Context) ([]*entities.Network, error) {
	query := `
		SELECT id, chain_id, name, currency, commission_rate, enabled, created_at
		FROM networks
		WHERE enabled = true
		ORDER BY chain_id
	`

	var networks []*entities.Network
	if err := r.db.SelectContext(ctx, &networks, query); err != nil {
		return nil, fmt.Errorf("list enabled networks: %w", err)
	}
	return networks, nil
}
