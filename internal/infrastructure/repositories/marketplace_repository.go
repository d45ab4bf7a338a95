package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
)

// MarketplaceRepository persists marketplaces and serves the product
// catalog view used when opening orders.
type MarketplaceRepository struct {
	db *sqlx.DB
}

// NewMarketplaceRepository creates a marketplace repository.
func NewMarketplaceRepository(db *sqlx.DB) *MarketplaceRepository {
	return &MarketplaceRepository{db: db}
}

// GetByID retrieves a marketplace by id.
func (r *MarketplaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Marketplace, error) {
	query := `
		SELECT id, seller_id, network_id, name, commission_rate,
		       pending_at, confirmed_at, status, created_at
		FROM marketplaces
		WHERE id = $1
	`

	var marketplace entities.Marketplace
	if err := r.db.GetContext(ctx, &marketplace, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("marketplace")
		}
		return nil, fmt.Errorf("get marketplace: %w", err)
	}
	return &marketplace, nil
}

// UpdateLifecycle persists the marketplace's lifecycle markers and derived
// status. Activations have no cancel or refund columns.
func (r *MarketplaceRepository) UpdateLifecycle(ctx context.Context, id uuid.UUID, markers entities.LifecycleMarkers, status entities.Status) error {
	query := `
		UPDATE marketplaces
		SET pending_at = $2, confirmed_at = $3, status = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, markers.PendingAt, markers.ConfirmedAt, status)
	if err != nil {
		return fmt.Errorf("update marketplace lifecycle: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NotFoundError("marketplace")
	}
	return nil
}

// GetProductOffer loads the denormalized offer for a product: price, token
// details and the marketplace's commission rate. Only products on an
// activated marketplace are purchasable.
func (r *MarketplaceRepository) GetProductOffer(ctx context.Context, productID uuid.UUID) (*entities.ProductOffer, error) {
	query := `
		SELECT p.id AS product_id, p.seller_id, p.marketplace_id, m.network_id,
		       p.token_id, t.symbol AS token_symbol, t.contract_address AS token_contract,
		       t.decimals AS token_decimals, p.price, m.commission_rate
		FROM products p
		JOIN marketplaces m ON m.id = p.marketplace_id
		JOIN tokens t ON t.id = p.token_id
		WHERE p.id = $1 AND p.active = true AND m.status = 'confirmed'
	`

	var offer entities.ProductOffer
	if err := r.db.GetContext(ctx, &offer, query, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("product")
		}
		return nil, fmt.Errorf("get product offer: %w", err)
	}
	return &offer, nil
}
