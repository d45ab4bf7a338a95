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

const orderColumns = `
	id, buyer_id, seller_id, product_id, marketplace_id, network_id, token_id,
	order_reference, buyer_wallet, payment_contract, price, commission_rate,
	decimals, pending_at, confirmed_at, cancelled_at, refunded_at, status, created_at`

// OrderRepository persists purchase orders.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates an order repository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new purchase order.
func (r *OrderRepository) Create(ctx context.Context, order *entities.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (
			id, buyer_id, seller_id, product_id, marketplace_id, network_id, token_id,
			order_reference, buyer_wallet, payment_contract, price, commission_rate,
			decimals, pending_at, confirmed_at, cancelled_at, refunded_at, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.BuyerID,
		order.SellerID,
		order.ProductID,
		order.MarketplaceID,
		order.NetworkID,
		order.TokenID,
		order.OrderReference,
		order.BuyerWallet,
		order.PaymentContract,
		order.Price,
		order.CommissionRate,
		order.Decimals,
		order.PendingAt,
		order.ConfirmedAt,
		order.CancelledAt,
		order.RefundedAt,
		order.Status,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create purchase order: %w", err)
	}
	return nil
}

// GetByID retrieves a purchase order by id.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE id = $1`

	var order entities.PurchaseOrder
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("purchase_order")
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	return &order, nil
}

// UpdateLifecycle persists the order's lifecycle markers and derived status.
func (r *OrderRepository) UpdateLifecycle(ctx context.Context, id uuid.UUID, markers entities.LifecycleMarkers, status entities.Status) error {
	query := `
		UPDATE purchase_orders
		SET pending_at = $2, confirmed_at = $3, cancelled_at = $4, refunded_at = $5, status = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, markers.PendingAt, markers.ConfirmedAt, markers.CancelledAt, markers.RefundedAt, status)
	if err != nil {
		return fmt.Errorf("update purchase order lifecycle: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NotFoundError("purchase_order")
	}
	return nil
}
