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

const payoutColumns = `
	id, seller_id, marketplace_id, network_id, token_id, wallet_address,
	amount, decimals, pending_at, confirmed_at, cancelled_at, status, created_at`

// PayoutRepository persists payouts.
type PayoutRepository struct {
	db *sqlx.DB
}

// NewPayoutRepository creates a payout repository.
func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// Create inserts a new payout.
func (r *PayoutRepository) Create(ctx context.Context, payout *entities.Payout) error {
	query := `
		INSERT INTO payouts (
			id, seller_id, marketplace_id, network_id, token_id, wallet_address,
			amount, decimals, pending_at, confirmed_at, cancelled_at, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		payout.ID,
		payout.SellerID,
		payout.MarketplaceID,
		payout.NetworkID,
		payout.TokenID,
		payout.WalletAddress,
		payout.Amount,
		payout.Decimals,
		payout.PendingAt,
		payout.ConfirmedAt,
		payout.CancelledAt,
		payout.Status,
		payout.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create payout: %w", err)
	}
	return nil
}

// GetByID retrieves a payout by id.
func (r *PayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`

	var payout entities.Payout
	if err := r.db.GetContext(ctx, &payout, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("payout")
		}
		return nil, fmt.Errorf("get payout: %w", err)
	}
	return &payout, nil
}

// UpdateLifecycle persists the payout's lifecycle markers and derived status.
func (r *PayoutRepository) UpdateLifecycle(ctx context.Context, id uuid.UUID, markers entities.LifecycleMarkers, status entities.Status) error {
	query := `
		UPDATE payouts
		SET pending_at = $2, confirmed_at = $3, cancelled_at = $4, status = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, markers.PendingAt, markers.ConfirmedAt, markers.CancelledAt, status)
	if err != nil {
		return fmt.Errorf("update payout lifecycle: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NotFoundError("payout")
	}
	return nil
}

// SumReservedAmounts sums payout amounts still reserved or already paid,
// per (marketplace, token) pair. Cancelled payouts are excluded; their
// reservation returned to the withdrawable pool.
func (r *PayoutRepository) SumReservedAmounts(ctx context.Context, sellerID uuid.UUID) ([]entities.PayoutSum, error) {
	query := `
		SELECT marketplace_id, token_id, COALESCE(SUM(amount), 0) AS total
		FROM payouts
		WHERE seller_id = $1
		  AND status IN ('draft', 'pending', 'awaiting_confirmation', 'confirmed')
		GROUP BY marketplace_id, token_id
	`

	var sums []entities.PayoutSum
	if err := r.db.SelectContext(ctx, &sums, query, sellerID); err != nil {
		return nil, fmt.Errorf("sum reserved payout amounts: %w", err)
	}
	return sums, nil
}
