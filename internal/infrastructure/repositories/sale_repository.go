package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
)

// SaleRepository reads product sales. Sales are written only inside the
// settlement store's atomic unit; this repository is the read side.
type SaleRepository struct {
	db *sqlx.DB
}

// NewSaleRepository creates a sale repository.
func NewSaleRepository(db *sqlx.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// ExistsForTransaction reports whether a sale was already materialized for
// the confirming transaction.
func (r *SaleRepository) ExistsForTransaction(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM product_sales WHERE transaction_id = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, transactionID); err != nil {
		return false, fmt.Errorf("check sale existence: %w", err)
	}
	return exists, nil
}

// SumSellerIncome sums confirmed seller income per (marketplace, token)
// pair. A sale row only ever exists for a confirmed purchase, so no status
// filter is needed.
func (r *SaleRepository) SumSellerIncome(ctx context.Context, sellerID uuid.UUID) ([]entities.IncomeSum, error) {
	query := `
		SELECT s.marketplace_id, s.token_id, t.symbol AS token_symbol,
		       t.decimals, COALESCE(SUM(s.seller_income), 0) AS total
		FROM product_sales s
		JOIN tokens t ON t.id = s.token_id
		WHERE s.seller_id = $1
		GROUP BY s.marketplace_id, s.token_id, t.symbol, t.decimals
	`

	var sums []entities.IncomeSum
	if err := r.db.SelectContext(ctx, &sums, query, sellerID); err != nil {
		return nil, fmt.Errorf("sum seller income: %w", err)
	}
	return sums, nil
}
