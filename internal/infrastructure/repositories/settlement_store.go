package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	"github.com/bazaar-service/bazaar_service/internal/domain/services/reconciliation"
)

// SettlementStore applies one reconciliation outcome as a single database
// transaction: the settlement transaction's outcome fields, the aggregate's
// lifecycle markers and derived status, and (for confirmed purchases) the
// sale row. Sale insertion is keyed on the confirming transaction id so a
// replayed pass cannot double-materialize income.
type SettlementStore struct {
	db *sqlx.DB
}

// NewSettlementStore creates a settlement store.
func NewSettlementStore(db *sqlx.DB) *SettlementStore {
	return &SettlementStore{db: db}
}

var _ reconciliation.SettlementStore = (*SettlementStore)(nil)

// ApplyOutcome persists the update atomically.
func (s *SettlementStore) ApplyOutcome(ctx context.Context, update *reconciliation.OutcomeUpdate) error {
	dbtx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settlement unit: %w", err)
	}
	defer dbtx.Rollback()

	if err := s.updateTransaction(ctx, dbtx, update.Transaction); err != nil {
		return err
	}
	if err := s.updateAggregate(ctx, dbtx, update); err != nil {
		return err
	}
	if update.Sale != nil {
		if err := s.insertSale(ctx, dbtx, update.Sale); err != nil {
			return err
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit settlement unit: %w", err)
	}
	return nil
}

func (s *SettlementStore) updateTransaction(ctx context.Context, dbtx *sqlx.Tx, tx *entities.SettlementTransaction) error {
	query := `
		UPDATE transactions
		SET sender_address = $2, gas = $3, fee = $4, blockchain_error = $5,
		    confirmed_at = $6, failed_at = $7
		WHERE id = $1 AND confirmed_at IS NULL AND failed_at IS NULL
	`

	// Zero rows affected means another pass already applied an outcome; the
	// guard in the WHERE clause makes a replay a no-op, never an overwrite.
	_, err := dbtx.ExecContext(ctx, query,
		tx.ID,
		tx.SenderAddress,
		tx.Gas,
		tx.Fee,
		tx.BlockchainError,
		tx.ConfirmedAt,
		tx.FailedAt,
	)
	if err != nil {
		return fmt.Errorf("update transaction outcome: %w", err)
	}
	return nil
}

func (s *SettlementStore) updateAggregate(ctx context.Context, dbtx *sqlx.Tx, update *reconciliation.OutcomeUpdate) error {
	var query string
	var args []interface{}

	switch update.Kind {
	case entities.AggregateKindMarketplaceActivation:
		query = `UPDATE marketplaces SET pending_at = $2, confirmed_at = $3, status = $4 WHERE id = $1`
		args = []interface{}{update.AggregateID, update.Markers.PendingAt, update.Markers.ConfirmedAt, update.Status}
	case entities.AggregateKindPayout:
		query = `UPDATE payouts SET pending_at = $2, confirmed_at = $3, cancelled_at = $4, status = $5 WHERE id = $1`
		args = []interface{}{update.AggregateID, update.Markers.PendingAt, update.Markers.ConfirmedAt, update.Markers.CancelledAt, update.Status}
	case entities.AggregateKindPurchaseOrder:
		query = `UPDATE purchase_orders SET pending_at = $2, confirmed_at = $3, cancelled_at = $4, refunded_at = $5, status = $6 WHERE id = $1`
		args = []interface{}{update.AggregateID, update.Markers.PendingAt, update.Markers.ConfirmedAt, update.Markers.CancelledAt, update.Markers.RefundedAt, update.Status}
	default:
		return fmt.Errorf("unknown aggregate kind %q", update.Kind)
	}

	if _, err := dbtx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update %s lifecycle: %w", update.Kind, err)
	}
	return nil
}

func (s *SettlementStore) insertSale(ctx context.Context, dbtx *sqlx.Tx, sale *entities.ProductSale) error {
	query := `
		INSERT INTO product_sales (
			id, order_id, seller_id, product_id, marketplace_id, token_id,
			transaction_id, seller_income, platform_income, decimals, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (transaction_id) DO NOTHING
	`

	_, err := dbtx.ExecContext(ctx, query,
		sale.ID,
		sale.OrderID,
		sale.SellerID,
		sale.ProductID,
		sale.MarketplaceID,
		sale.TokenID,
		sale.TransactionID,
		sale.SellerIncome,
		sale.PlatformIncome,
		sale.Decimals,
		sale.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product sale: %w", err)
	}
	return nil
}
