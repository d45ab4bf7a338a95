package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
)

const transactionColumns = `
	id, aggregate_kind, aggregate_id, network_id, hash, sender_address,
	gas, fee, blockchain_error, confirmed_at, failed_at, created_at`

// TransactionRepository persists settlement transactions.
type TransactionRepository struct {
	db *sqlx.DB
}

// NewTransactionRepository creates a transaction repository.
func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a new settlement transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx *entities.SettlementTransaction) error {
	query := `
		INSERT INTO transactions (
			id, aggregate_kind, aggregate_id, network_id, hash, sender_address,
			gas, fee, blockchain_error, confirmed_at, failed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.AggregateKind,
		tx.AggregateID,
		tx.NetworkID,
		tx.Hash,
		tx.SenderAddress,
		tx.Gas,
		tx.Fee,
		tx.BlockchainError,
		tx.ConfirmedAt,
		tx.FailedAt,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// ListOpenSettlement returns the open activation and payout transactions of
// a network.
func (r *TransactionRepository) ListOpenSettlement(ctx context.Context, networkID uuid.UUID) ([]*entities.SettlementTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE network_id = $1
		  AND aggregate_kind IN ($2, $3)
		  AND confirmed_at IS NULL
		  AND failed_at IS NULL
		ORDER BY created_at
	`

	var txs []*entities.SettlementTransaction
	err := r.db.SelectContext(ctx, &txs, query, networkID,
		entities.AggregateKindMarketplaceActivation, entities.AggregateKindPayout)
	if err != nil {
		return nil, fmt.Errorf("list open settlement transactions: %w", err)
	}
	return txs, nil
}

// ListOpenOrders returns the open purchase order transactions of a network.
func (r *TransactionRepository) ListOpenOrders(ctx context.Context, networkID uuid.UUID) ([]*entities.SettlementTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE network_id = $1
		  AND aggregate_kind = $2
		  AND confirmed_at IS NULL
		  AND failed_at IS NULL
		ORDER BY created_at
	`

	var txs []*entities.SettlementTransaction
	err := r.db.SelectContext(ctx, &txs, query, networkID, entities.AggregateKindPurchaseOrder)
	if err != nil {
		return nil, fmt.Errorf("list open order transactions: %w", err)
	}
	return txs, nil
}

// ListByAggregate returns the full transaction history of an aggregate,
// oldest first.
func (r *TransactionRepository) ListByAggregate(ctx context.Context, kind entities.AggregateKind, aggregateID uuid.UUID) ([]*entities.SettlementTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE aggregate_kind = $1 AND aggregate_id = $2
		ORDER BY created_at
	`

	var txs []*entities.SettlementTransaction
	if err := r.db.SelectContext(ctx, &txs, query, kind, aggregateID); err != nil {
		return nil, fmt.Errorf("list transactions by aggregate: %w", err)
	}
	return txs, nil
}
