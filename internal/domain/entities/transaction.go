package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
)

// AggregateKind identifies which kind of aggregate a settlement transaction
// belongs to.
type AggregateKind string

const (
	AggregateKindMarketplaceActivation AggregateKind = "marketplace_activation"
	AggregateKindPurchaseOrder         AggregateKind = "purchase_order"
	AggregateKindPayout                AggregateKind = "payout"
)

// IsValid checks if the kind is a known aggregate kind.
func (k AggregateKind) IsValid() bool {
	switch k {
	case AggregateKindMarketplaceActivation, AggregateKindPurchaseOrder, AggregateKindPayout:
		return true
	}
	return false
}

// MaxSettlementAttempts caps how many transactions an aggregate may
// accumulate before requiring manual intervention.
const MaxSettlementAttempts = 10

// SettlementTransaction is one attempt to settle an aggregate on-chain.
// A transaction with neither ConfirmedAt nor FailedAt set is open, i.e.
// submitted but not yet observed on the network.
type SettlementTransaction struct {
	ID              uuid.UUID           `db:"id" json:"id"`
	AggregateKind   AggregateKind       `db:"aggregate_kind" json:"aggregate_kind"`
	AggregateID     uuid.UUID           `db:"aggregate_id" json:"aggregate_id"`
	NetworkID       uuid.UUID           `db:"network_id" json:"network_id"`
	Hash            string              `db:"hash" json:"hash"`
	SenderAddress   string              `db:"sender_address" json:"sender_address"`
	Gas             int64               `db:"gas" json:"gas"`
	Fee             decimal.NullDecimal `db:"fee" json:"fee"`
	BlockchainError string              `db:"blockchain_error" json:"blockchain_error"`
	ConfirmedAt     *time.Time          `db:"confirmed_at" json:"confirmed_at"`
	FailedAt        *time.Time          `db:"failed_at" json:"failed_at"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
}

// IsOpen reports whether the transaction is still awaiting an outcome.
func (t *SettlementTransaction) IsOpen() bool {
	return t.ConfirmedAt == nil && t.FailedAt == nil
}

// IsConfirmed reports whether the transaction was confirmed on-chain.
func (t *SettlementTransaction) IsConfirmed() bool {
	return t.ConfirmedAt != nil
}

// IsFailed reports whether the transaction failed on-chain.
func (t *SettlementTransaction) IsFailed() bool {
	return t.FailedAt != nil
}

// HasOutcomeFields reports whether gas and fee were populated from the
// network, required for a confirmed aggregate to be considered complete.
func (t *SettlementTransaction) HasOutcomeFields() bool {
	return t.Gas > 0 && t.Fee.Valid
}

// OpenTransaction returns the single open transaction of the set, or nil.
func OpenTransaction(txs []*SettlementTransaction) *SettlementTransaction {
	for _, tx := range txs {
		if tx.IsOpen() {
			return tx
		}
	}
	return nil
}

// ConfirmedTransaction returns the single confirmed transaction of the set,
// or nil.
func ConfirmedTransaction(txs []*SettlementTransaction) *SettlementTransaction {
	for _, tx := range txs {
		if tx.IsConfirmed() {
			return tx
		}
	}
	return nil
}

func countConfirmed(txs []*SettlementTransaction) int {
	n := 0
	for _, tx := range txs {
		if tx.IsConfirmed() {
			n++
		}
	}
	return n
}

func countOpen(txs []*SettlementTransaction) int {
	n := 0
	for _, tx := range txs {
		if tx.IsOpen() {
			n++
		}
	}
	return n
}

// GuardNewTransaction checks whether a new settlement attempt may be
// attached to an aggregate. At most one open transaction may exist at a
// time, a confirmed aggregate accepts no further attempts, and retries are
// capped at MaxSettlementAttempts.
func GuardNewTransaction(kind AggregateKind, markers LifecycleMarkers, txs []*SettlementTransaction) error {
	resource := string(kind)
	if markers.ConfirmedAt != nil || ConfirmedTransaction(txs) != nil {
		return apperrors.ConflictError(resource, "already settled")
	}
	if markers.CancelledAt != nil {
		return apperrors.ConflictError(resource, "already cancelled")
	}
	if markers.RefundedAt != nil {
		return apperrors.ConflictError(resource, "already refunded")
	}
	if OpenTransaction(txs) != nil {
		return apperrors.ConflictError(resource, "settlement already in progress")
	}
	if len(txs) >= MaxSettlementAttempts {
		return apperrors.ConflictError(resource, "settlement attempt limit reached")
	}
	return nil
}

// TransactionOutcome is the observed result of an on-chain transaction as
// reported by a network's data provider.
type TransactionOutcome struct {
	Hash          string          `json:"hash"`
	SenderAddress string          `json:"sender_address"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Error         string          `json:"error"`
	Success       bool            `json:"success"`
	TokenAddress  string          `json:"token_address"`
	Timestamp     time.Time       `json:"timestamp"`
	Gas           int64           `json:"gas"`
	GasValue      decimal.Decimal `json:"gas_value"`
}

// OutcomesByHash indexes outcomes by lowercased transaction hash.
func OutcomesByHash(outcomes []TransactionOutcome) map[string]TransactionOutcome {
	m := make(map[string]TransactionOutcome, len(outcomes))
	for _, o := range outcomes {
		m[strings.ToLower(o.Hash)] = o
	}
	return m
}

// OnChainOrder is the authoritative order record read from the marketplace
// contract, used to cross-validate purchase confirmations. Price is in the
// token's base units.
type OnChainOrder struct {
	BuyerAddress    string          `json:"buyer_address"`
	Price           decimal.Decimal `json:"price"`
	PaymentContract string          `json:"payment_contract"`
}
