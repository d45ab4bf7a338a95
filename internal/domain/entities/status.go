package entities

import (
	"time"

	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
)

// Status is the derived lifecycle status of an aggregate. It is never stored
// as authoritative state; the lifecycle markers and the transaction set are,
// and DeriveStatus maps them to exactly one status.
type Status string

const (
	StatusDraft                Status = "draft"
	StatusPending              Status = "pending"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusConfirmed            Status = "confirmed"
	StatusCancelled            Status = "cancelled"
	StatusRefunded             Status = "refunded"
)

// Invariant violation reasons reported by DeriveStatus.
const (
	ReasonDraftMustNotHaveTransactions              = "draft must not have transactions"
	ReasonCancelledMustNotHavePendingTransactions   = "cancelled must not have pending transactions"
	ReasonCancelledMustNotHaveConfirmedTransactions = "cancelled must not have confirmed transactions"
	ReasonRefundedMustHaveConfirmedTransaction      = "refunded must have exactly one confirmed transaction"
	ReasonRefundedUnsupportedForKind                = "refund is only legal for purchase orders"
	ReasonConfirmedMustHaveConfirmedTransaction     = "confirmed must have exactly one confirmed transaction"
	ReasonConfirmedTransactionIncomplete            = "confirmed transaction is missing gas or fee"
	ReasonPendingMustHaveTransactions               = "pending must have at least one transaction"
	ReasonPendingMustNotHaveConfirmedTransactions   = "pending must not have confirmed transactions"
	ReasonMultipleConfirmedTransactions             = "at most one confirmed transaction may exist"
)

// LifecycleMarkers are the timestamps that encode an aggregate's progress.
// PendingAt records when settlement processing began and may coexist with
// the eventual terminal marker; the terminal markers are mutually exclusive
// with each other except that RefundedAt follows ConfirmedAt.
type LifecycleMarkers struct {
	PendingAt   *time.Time `db:"pending_at" json:"pending_at"`
	ConfirmedAt *time.Time `db:"confirmed_at" json:"confirmed_at"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at"`
	RefundedAt  *time.Time `db:"refunded_at" json:"refunded_at"`
}

// IsTerminal reports whether a terminal marker is set.
func (m LifecycleMarkers) IsTerminal() bool {
	return m.ConfirmedAt != nil || m.CancelledAt != nil || m.RefundedAt != nil
}

// DeriveStatus maps an aggregate's lifecycle markers and transaction set to
// its status. The rules form an ordered decision table; the first matching
// marker row wins. A mismatch between markers and transactions is a data or
// logic corruption and yields an invariant violation, never a fallthrough.
func DeriveStatus(kind AggregateKind, m LifecycleMarkers, txs []*SettlementTransaction) (Status, error) {
	confirmed := countConfirmed(txs)
	open := countOpen(txs)

	if confirmed > 1 {
		return "", apperrors.InvariantError(string(kind), ReasonMultipleConfirmedTransactions)
	}

	switch {
	case m.PendingAt == nil && m.ConfirmedAt == nil && m.CancelledAt == nil && m.RefundedAt == nil:
		if len(txs) > 0 {
			return "", apperrors.InvariantError(string(kind), ReasonDraftMustNotHaveTransactions)
		}
		return StatusDraft, nil

	case m.CancelledAt != nil:
		if open > 0 {
			return "", apperrors.InvariantError(string(kind), ReasonCancelledMustNotHavePendingTransactions)
		}
		if confirmed > 0 {
			return "", apperrors.InvariantError(string(kind), ReasonCancelledMustNotHaveConfirmedTransactions)
		}
		return StatusCancelled, nil

	case m.RefundedAt != nil:
		if kind != AggregateKindPurchaseOrder {
			return "", apperrors.InvariantError(string(kind), ReasonRefundedUnsupportedForKind)
		}
		if confirmed != 1 {
			return "", apperrors.InvariantError(string(kind), ReasonRefundedMustHaveConfirmedTransaction)
		}
		return StatusRefunded, nil

	case m.ConfirmedAt != nil:
		if confirmed != 1 {
			return "", apperrors.InvariantError(string(kind), ReasonConfirmedMustHaveConfirmedTransaction)
		}
		if !ConfirmedTransaction(txs).HasOutcomeFields() {
			return "", apperrors.InvariantError(string(kind), ReasonConfirmedTransactionIncomplete)
		}
		return StatusConfirmed, nil

	default: // PendingAt set
		if len(txs) == 0 {
			return "", apperrors.InvariantError(string(kind), ReasonPendingMustHaveTransactions)
		}
		if confirmed > 0 {
			return "", apperrors.InvariantError(string(kind), ReasonPendingMustNotHaveConfirmedTransactions)
		}
		if open > 0 {
			return StatusAwaitingConfirmation, nil
		}
		return StatusPending, nil
	}
}
