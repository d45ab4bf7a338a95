package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
)

func ts(t *testing.T) *time.Time {
	t.Helper()
	v := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &v
}

func openTx() *SettlementTransaction {
	return &SettlementTransaction{Hash: "0xopen"}
}

func confirmedTx() *SettlementTransaction {
	now := time.Now()
	return &SettlementTransaction{
		Hash:        "0xconfirmed",
		Gas:         21000,
		Fee:         decimal.NewNullDecimal(decimal.NewFromFloat(0.0021)),
		ConfirmedAt: &now,
	}
}

func failedTx() *SettlementTransaction {
	now := time.Now()
	return &SettlementTransaction{
		Hash:            "0xfailed",
		BlockchainError: "out of gas",
		FailedAt:        &now,
	}
}

func TestDeriveStatus(t *testing.T) {
	kinds := []AggregateKind{
		AggregateKindMarketplaceActivation,
		AggregateKindPurchaseOrder,
		AggregateKindPayout,
	}

	t.Run("no markers and no transactions is draft", func(t *testing.T) {
		for _, kind := range kinds {
			status, err := DeriveStatus(kind, LifecycleMarkers{}, nil)
			require.NoError(t, err)
			assert.Equal(t, StatusDraft, status)
		}
	})

	t.Run("no markers with transactions violates the draft rule", func(t *testing.T) {
		_, err := DeriveStatus(AggregateKindPayout, LifecycleMarkers{}, []*SettlementTransaction{openTx()})
		require.Error(t, err)
		assert.True(t, apperrors.IsInvariantViolation(err))
		assert.Equal(t, ReasonDraftMustNotHaveTransactions, apperrors.Reason(err))
	})

	t.Run("pending marker with only failed transactions is pending", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: ts(t)}
		status, err := DeriveStatus(AggregateKindPurchaseOrder, m, []*SettlementTransaction{failedTx()})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, status)
	})

	t.Run("pending marker with an open transaction is awaiting confirmation", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: ts(t)}
		status, err := DeriveStatus(AggregateKindPurchaseOrder, m, []*SettlementTransaction{failedTx(), openTx()})
		require.NoError(t, err)
		assert.Equal(t, StatusAwaitingConfirmation, status)
	})

	t.Run("pending marker without transactions violates the pending rule", func(t *testing.T) {
		_, err := DeriveStatus(AggregateKindPayout, LifecycleMarkers{PendingAt: ts(t)}, nil)
		require.Error(t, err)
		assert.Equal(t, ReasonPendingMustHaveTransactions, apperrors.Reason(err))
	})

	t.Run("pending marker with a confirmed transaction violates the pending rule", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: ts(t)}
		_, err := DeriveStatus(AggregateKindPayout, m, []*SettlementTransaction{confirmedTx()})
		require.Error(t, err)
		assert.Equal(t, ReasonPendingMustNotHaveConfirmedTransactions, apperrors.Reason(err))
	})

	t.Run("confirmed marker with one complete confirmed transaction is confirmed", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: ts(t), ConfirmedAt: ts(t)}
		for _, kind := range kinds {
			status, err := DeriveStatus(kind, m, []*SettlementTransaction{failedTx(), confirmedTx()})
			require.NoError(t, err)
			assert.Equal(t, StatusConfirmed, status)
		}
	})

	t.Run("confirmed marker without a confirmed transaction violates the confirmed rule", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: ts(t), ConfirmedAt: ts(t)}
		_, err := DeriveStatus(AggregateKindPurchaseOrder, m, []*SettlementTransaction{failedTx()})
		require.Error(t, err)
		assert.Equal(t, ReasonConfirmedMustHaveConfirmedTransaction, apperrors.Reason(err))
	})

	t.Run("confirmed transaction missing gas or fee violates the confirmed rule", func(t *testing.T) {
		now := time.Now()
		incomplete := &SettlementTransaction{Hash: "0xabc", ConfirmedAt: &now}
		m := LifecycleMarkers{PendingAt: ts(t), ConfirmedAt: ts(t)}
		_, err := DeriveStatus(AggregateKindPayout, m, []*SettlementTransaction{incomplete})
		require.Error(t, err)
		assert.Equal(t, ReasonConfirmedTransactionIncomplete, apperrors.Reason(err))
	})

	t.Run("cancelled marker with failed transactions only is cancelled", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: ts(t), CancelledAt: ts(t)}
		status, err := DeriveStatus(AggregateKindPayout, m, []*SettlementTransaction{failedTx()})
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, status)
	})

	t.Run("cancelled marker without any transactions is cancelled", func(t *testing.T) {
		m := LifecycleMarkers{CancelledAt: ts(t)}
		status, err := DeriveStatus(AggregateKindPurchaseOrder, m, nil)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, status)
	})

	t.Run("cancelled marker with an open transaction violates the cancellation rule", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: ts(t), CancelledAt: ts(t)}
		_, err := DeriveStatus(AggregateKindPurchaseOrder, m, []*SettlementTransaction{openTx()})
		require.Error(t, err)
		assert.Equal(t, ReasonCancelledMustNotHavePendingTransactions, apperrors.Reason(err))
	})

	t.Run("cancelled marker with a confirmed transaction violates the cancellation rule", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: ts(t), CancelledAt: ts(t)}
		_, err := DeriveStatus(AggregateKindPurchaseOrder, m, []*SettlementTransaction{confirmedTx()})
		require.Error(t, err)
		assert.Equal(t, ReasonCancelledMustNotHaveConfirmedTransactions, apperrors.Reason(err))
	})

	t.Run("cancelled marker wins over confirmed marker", func(t *testing.T) {
		// A cancelled-and-confirmed aggregate is corrupt data, but the
		// decision table evaluates cancellation first.
		m := LifecycleMarkers{PendingAt: ts(t), ConfirmedAt: ts(t), CancelledAt: ts(t)}
		_, err := DeriveStatus(AggregateKindPayout, m, []*SettlementTransaction{confirmedTx()})
		require.Error(t, err)
		assert.Equal(t, ReasonCancelledMustNotHaveConfirmedTransactions, apperrors.Reason(err))
	})

	t.Run("refunded order with one confirmed transaction is refunded", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: ts(t), ConfirmedAt: ts(t), RefundedAt: ts(t)}
		status, err := DeriveStatus(AggregateKindPurchaseOrder, m, []*SettlementTransaction{confirmedTx()})
		require.NoError(t, err)
		assert.Equal(t, StatusRefunded, status)
	})

	t.Run("refund is illegal for activations and payouts", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: ts(t), ConfirmedAt: ts(t), RefundedAt: ts(t)}
		for _, kind := range []AggregateKind{AggregateKindMarketplaceActivation, AggregateKindPayout} {
			_, err := DeriveStatus(kind, m, []*SettlementTransaction{confirmedTx()})
			require.Error(t, err)
			assert.Equal(t, ReasonRefundedUnsupportedForKind, apperrors.Reason(err))
		}
	})

	t.Run("refunded order without a confirmed transaction violates the refund rule", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: ts(t), ConfirmedAt: ts(t), RefundedAt: ts(t)}
		_, err := DeriveStatus(AggregateKindPurchaseOrder, m, []*SettlementTransaction{failedTx()})
		require.Error(t, err)
		assert.Equal(t, ReasonRefundedMustHaveConfirmedTransaction, apperrors.Reason(err))
	})

	t.Run("more than one confirmed transaction is always a violation", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: ts(t), ConfirmedAt: ts(t)}
		_, err := DeriveStatus(AggregateKindPurchaseOrder, m, []*SettlementTransaction{confirmedTx(), confirmedTx()})
		require.Error(t, err)
		assert.True(t, apperrors.IsInvariantViolation(err))
		assert.Equal(t, ReasonMultipleConfirmedTransactions, apperrors.Reason(err))
	})
}

func TestGuardNewTransaction(t *testing.T) {
	now := time.Now()

	t.Run("allows a first attempt on a draft aggregate", func(t *testing.T) {
		err := GuardNewTransaction(AggregateKindPurchaseOrder, LifecycleMarkers{}, nil)
		assert.NoError(t, err)
	})

	t.Run("allows a retry after a failed attempt", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: &now}
		err := GuardNewTransaction(AggregateKindPayout, m, []*SettlementTransaction{failedTx()})
		assert.NoError(t, err)
	})

	t.Run("rejects when an attempt is already open", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: &now}
		err := GuardNewTransaction(AggregateKindPayout, m, []*SettlementTransaction{openTx()})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Contains(t, err.Error(), "settlement already in progress")
	})

	t.Run("rejects a settled aggregate", func(t *testing.T) {
		m := LifecycleMarkers{PendingAt: &now, ConfirmedAt: &now}
		err := GuardNewTransaction(AggregateKindMarketplaceActivation, m, []*SettlementTransaction{confirmedTx()})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Contains(t, err.Error(), "already settled")
	})

	t.Run("rejects a cancelled aggregate", func(t *testing.T) {
		m := LifecycleMarkers{CancelledAt: &now}
		err := GuardNewTransaction(AggregateKindPurchaseOrder, m, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already cancelled")
	})

	t.Run("rejects a refunded aggregate", func(t *testing.T) {
		m := LifecycleMarkers{RefundedAt: &now}
		err := GuardNewTransaction(AggregateKindPurchaseOrder, m, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already refunded")
	})

	t.Run("caps the number of attempts", func(t *testing.T) {
		txs := make([]*SettlementTransaction, MaxSettlementAttempts)
		for i := range txs {
			txs[i] = failedTx()
		}
		m := LifecycleMarkers{PendingAt: &now}
		err := GuardNewTransaction(AggregateKindPayout, m, txs)
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Contains(t, err.Error(), "attempt limit reached")
	})
}

func TestOutcomesByHash(t *testing.T) {
	outcomes := []TransactionOutcome{
		{Hash: "0xABCdef", Success: true},
		{Hash: "0x123456", Success: false},
	}

	byHash := OutcomesByHash(outcomes)

	require.Len(t, byHash, 2)
	got, ok := byHash["0xabcdef"]
	require.True(t, ok)
	assert.True(t, got.Success)
}
