package payout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

type mockPayoutRepo struct{ mock.Mock }

func (m *mockPayoutRepo) Create(ctx context.Context, payout *entities.Payout) error {
	return m.Called(ctx, payout).Error(0)
}

func (m *mockPayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Payout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Payout), args.Error(1)
}

func (m *mockPayoutRepo) UpdateLifecycle(ctx context.Context, id uuid.UUID, markers entities.LifecycleMarkers, status entities.Status) error {
	return m.Called(ctx, id, markers, status).Error(0)
}

type mockMarketplaceRepo struct{ mock.Mock }

func (m *mockMarketplaceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Marketplace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Marketplace), args.Error(1)
}

type mockTransactionRepo struct{ mock.Mock }

func (m *mockTransactionRepo) Create(ctx context.Context, tx *entities.SettlementTransaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *mockTransactionRepo) ListByAggregate(ctx context.Context, kind entities.AggregateKind, aggregateID uuid.UUID) ([]*entities.SettlementTransaction, error) {
	args := m.Called(ctx, kind, aggregateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SettlementTransaction), args.Error(1)
}

type mockBalances struct{ mock.Mock }

func (m *mockBalances) AvailableBalance(ctx context.Context, sellerID uuid.UUID) ([]entities.TokenBalance, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.TokenBalance), args.Error(1)
}

func newService(payouts *mockPayoutRepo, marketplaces *mockMarketplaceRepo, txs *mockTransactionRepo, balances *mockBalances) *Service {
	return NewService(payouts, marketplaces, txs, balances, logger.NewNop())
}

func TestRequestPayout(t *testing.T) {
	ctx := context.Background()
	sellerID := uuid.New()
	marketplaceID := uuid.New()
	tokenID := uuid.New()
	mkt := &entities.Marketplace{ID: marketplaceID, SellerID: sellerID, NetworkID: uuid.New()}

	t.Run("creates a draft payout for the full balance", func(t *testing.T) {
		payouts := new(mockPayoutRepo)
		marketplaces := new(mockMarketplaceRepo)
		balances := new(mockBalances)
		marketplaces.On("GetByID", mock.Anything, marketplaceID).Return(mkt, nil)
		balances.On("AvailableBalance", mock.Anything, sellerID).Return([]entities.TokenBalance{
			{MarketplaceID: marketplaceID, TokenID: tokenID, TokenSymbol: "COIN", Decimals: 9, Amount: decimal.RequireFromString("0.009692143")},
		}, nil)
		payouts.On("Create", mock.Anything, mock.AnythingOfType("*entities.Payout")).Return(nil)

		svc := newService(payouts, marketplaces, new(mockTransactionRepo), balances)
		payout, err := svc.RequestPayout(ctx, sellerID, marketplaceID, tokenID, "0xwallet")

		require.NoError(t, err)
		assert.Equal(t, entities.StatusDraft, payout.Status)
		assert.Equal(t, "0.009692143", payout.Amount.String())
		assert.Equal(t, mkt.NetworkID, payout.NetworkID)
		assert.Nil(t, payout.PendingAt)
	})

	t.Run("rejects a missing wallet address", func(t *testing.T) {
		svc := newService(new(mockPayoutRepo), new(mockMarketplaceRepo), new(mockTransactionRepo), new(mockBalances))
		_, err := svc.RequestPayout(ctx, sellerID, marketplaceID, tokenID, "")
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("hides marketplaces owned by another seller", func(t *testing.T) {
		marketplaces := new(mockMarketplaceRepo)
		marketplaces.On("GetByID", mock.Anything, marketplaceID).Return(mkt, nil)

		svc := newService(new(mockPayoutRepo), marketplaces, new(mockTransactionRepo), new(mockBalances))
		_, err := svc.RequestPayout(ctx, uuid.New(), marketplaceID, tokenID, "0xwallet")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("conflicts when the pair has no withdrawable balance", func(t *testing.T) {
		marketplaces := new(mockMarketplaceRepo)
		balances := new(mockBalances)
		marketplaces.On("GetByID", mock.Anything, marketplaceID).Return(mkt, nil)
		balances.On("AvailableBalance", mock.Anything, sellerID).Return([]entities.TokenBalance{
			{MarketplaceID: marketplaceID, TokenID: tokenID, Amount: decimal.Zero},
		}, nil)

		svc := newService(new(mockPayoutRepo), marketplaces, new(mockTransactionRepo), balances)
		_, err := svc.RequestPayout(ctx, sellerID, marketplaceID, tokenID, "0xwallet")
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("conflicts when the seller has no balances at all", func(t *testing.T) {
		marketplaces := new(mockMarketplaceRepo)
		balances := new(mockBalances)
		marketplaces.On("GetByID", mock.Anything, marketplaceID).Return(mkt, nil)
		balances.On("AvailableBalance", mock.Anything, sellerID).Return([]entities.TokenBalance{}, nil)

		svc := newService(new(mockPayoutRepo), marketplaces, new(mockTransactionRepo), balances)
		_, err := svc.RequestPayout(ctx, sellerID, marketplaceID, tokenID, "0xwallet")
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestSubmitPayout(t *testing.T) {
	ctx := context.Background()
	payoutID := uuid.New()
	networkID := uuid.New()

	draft := func() *entities.Payout {
		return &entities.Payout{
			ID:        payoutID,
			NetworkID: networkID,
			Amount:    decimal.NewFromInt(5),
			Status:    entities.StatusDraft,
		}
	}

	t.Run("creates an open transaction and marks the payout pending", func(t *testing.T) {
		payouts := new(mockPayoutRepo)
		txs := new(mockTransactionRepo)
		payouts.On("GetByID", mock.Anything, payoutID).Return(draft(), nil)
		txs.On("ListByAggregate", mock.Anything, entities.AggregateKindPayout, payoutID).
			Return([]*entities.SettlementTransaction{}, nil)
		txs.On("Create", mock.Anything, mock.AnythingOfType("*entities.SettlementTransaction")).Return(nil)

		var markers entities.LifecycleMarkers
		payouts.On("UpdateLifecycle", mock.Anything, payoutID, mock.AnythingOfType("entities.LifecycleMarkers"), entities.StatusAwaitingConfirmation).
			Run(func(args mock.Arguments) { markers = args.Get(2).(entities.LifecycleMarkers) }).
			Return(nil)

		svc := newService(payouts, new(mockMarketplaceRepo), txs, new(mockBalances))
		tx, err := svc.SubmitPayout(ctx, payoutID, "0xhash", "0xsender")

		require.NoError(t, err)
		assert.Equal(t, entities.AggregateKindPayout, tx.AggregateKind)
		assert.Equal(t, networkID, tx.NetworkID)
		assert.True(t, tx.IsOpen())
		require.NotNil(t, markers.PendingAt)
	})

	t.Run("keeps the original pending timestamp on a retry", func(t *testing.T) {
		firstPending := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
		failed := time.Now()
		p := draft()
		p.PendingAt = &firstPending

		payouts := new(mockPayoutRepo)
		txs := new(mockTransactionRepo)
		payouts.On("GetByID", mock.Anything, payoutID).Return(p, nil)
		txs.On("ListByAggregate", mock.Anything, entities.AggregateKindPayout, payoutID).
			Return([]*entities.SettlementTransaction{{ID: uuid.New(), FailedAt: &failed}}, nil)
		txs.On("Create", mock.Anything, mock.AnythingOfType("*entities.SettlementTransaction")).Return(nil)

		var markers entities.LifecycleMarkers
		payouts.On("UpdateLifecycle", mock.Anything, payoutID, mock.AnythingOfType("entities.LifecycleMarkers"), entities.StatusAwaitingConfirmation).
			Run(func(args mock.Arguments) { markers = args.Get(2).(entities.LifecycleMarkers) }).
			Return(nil)

		svc := newService(payouts, new(mockMarketplaceRepo), txs, new(mockBalances))
		_, err := svc.SubmitPayout(ctx, payoutID, "0xretry", "0xsender")

		require.NoError(t, err)
		require.NotNil(t, markers.PendingAt)
		assert.Equal(t, firstPending, *markers.PendingAt)
	})

	t.Run("rejects a second open attempt", func(t *testing.T) {
		payouts := new(mockPayoutRepo)
		txs := new(mockTransactionRepo)
		p := draft()
		now := time.Now()
		p.PendingAt = &now
		payouts.On("GetByID", mock.Anything, payoutID).Return(p, nil)
		txs.On("ListByAggregate", mock.Anything, entities.AggregateKindPayout, payoutID).
			Return([]*entities.SettlementTransaction{{ID: uuid.New(), Hash: "0xopen"}}, nil)

		svc := newService(payouts, new(mockMarketplaceRepo), txs, new(mockBalances))
		_, err := svc.SubmitPayout(ctx, payoutID, "0xhash", "0xsender")

		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		txs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects an empty hash", func(t *testing.T) {
		svc := newService(new(mockPayoutRepo), new(mockMarketplaceRepo), new(mockTransactionRepo), new(mockBalances))
		_, err := svc.SubmitPayout(ctx, payoutID, "", "0xsender")
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestCancelPayout(t *testing.T) {
	ctx := context.Background()
	payoutID := uuid.New()
	now := time.Now()

	t.Run("cancels a payout with no live transactions", func(t *testing.T) {
		failed := now
		p := &entities.Payout{ID: payoutID, Amount: decimal.NewFromInt(5)}
		p.PendingAt = &now

		payouts := new(mockPayoutRepo)
		txs := new(mockTransactionRepo)
		payouts.On("GetByID", mock.Anything, payoutID).Return(p, nil)
		txs.On("ListByAggregate", mock.Anything, entities.AggregateKindPayout, payoutID).
			Return([]*entities.SettlementTransaction{{ID: uuid.New(), FailedAt: &failed}}, nil)

		var markers entities.LifecycleMarkers
		payouts.On("UpdateLifecycle", mock.Anything, payoutID, mock.AnythingOfType("entities.LifecycleMarkers"), entities.StatusCancelled).
			Run(func(args mock.Arguments) { markers = args.Get(2).(entities.LifecycleMarkers) }).
			Return(nil)

		svc := newService(payouts, new(mockMarketplaceRepo), txs, new(mockBalances))
		err := svc.CancelPayout(ctx, payoutID)

		require.NoError(t, err)
		assert.NotNil(t, markers.CancelledAt)
	})

	t.Run("refuses to cancel a settled payout", func(t *testing.T) {
		p := &entities.Payout{ID: payoutID}
		p.ConfirmedAt = &now

		payouts := new(mockPayoutRepo)
		payouts.On("GetByID", mock.Anything, payoutID).Return(p, nil)

		svc := newService(payouts, new(mockMarketplaceRepo), new(mockTransactionRepo), new(mockBalances))
		err := svc.CancelPayout(ctx, payoutID)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("refuses to cancel while a transaction is in flight", func(t *testing.T) {
		p := &entities.Payout{ID: payoutID}
		p.PendingAt = &now

		payouts := new(mockPayoutRepo)
		txs := new(mockTransactionRepo)
		payouts.On("GetByID", mock.Anything, payoutID).Return(p, nil)
		txs.On("ListByAggregate", mock.Anything, entities.AggregateKindPayout, payoutID).
			Return([]*entities.SettlementTransaction{{ID: uuid.New(), Hash: "0xopen"}}, nil)

		svc := newService(payouts, new(mockMarketplaceRepo), txs, new(mockBalances))
		err := svc.CancelPayout(ctx, payoutID)
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Contains(t, err.Error(), "settlement in progress")
	})

	t.Run("cancelling twice conflicts", func(t *testing.T) {
		p := &entities.Payout{ID: payoutID}
		p.CancelledAt = &now

		payouts := new(mockPayoutRepo)
		payouts.On("GetByID", mock.Anything, payoutID).Return(p, nil)

		svc := newService(payouts, new(mockMarketplaceRepo), new(mockTransactionRepo), new(mockBalances))
		err := svc.CancelPayout(ctx, payoutID)
		assert.True(t, apperrors.IsConflict(err))
	})
}
