package balance

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

type mockSaleRepo struct {
	mock.Mock
}

func (m *mockSaleRepo) SumSellerIncome(ctx context.Context, sellerID uuid.UUID) ([]entities.IncomeSum, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.IncomeSum), args.Error(1)
}

type mockPayoutRepo struct {
	mock.Mock
}

func (m *mockPayoutRepo) SumReservedAmounts(ctx context.Context, sellerID uuid.UUID) ([]entities.PayoutSum, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.PayoutSum), args.Error(1)
}

func TestAvailableBalance(t *testing.T) {
	sellerID := uuid.New()
	marketplaceID := uuid.New()
	tokenID := uuid.New()

	t.Run("returns nothing for a seller with no sales", func(t *testing.T) {
		sales := new(mockSaleRepo)
		payouts := new(mockPayoutRepo)
		sales.On("SumSellerIncome", mock.Anything, sellerID).Return([]entities.IncomeSum{}, nil)

		svc := NewService(sales, payouts, logger.NewNop())
		balances, err := svc.AvailableBalance(context.Background(), sellerID)

		require.NoError(t, err)
		assert.Empty(t, balances)
		payouts.AssertNotCalled(t, "SumReservedAmounts", mock.Anything, mock.Anything)
	})

	t.Run("confirmed income with no payouts is fully withdrawable", func(t *testing.T) {
		sales := new(mockSaleRepo)
		payouts := new(mockPayoutRepo)
		sales.On("SumSellerIncome", mock.Anything, sellerID).Return([]entities.IncomeSum{
			{MarketplaceID: marketplaceID, TokenID: tokenID, TokenSymbol: "COIN", Decimals: 9, Total: decimal.RequireFromString("0.009692143")},
		}, nil)
		payouts.On("SumReservedAmounts", mock.Anything, sellerID).Return([]entities.PayoutSum{}, nil)

		svc := NewService(sales, payouts, logger.NewNop())
		balances, err := svc.AvailableBalance(context.Background(), sellerID)

		require.NoError(t, err)
		require.Len(t, balances, 1)
		assert.Equal(t, "0.009692143", balances[0].Amount.String())
		assert.Equal(t, "COIN", balances[0].TokenSymbol)
		assert.Equal(t, "0.009692143 COIN", balances[0].Formatted())
	})

	t.Run("an outstanding payout zeroes the balance but keeps the row", func(t *testing.T) {
		total := decimal.RequireFromString("0.009692143")
		sales := new(mockSaleRepo)
		payouts := new(mockPayoutRepo)
		sales.On("SumSellerIncome", mock.Anything, sellerID).Return([]entities.IncomeSum{
			{MarketplaceID: marketplaceID, TokenID: tokenID, TokenSymbol: "COIN", Decimals: 9, Total: total},
		}, nil)
		payouts.On("SumReservedAmounts", mock.Anything, sellerID).Return([]entities.PayoutSum{
			{MarketplaceID: marketplaceID, TokenID: tokenID, Total: total},
		}, nil)

		svc := NewService(sales, payouts, logger.NewNop())
		balances, err := svc.AvailableBalance(context.Background(), sellerID)

		require.NoError(t, err)
		require.Len(t, balances, 1)
		assert.True(t, balances[0].Amount.IsZero())
	})

	t.Run("payouts only subtract from their own pair", func(t *testing.T) {
		otherToken := uuid.New()
		sales := new(mockSaleRepo)
		payouts := new(mockPayoutRepo)
		sales.On("SumSellerIncome", mock.Anything, sellerID).Return([]entities.IncomeSum{
			{MarketplaceID: marketplaceID, TokenID: tokenID, TokenSymbol: "COIN", Decimals: 9, Total: decimal.NewFromInt(10)},
			{MarketplaceID: marketplaceID, TokenID: otherToken, TokenSymbol: "GEM", Decimals: 6, Total: decimal.NewFromInt(4)},
		}, nil)
		payouts.On("SumReservedAmounts", mock.Anything, sellerID).Return([]entities.PayoutSum{
			{MarketplaceID: marketplaceID, TokenID: tokenID, Total: decimal.NewFromInt(7)},
		}, nil)

		svc := NewService(sales, payouts, logger.NewNop())
		balances, err := svc.AvailableBalance(context.Background(), sellerID)

		require.NoError(t, err)
		require.Len(t, balances, 2)
		byToken := map[uuid.UUID]entities.TokenBalance{}
		for _, b := range balances {
			byToken[b.TokenID] = b
		}
		assert.True(t, byToken[tokenID].Amount.Equal(decimal.NewFromInt(3)))
		assert.True(t, byToken[otherToken].Amount.Equal(decimal.NewFromInt(4)))
	})

	t.Run("multiple payout rows for one pair accumulate", func(t *testing.T) {
		sales := new(mockSaleRepo)
		payouts := new(mockPayoutRepo)
		sales.On("SumSellerIncome", mock.Anything, sellerID).Return([]entities.IncomeSum{
			{MarketplaceID: marketplaceID, TokenID: tokenID, TokenSymbol: "COIN", Decimals: 9, Total: decimal.NewFromInt(10)},
		}, nil)
		payouts.On("SumReservedAmounts", mock.Anything, sellerID).Return([]entities.PayoutSum{
			{MarketplaceID: marketplaceID, TokenID: tokenID, Total: decimal.NewFromInt(2)},
			{MarketplaceID: marketplaceID, TokenID: tokenID, Total: decimal.NewFromInt(3)},
		}, nil)

		svc := NewService(sales, payouts, logger.NewNop())
		balances, err := svc.AvailableBalance(context.Background(), sellerID)

		require.NoError(t, err)
		require.Len(t, balances, 1)
		assert.True(t, balances[0].Amount.Equal(decimal.NewFromInt(5)))
	})
}
