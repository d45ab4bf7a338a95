// Package balance computes a seller's withdrawable token balances from
// confirmed sales and outstanding payouts.
package balance

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

// SaleRepository provides confirmed seller income grouped by
// (marketplace, token) pair.
type SaleRepository interface {
	SumSellerIncome(ctx context.Context, sellerID uuid.UUID) ([]entities.IncomeSum, error)
}

// PayoutRepository provides payout amounts in draft, pending or confirmed
// state grouped by (marketplace, token) pair. Cancelled payouts are not
// included; their reservation is released.
type PayoutRepository interface {
	SumReservedAmounts(ctx context.Context, sellerID uuid.UUID) ([]entities.PayoutSum, error)
}

// Service is the payout balance calculator.
type Service struct {
	sales   SaleRepository
	payouts PayoutRepository
	logger  *logger.Logger
}

// NewService creates a balance service.
func NewService(sales SaleRepository, payouts PayoutRepository, logger *logger.Logger) *Service {
	return &Service{sales: sales, payouts: payouts, logger: logger}
}

// AvailableBalance returns one row per (marketplace, token) pair the seller
// has confirmed sales in: total confirmed seller income minus payouts still
// reserved or already paid. Pairs with no sales are omitted; pairs whose
// computed balance is zero are included.
func (s *Service) AvailableBalance(ctx context.Context, sellerID uuid.UUID) ([]entities.TokenBalance, error) {
	incomes, err := s.sales.SumSellerIncome(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("sum seller income: %w", err)
	}
	if len(incomes) == 0 {
		return nil, nil
	}

	reserved, err := s.payouts.SumReservedAmounts(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("sum reserved payouts: %w", err)
	}

	type pair struct {
		marketplace uuid.UUID
		token       uuid.UUID
	}
	reservedByPair := make(map[pair]decimal.Decimal, len(reserved))
	for _, r := range reserved {
		key := pair{r.MarketplaceID, r.TokenID}
		reservedByPair[key] = reservedByPair[key].Add(r.Total)
	}

	balances := make([]entities.TokenBalance, 0, len(incomes))
	for _, income := range incomes {
		amount := income.Total.Sub(reservedByPair[pair{income.MarketplaceID, income.TokenID}])
		balances = append(balances, entities.TokenBalance{
			MarketplaceID: income.MarketplaceID,
			TokenID:       income.TokenID,
			TokenSymbol:   income.TokenSymbol,
			Decimals:      income.Decimals,
			Amount:        amount,
		})
	}

	sort.Slice(balances, func(i, j int) bool {
		if balances[i].MarketplaceID != balances[j].MarketplaceID {
			return balances[i].MarketplaceID.String() < balances[j].MarketplaceID.String()
		}
		return balances[i].TokenID.String() < balances[j].TokenID.String()
	})

	return balances, nil
}
