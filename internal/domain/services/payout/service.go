// Package payout manages seller withdrawal requests: creating them from the
// withdrawable balance, attaching settlement transactions and cancelling.
package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

// PayoutRepository persists payouts.
type PayoutRepository interface {
	Create(ctx context.Context, payout *entities.Payout) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Payout, error)
	UpdateLifecycle(ctx context.Context, id uuid.UUID, markers entities.LifecycleMarkers, status entities.Status) error
}

// MarketplaceRepository resolves the marketplace a payout draws from.
type MarketplaceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Marketplace, error)
}

// TransactionRepository persists settlement attempts.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entities.SettlementTransaction) error
	ListByAggregate(ctx context.Context, kind entities.AggregateKind, aggregateID uuid.UUID) ([]*entities.SettlementTransaction, error)
}

// BalanceCalculator reports the seller's withdrawable balances.
type BalanceCalculator interface {
	AvailableBalance(ctx context.Context, sellerID uuid.UUID) ([]entities.TokenBalance, error)
}

// Service handles payout operations.
type Service struct {
	payouts      PayoutRepository
	marketplaces MarketplaceRepository
	transactions TransactionRepository
	balances     BalanceCalculator
	logger       *logger.Logger
}

// NewService creates a payout service.
func NewService(
	payouts PayoutRepository,
	marketplaces MarketplaceRepository,
	transactions TransactionRepository,
	balances BalanceCalculator,
	logger *logger.Logger,
) *Service {
	return &Service{
		payouts:      payouts,
		marketplaces: marketplaces,
		transactions: transactions,
		balances:     balances,
		logger:       logger,
	}
}

// RequestPayout creates a draft payout for the seller's full withdrawable
// balance of the given (marketplace, token) pair. The amount is fixed here;
// further sales confirmed afterwards accrue to the next payout.
func (s *Service) RequestPayout(ctx context.Context, sellerID, marketplaceID, tokenID uuid.UUID, walletAddress string) (*entities.Payout, error) {
	if walletAddress == "" {
		return nil, apperrors.ValidationError("wallet_address", "wallet address is required")
	}

	marketplace, err := s.marketplaces.GetByID(ctx, marketplaceID)
	if err != nil {
		return nil, err
	}
	if marketplace.SellerID != sellerID {
		return nil, apperrors.NotFoundError("marketplace")
	}

	balances, err := s.balances.AvailableBalance(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("compute available balance: %w", err)
	}

	var balance *entities.TokenBalance
	for i := range balances {
		if balances[i].MarketplaceID == marketplaceID && balances[i].TokenID == tokenID {
			balance = &balances[i]
			break
		}
	}
	if balance == nil || !balance.Amount.IsPositive() {
		return nil, apperrors.ConflictError("payout", "no withdrawable balance for token")
	}

	payout := &entities.Payout{
		ID:            uuid.New(),
		SellerID:      sellerID,
		MarketplaceID: marketplaceID,
		NetworkID:     marketplace.NetworkID,
		TokenID:       tokenID,
		WalletAddress: walletAddress,
		Amount:        balance.Amount,
		Decimals:      balance.Decimals,
		Status:        entities.StatusDraft,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.payouts.Create(ctx, payout); err != nil {
		return nil, fmt.Errorf("create payout: %w", err)
	}

	s.logger.Info("Payout requested",
		"payout_id", payout.ID,
		"seller_id", sellerID,
		"amount", payout.Amount.String(),
		"token_id", tokenID,
	)
	return payout, nil
}

// SubmitPayout attaches a settlement transaction for the payout. Only one
// open attempt may exist at a time; a failed attempt can be retried with a
// new hash until the attempt cap is reached.
func (s *Service) SubmitPayout(ctx context.Context, payoutID uuid.UUID, hash, senderAddress string) (*entities.SettlementTransaction, error) {
	if hash == "" {
		return nil, apperrors.ValidationError("hash", "transaction hash is required")
	}

	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}

	txs, err := s.transactions.ListByAggregate(ctx, entities.AggregateKindPayout, payoutID)
	if err != nil {
		return nil, fmt.Errorf("list payout transactions: %w", err)
	}
	if err := entities.GuardNewTransaction(entities.AggregateKindPayout, payout.LifecycleMarkers, txs); err != nil {
		return nil, err
	}

	tx := &entities.SettlementTransaction{
		ID:            uuid.New(),
		AggregateKind: entities.AggregateKindPayout,
		AggregateID:   payoutID,
		NetworkID:     payout.NetworkID,
		Hash:          hash,
		SenderAddress: senderAddress,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("create settlement transaction: %w", err)
	}

	if payout.PendingAt == nil {
		now := time.Now().UTC()
		markers := payout.LifecycleMarkers
		markers.PendingAt = &now
		if err := s.payouts.UpdateLifecycle(ctx, payoutID, markers, entities.StatusAwaitingConfirmation); err != nil {
			return nil, fmt.Errorf("mark payout pending: %w", err)
		}
	} else if err := s.payouts.UpdateLifecycle(ctx, payoutID, payout.LifecycleMarkers, entities.StatusAwaitingConfirmation); err != nil {
		return nil, fmt.Errorf("update payout status: %w", err)
	}

	s.logger.Info("Payout settlement submitted", "payout_id", payoutID, "hash", hash, "attempt", len(txs)+1)
	return tx, nil
}

// CancelPayout cancels a payout, releasing its reserved amount back to the
// withdrawable pool. A payout with a confirmed or in-flight transaction is
// already settled (or about to be) and cannot be cancelled.
func (s *Service) CancelPayout(ctx context.Context, payoutID uuid.UUID) error {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return err
	}
	if payout.CancelledAt != nil {
		return apperrors.ConflictError("payout", "already cancelled")
	}
	if payout.ConfirmedAt != nil {
		return apperrors.ConflictError("payout", "already settled")
	}

	txs, err := s.transactions.ListByAggregate(ctx, entities.AggregateKindPayout, payoutID)
	if err != nil {
		return fmt.Errorf("list payout transactions: %w", err)
	}
	if entities.ConfirmedTransaction(txs) != nil {
		return apperrors.ConflictError("payout", "already settled")
	}
	if entities.OpenTransaction(txs) != nil {
		return apperrors.ConflictError("payout", "settlement in progress")
	}

	now := time.Now().UTC()
	markers := payout.LifecycleMarkers
	markers.CancelledAt = &now
	if err := s.payouts.UpdateLifecycle(ctx, payoutID, markers, entities.StatusCancelled); err != nil {
		return fmt.Errorf("cancel payout: %w", err)
	}

	s.logger.Info("Payout cancelled", "payout_id", payoutID, "amount", payout.Amount.String())
	return nil
}
