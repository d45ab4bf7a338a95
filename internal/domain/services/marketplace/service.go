// Package marketplace manages marketplace activation: a storefront becomes
// usable once its activation transaction confirms on-chain. Activations
// have no cancel path.
package marketplace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

// MarketplaceRepository persists marketplaces.
type MarketplaceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Marketplace, error)
	UpdateLifecycle(ctx context.Context, id uuid.UUID, markers entities.LifecycleMarkers, status entities.Status) error
}

// TransactionRepository persists settlement attempts.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entities.SettlementTransaction) error
	ListByAggregate(ctx context.Context, kind entities.AggregateKind, aggregateID uuid.UUID) ([]*entities.SettlementTransaction, error)
}

// Service handles marketplace activation.
type Service struct {
	marketplaces MarketplaceRepository
	transactions TransactionRepository
	logger       *logger.Logger
}

// NewService creates a marketplace service.
func NewService(marketplaces MarketplaceRepository, transactions TransactionRepository, logger *logger.Logger) *Service {
	return &Service{marketplaces: marketplaces, transactions: transactions, logger: logger}
}

// RequestActivation attaches the on-chain activation transaction for a
// marketplace. Failed activations can be retried with a new hash.
func (s *Service) RequestActivation(ctx context.Context, marketplaceID uuid.UUID, hash, ownerAddress string) (*entities.SettlementTransaction, error) {
	if hash == "" {
		return nil, apperrors.ValidationError("hash", "transaction hash is required")
	}

	marketplace, err := s.marketplaces.GetByID(ctx, marketplaceID)
	if err != nil {
		return nil, err
	}

	txs, err := s.transactions.ListByAggregate(ctx, entities.AggregateKindMarketplaceActivation, marketplaceID)
	if err != nil {
		return nil, fmt.Errorf("list activation transactions: %w", err)
	}
	if err := entities.GuardNewTransaction(entities.AggregateKindMarketplaceActivation, marketplace.LifecycleMarkers, txs); err != nil {
		return nil, err
	}

	tx := &entities.SettlementTransaction{
		ID:            uuid.New(),
		AggregateKind: entities.AggregateKindMarketplaceActivation,
		AggregateID:   marketplaceID,
		NetworkID:     marketplace.NetworkID,
		Hash:          hash,
		SenderAddress: ownerAddress,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("create settlement transaction: %w", err)
	}

	markers := marketplace.LifecycleMarkers
	if markers.PendingAt == nil {
		now := time.Now().UTC()
		markers.PendingAt = &now
	}
	if err := s.marketplaces.UpdateLifecycle(ctx, marketplaceID, markers, entities.StatusAwaitingConfirmation); err != nil {
		return nil, fmt.Errorf("mark marketplace pending: %w", err)
	}

	s.logger.Info("Marketplace activation submitted", "marketplace_id", marketplaceID, "hash", hash)
	return tx, nil
}
