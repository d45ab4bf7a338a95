// Package order manages purchase orders: opening them against the catalog,
// attaching settlement transactions and cancelling unsettled orders.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

// CatalogRepository resolves the priced offer for a product.
type CatalogRepository interface {
	GetProductOffer(ctx context.Context, productID uuid.UUID) (*entities.ProductOffer, error)
}

// OrderRepository persists purchase orders.
type OrderRepository interface {
	Create(ctx context.Context, order *entities.PurchaseOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.PurchaseOrder, error)
	UpdateLifecycle(ctx context.Context, id uuid.UUID, markers entities.LifecycleMarkers, status entities.Status) error
}

// TransactionRepository persists settlement attempts.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entities.SettlementTransaction) error
	ListByAggregate(ctx context.Context, kind entities.AggregateKind, aggregateID uuid.UUID) ([]*entities.SettlementTransaction, error)
}

// Service handles purchase order operations.
type Service struct {
	catalog      CatalogRepository
	orders       OrderRepository
	transactions TransactionRepository
	logger       *logger.Logger
}

// NewService creates an order service.
func NewService(catalog CatalogRepository, orders OrderRepository, transactions TransactionRepository, logger *logger.Logger) *Service {
	return &Service{
		catalog:      catalog,
		orders:       orders,
		transactions: transactions,
		logger:       logger,
	}
}

// CreateOrder opens a draft purchase order for a product. Price, commission
// rate, token decimals and payment contract are snapshotted from the
// catalog so the settlement math is immune to later listing changes.
func (s *Service) CreateOrder(ctx context.Context, buyerID, productID uuid.UUID, orderReference, buyerWallet string) (*entities.PurchaseOrder, error) {
	if orderReference == "" {
		return nil, apperrors.ValidationError("order_reference", "order reference is required")
	}
	if buyerWallet == "" {
		return nil, apperrors.ValidationError("buyer_wallet", "buyer wallet is required")
	}

	offer, err := s.catalog.GetProductOffer(ctx, productID)
	if err != nil {
		return nil, err
	}
	if offer.SellerID == buyerID {
		return nil, apperrors.ConflictError("purchase_order", "seller cannot buy own product")
	}

	order := &entities.PurchaseOrder{
		ID:              uuid.New(),
		BuyerID:         buyerID,
		SellerID:        offer.SellerID,
		ProductID:       offer.ProductID,
		MarketplaceID:   offer.MarketplaceID,
		NetworkID:       offer.NetworkID,
		TokenID:         offer.TokenID,
		OrderReference:  orderReference,
		BuyerWallet:     buyerWallet,
		PaymentContract: offer.TokenContract,
		Price:           offer.Price,
		CommissionRate:  offer.CommissionRate,
		Decimals:        offer.TokenDecimals,
		Status:          entities.StatusDraft,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("Purchase order created",
		"order_id", order.ID,
		"buyer_id", buyerID,
		"product_id", productID,
		"price", order.Price.String(),
	)
	return order, nil
}

// SubmitOrder attaches a settlement transaction for the order. The same
// attachment rules apply as for payouts: one open attempt at a time,
// settled orders reject further attempts, retries are capped.
func (s *Service) SubmitOrder(ctx context.Context, orderID uuid.UUID, hash, senderAddress string) (*entities.SettlementTransaction, error) {
	if hash == "" {
		return nil, apperrors.ValidationError("hash", "transaction hash is required")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	txs, err := s.transactions.ListByAggregate(ctx, entities.AggregateKindPurchaseOrder, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order transactions: %w", err)
	}
	if err := entities.GuardNewTransaction(entities.AggregateKindPurchaseOrder, order.LifecycleMarkers, txs); err != nil {
		return nil, err
	}

	tx := &entities.SettlementTransaction{
		ID:            uuid.New(),
		AggregateKind: entities.AggregateKindPurchaseOrder,
		AggregateID:   orderID,
		NetworkID:     order.NetworkID,
		Hash:          hash,
		SenderAddress: senderAddress,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("create settlement transaction: %w", err)
	}

	markers := order.LifecycleMarkers
	if markers.PendingAt == nil {
		now := time.Now().UTC()
		markers.PendingAt = &now
	}
	if err := s.orders.UpdateLifecycle(ctx, orderID, markers, entities.StatusAwaitingConfirmation); err != nil {
		return nil, fmt.Errorf("mark order pending: %w", err)
	}

	s.logger.Info("Order settlement submitted", "order_id", orderID, "hash", hash, "attempt", len(txs)+1)
	return tx, nil
}

// CancelOrder cancels an unsettled order. An order with a confirmed
// transaction is already settled; callers get a conflict rather than a
// not-found so they can render "already settled".
func (s *Service) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.CancelledAt != nil {
		return apperrors.ConflictError("purchase_order", "already cancelled")
	}
	if order.ConfirmedAt != nil || order.RefundedAt != nil {
		return apperrors.ConflictError("purchase_order", "already settled")
	}

	txs, err := s.transactions.ListByAggregate(ctx, entities.AggregateKindPurchaseOrder, orderID)
	if err != nil {
		return fmt.Errorf("list order transactions: %w", err)
	}
	if entities.ConfirmedTransaction(txs) != nil {
		return apperrors.ConflictError("purchase_order", "already settled")
	}
	if entities.OpenTransaction(txs) != nil {
		return apperrors.ConflictError("purchase_order", "settlement in progress")
	}

	now := time.Now().UTC()
	markers := order.LifecycleMarkers
	markers.CancelledAt = &now
	if err := s.orders.UpdateLifecycle(ctx, orderID, markers, entities.StatusCancelled); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	s.logger.Info("Purchase order cancelled", "order_id", orderID)
	return nil
}
