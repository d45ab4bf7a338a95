// Package reconciliation polls network data providers for the outcomes of
// open settlement transactions and applies them to marketplace activations,
// purchase orders and payouts.
package reconciliation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
	"github.com/bazaar-service/bazaar_service/internal/domain/services/settlement"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

// NetworkRepository resolves networks.
type NetworkRepository interface {
	GetByChainID(ctx context.Context, chainID int64) (*entities.Network, error)
}

// TransactionRepository provides the open transactions of a network and the
// full transaction history of an aggregate.
type TransactionRepository interface {
	ListOpenSettlement(ctx context.Context, networkID uuid.UUID) ([]*entities.SettlementTransaction, error)
	ListOpenOrders(ctx context.Context, networkID uuid.UUID) ([]*entities.SettlementTransaction, error)
	ListByAggregate(ctx context.Context, kind entities.AggregateKind, aggregateID uuid.UUID) ([]*entities.SettlementTransaction, error)
}

// AggregateRepository reads the lifecycle markers of activation and payout
// aggregates.
type AggregateRepository interface {
	GetMarkers(ctx context.Context, kind entities.AggregateKind, id uuid.UUID) (entities.LifecycleMarkers, error)
}

// OrderRepository loads purchase orders for cross-validation and sale
// materialization.
type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.PurchaseOrder, error)
}

// SaleRepository guards sale creation idempotency.
type SaleRepository interface {
	ExistsForTransaction(ctx context.Context, transactionID uuid.UUID) (bool, error)
}

// OutcomeUpdate is one atomic unit of reconciliation work: the transaction
// outcome, the aggregate's new markers and status, and the sale to create
// for a confirmed purchase (nil otherwise).
type OutcomeUpdate struct {
	Transaction *entities.SettlementTransaction
	Kind        entities.AggregateKind
	AggregateID uuid.UUID
	Markers     entities.LifecycleMarkers
	Status      entities.Status
	Sale        *entities.ProductSale
}

// SettlementStore persists one OutcomeUpdate atomically. Sale creation must
// be idempotent on the confirming transaction id.
type SettlementStore interface {
	ApplyOutcome(ctx context.Context, update *OutcomeUpdate) error
}

// ChainDataClient reads transaction outcomes from a network's data provider.
type ChainDataClient interface {
	GetTransactions(ctx context.Context, network *entities.Network) ([]entities.TransactionOutcome, error)
}

// ChainDataRegistry resolves the data client registered for a chain id.
type ChainDataRegistry interface {
	ClientFor(chainID int64) (ChainDataClient, error)
}

// OrderChainClient reads the authoritative order record from the
// marketplace contract.
type OrderChainClient interface {
	GetOrder(ctx context.Context, network *entities.Network, orderReference string) (*entities.OnChainOrder, error)
}

// OrderChainRegistry resolves the marketplace chain client for a chain id.
type OrderChainRegistry interface {
	ClientFor(chainID int64) (OrderChainClient, error)
}

// Locker serializes reconciliation passes per network. Acquire returns an
// ownership token and false when another pass holds the lock; Release is a
// no-op unless the token still owns the lock.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	Release(ctx context.Context, key, token string) error
}

// Metrics records reconciliation observability counters.
type Metrics interface {
	RecordRun(network string)
	RecordOutcome(kind entities.AggregateKind, confirmed bool)
	RecordUnitFailure(kind entities.AggregateKind)
	RecordPassDuration(network string, d time.Duration)
}

// Service is the blockchain reconciler.
type Service struct {
	networks     NetworkRepository
	transactions TransactionRepository
	aggregates   AggregateRepository
	orders       OrderRepository
	sales        SaleRepository
	store        SettlementStore
	chainData    ChainDataRegistry
	orderChain   OrderChainRegistry
	locker       Locker
	metrics      Metrics
	logger       *logger.Logger
	lockTTL      time.Duration
}

// NewService creates a reconciliation service.
func NewService(
	networks NetworkRepository,
	transactions TransactionRepository,
	aggregates AggregateRepository,
	orders OrderRepository,
	sales SaleRepository,
	store SettlementStore,
	chainData ChainDataRegistry,
	orderChain OrderChainRegistry,
	locker Locker,
	metrics Metrics,
	logger *logger.Logger,
	lockTTL time.Duration,
) *Service {
	if lockTTL == 0 {
		lockTTL = 5 * time.Minute
	}
	return &Service{
		networks:     networks,
		transactions: transactions,
		aggregates:   aggregates,
		orders:       orders,
		sales:        sales,
		store:        store,
		chainData:    chainData,
		orderChain:   orderChain,
		locker:       locker,
		metrics:      metrics,
		logger:       logger,
		lockTTL:      lockTTL,
	}
}

// ReconcileNetwork runs one reconciliation pass for the network with the
// given chain id. The pass is idempotent: transactions whose outcome is not
// yet known stay open and are retried on the next call. Passes for the same
// network are serialized by a per-network lock; a held lock yields a
// conflict error and no work.
func (s *Service) ReconcileNetwork(ctx context.Context, chainID int64) error {
	ctx, span := otel.Tracer("reconciliation.service").Start(ctx, "ReconcileNetwork")
	defer span.End()
	span.SetAttributes(attribute.Int64("chain_id", chainID))

	if chainID <= 0 {
		return apperrors.ValidationError("chain_id", "chain id must be a positive integer")
	}

	network, err := s.networks.GetByChainID(ctx, chainID)
	if err != nil {
		return err
	}

	lockKey := fmt.Sprintf("reconcile:network:%d", chainID)
	lockToken, acquired, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		return fmt.Errorf("acquire reconciliation lock: %w", err)
	}
	if !acquired {
		return apperrors.ConflictError("reconciliation", "pass already running for network")
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey, lockToken); err != nil {
			s.logger.Warn("Failed to release reconciliation lock", "key", lockKey, "error", err)
		}
	}()

	client, err := s.chainData.ClientFor(chainID)
	if err != nil {
		return apperrors.InternalError(fmt.Sprintf("no blockchain data client registered for chain %d", chainID), err)
	}

	settlementTxs, err := s.transactions.ListOpenSettlement(ctx, network.ID)
	if err != nil {
		return fmt.Errorf("list open settlement transactions: %w", err)
	}
	orderTxs, err := s.transactions.ListOpenOrders(ctx, network.ID)
	if err != nil {
		return fmt.Errorf("list open order transactions: %w", err)
	}
	if len(settlementTxs) == 0 && len(orderTxs) == 0 {
		s.logger.Debug("No open transactions, skipping provider poll", "network", network.Name)
		return nil
	}

	start := time.Now()
	s.metrics.RecordRun(network.Name)
	s.logger.Info("Starting reconciliation pass",
		"network", network.Name,
		"chain_id", chainID,
		"open_settlements", len(settlementTxs),
		"open_orders", len(orderTxs),
	)

	// A provider failure aborts the whole pass; everything still open is
	// retried on the next tick.
	outcomes, err := client.GetTransactions(ctx, network)
	if err != nil {
		return fmt.Errorf("fetch transaction outcomes for chain %d: %w", chainID, err)
	}
	byHash := entities.OutcomesByHash(outcomes)

	var failedUnits int
	for _, tx := range settlementTxs {
		outcome, ok := byHash[strings.ToLower(tx.Hash)]
		if !ok {
			continue // not yet indexed by the provider
		}
		if err := s.applySettlementOutcome(ctx, tx, outcome); err != nil {
			failedUnits++
			s.metrics.RecordUnitFailure(tx.AggregateKind)
			s.logger.Error("Failed to apply settlement outcome",
				"kind", tx.AggregateKind,
				"aggregate_id", tx.AggregateID,
				"hash", tx.Hash,
				"error", err,
			)
		}
	}

	for _, tx := range orderTxs {
		outcome, ok := byHash[strings.ToLower(tx.Hash)]
		if !ok {
			continue
		}
		if err := s.applyOrderOutcome(ctx, tx, network, outcome); err != nil {
			failedUnits++
			s.metrics.RecordUnitFailure(entities.AggregateKindPurchaseOrder)
			s.logger.Error("Failed to apply order outcome",
				"order_id", tx.AggregateID,
				"hash", tx.Hash,
				"error", err,
			)
		}
	}

	s.metrics.RecordPassDuration(network.Name, time.Since(start))
	s.logger.Info("Reconciliation pass completed",
		"network", network.Name,
		"duration", time.Since(start),
		"failed_units", failedUnits,
	)
	return nil
}

// applySettlementOutcome applies an outcome to an activation or payout
// transaction: it populates the transaction's outcome fields, re-derives
// the aggregate status and persists both atomically.
func (s *Service) applySettlementOutcome(ctx context.Context, tx *entities.SettlementTransaction, outcome entities.TransactionOutcome) error {
	markers, err := s.aggregates.GetMarkers(ctx, tx.AggregateKind, tx.AggregateID)
	if err != nil {
		return fmt.Errorf("load aggregate markers: %w", err)
	}

	siblings, err := s.transactions.ListByAggregate(ctx, tx.AggregateKind, tx.AggregateID)
	if err != nil {
		return fmt.Errorf("load aggregate transactions: %w", err)
	}

	update, err := buildOutcomeUpdate(tx, markers, siblings, outcome)
	if err != nil {
		return err
	}

	if err := s.store.ApplyOutcome(ctx, update); err != nil {
		return fmt.Errorf("persist outcome: %w", err)
	}

	s.metrics.RecordOutcome(tx.AggregateKind, outcome.Success)
	s.logger.Info("Settlement transaction reconciled",
		"kind", tx.AggregateKind,
		"aggregate_id", tx.AggregateID,
		"hash", tx.Hash,
		"success", outcome.Success,
		"status", update.Status,
	)
	return nil
}

// applyOrderOutcome applies an outcome to a purchase order transaction. A
// successful outcome is cross-validated against the authoritative on-chain
// order record before it is trusted; only then is the income split computed
// and a sale materialized, exactly once per confirming transaction.
func (s *Service) applyOrderOutcome(ctx context.Context, tx *entities.SettlementTransaction, network *entities.Network, outcome entities.TransactionOutcome) error {
	order, err := s.orders.GetByID(ctx, tx.AggregateID)
	if err != nil {
		return fmt.Errorf("load purchase order: %w", err)
	}

	siblings, err := s.transactions.ListByAggregate(ctx, entities.AggregateKindPurchaseOrder, order.ID)
	if err != nil {
		return fmt.Errorf("load order transactions: %w", err)
	}

	if outcome.Success {
		if err := s.crossValidateOrder(ctx, network, order); err != nil {
			return err
		}
	}

	update, err := buildOutcomeUpdate(tx, order.LifecycleMarkers, siblings, outcome)
	if err != nil {
		return err
	}

	if outcome.Success {
		sale, err := s.buildSale(ctx, order, update.Transaction)
		if err != nil {
			return err
		}
		update.Sale = sale
	}

	if err := s.store.ApplyOutcome(ctx, update); err != nil {
		return fmt.Errorf("persist outcome: %w", err)
	}

	s.metrics.RecordOutcome(entities.AggregateKindPurchaseOrder, outcome.Success)
	s.logger.Info("Purchase order reconciled",
		"order_id", order.ID,
		"hash", tx.Hash,
		"success", outcome.Success,
		"status", update.Status,
		"sale_created", update.Sale != nil,
	)
	return nil
}

// crossValidateOrder compares the locally recorded order with the on-chain
// record. A mismatch means the local data does not describe the settled
// trade and must not be confirmed.
func (s *Service) crossValidateOrder(ctx context.Context, network *entities.Network, order *entities.PurchaseOrder) error {
	client, err := s.orderChain.ClientFor(network.ChainID)
	if err != nil {
		return apperrors.InternalError(fmt.Sprintf("no marketplace chain client registered for chain %d", network.ChainID), err)
	}

	onchain, err := client.GetOrder(ctx, network, order.OrderReference)
	if err != nil {
		return fmt.Errorf("fetch on-chain order %s: %w", order.OrderReference, err)
	}

	if !strings.EqualFold(onchain.BuyerAddress, order.BuyerWallet) {
		return apperrors.InternalError("on-chain buyer does not match recorded order", nil).WithDetails(map[string]interface{}{
			"order_id":       order.ID.String(),
			"onchain_buyer":  onchain.BuyerAddress,
			"recorded_buyer": order.BuyerWallet,
		})
	}
	if !strings.EqualFold(onchain.PaymentContract, order.PaymentContract) {
		return apperrors.InternalError("on-chain payment contract does not match recorded order", nil).WithDetails(map[string]interface{}{
			"order_id":          order.ID.String(),
			"onchain_contract":  onchain.PaymentContract,
			"recorded_contract": order.PaymentContract,
		})
	}
	if !onchain.Price.Equal(order.PriceBaseUnits()) {
		return apperrors.InternalError("on-chain price does not match recorded order", nil).WithDetails(map[string]interface{}{
			"order_id":       order.ID.String(),
			"onchain_price":  onchain.Price.String(),
			"recorded_price": order.PriceBaseUnits().String(),
		})
	}
	return nil
}

// buildSale computes the income split and prepares the sale record. When a
// sale already exists for the confirming transaction the pass is a replay
// and no new sale is created.
func (s *Service) buildSale(ctx context.Context, order *entities.PurchaseOrder, tx *entities.SettlementTransaction) (*entities.ProductSale, error) {
	exists, err := s.sales.ExistsForTransaction(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("check sale existence: %w", err)
	}
	if exists {
		return nil, nil
	}

	sellerIncome, platformIncome, err := settlement.Split(order.Price, order.CommissionRate, order.Decimals)
	if err != nil {
		return nil, err
	}

	return &entities.ProductSale{
		ID:             uuid.New(),
		OrderID:        order.ID,
		SellerID:       order.SellerID,
		ProductID:      order.ProductID,
		MarketplaceID:  order.MarketplaceID,
		TokenID:        order.TokenID,
		TransactionID:  tx.ID,
		SellerIncome:   sellerIncome,
		PlatformIncome: platformIncome,
		Decimals:       order.Decimals,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// buildOutcomeUpdate copies the provider outcome onto the transaction,
// updates the aggregate markers and re-derives the status against the
// updated transaction set.
func buildOutcomeUpdate(tx *entities.SettlementTransaction, markers entities.LifecycleMarkers, siblings []*entities.SettlementTransaction, outcome entities.TransactionOutcome) (*OutcomeUpdate, error) {
	if confirmed := entities.ConfirmedTransaction(siblings); confirmed != nil && confirmed.ID != tx.ID {
		return nil, apperrors.InvariantError(string(tx.AggregateKind), entities.ReasonMultipleConfirmedTransactions)
	}

	updated := *tx
	updated.SenderAddress = outcome.SenderAddress
	updated.Gas = outcome.Gas
	updated.Fee.Decimal = outcome.GasValue
	updated.Fee.Valid = true

	ts := outcome.Timestamp
	if outcome.Success {
		updated.ConfirmedAt = &ts
		updated.BlockchainError = ""
		markers.ConfirmedAt = &ts
	} else {
		updated.FailedAt = &ts
		updated.BlockchainError = outcome.Error
	}

	// Re-derive against the transaction set as it will be after the update.
	derived := make([]*entities.SettlementTransaction, 0, len(siblings))
	replaced := false
	for _, sibling := range siblings {
		if sibling.ID == updated.ID {
			derived = append(derived, &updated)
			replaced = true
			continue
		}
		derived = append(derived, sibling)
	}
	if !replaced {
		derived = append(derived, &updated)
	}

	status, err := entities.DeriveStatus(updated.AggregateKind, markers, derived)
	if err != nil {
		return nil, err
	}

	return &OutcomeUpdate{
		Transaction: &updated,
		Kind:        updated.AggregateKind,
		AggregateID: updated.AggregateID,
		Markers:     markers,
		Status:      status,
	}, nil
}
