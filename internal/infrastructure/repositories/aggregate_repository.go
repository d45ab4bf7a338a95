package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
)

// aggregateTable maps an aggregate kind to the table holding its lifecycle
// markers.
func aggregateTable(kind entities.AggregateKind) (string, error) {
	switch kind {
	case entities.AggregateKindMarketplaceActivation:
		return "marketplaces", nil
	case entities.AggregateKindPurchaseOrder:
		return "purchase_orders", nil
	case entities.AggregateKindPayout:
		return "payouts", nil
	default:
		return "", fmt.Errorf("unknown aggregate kind %q", kind)
	}
}

// AggregateRepository reads lifecycle markers across the three aggregate
// tables.
type AggregateRepository struct {
	db *sqlx.DB
}

// NewAggregateRepository creates an aggregate repository.
func NewAggregateRepository(db *sqlx.DB) *AggregateRepository {
	return &AggregateRepository{db: db}
}

// GetMarkers retrieves the lifecycle markers of an aggregate.
func (r *AggregateRepository) GetMarkers(ctx context.Context, kind entities.AggregateKind, id uuid.UUID) (entities.LifecycleMarkers, error) {
	table, err := aggregateTable(kind)
	if err != nil {
		return entities.LifecycleMarkers{}, err
	}

	// Marketplaces have no refund column; orders are the only aggregates
	// that do.
	refundedCol := "NULL AS refunded_at"
	if kind == entities.AggregateKindPurchaseOrder {
		refundedCol = "refunded_at"
	}
	cancelledCol := "NULL AS cancelled_at"
	if kind != entities.AggregateKindMarketplaceActivation {
		cancelledCol = "cancelled_at"
	}

	query := fmt.Sprintf(`
		SELECT pending_at, confirmed_at, %s, %s
		FROM %s
		WHERE id = $1
	`, cancelledCol, refundedCol, table)

	var markers entities.LifecycleMarkers
	if err := r.db.GetContext(ctx, &markers, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.LifecycleMarkers{}, apperrors.NotFoundError(string(kind))
		}
		return entities.LifecycleMarkers{}, fmt.Errorf("get %s markers: %w", kind, err)
	}
	return markers, nil
}
