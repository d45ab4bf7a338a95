package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder is a buyer's on-chain purchase of a product. Price,
// commission rate and token details are snapshotted at creation so later
// catalog changes cannot alter the settlement math.
type PurchaseOrder struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	BuyerID         uuid.UUID       `db:"buyer_id" json:"buyer_id"`
	SellerID        uuid.UUID       `db:"seller_id" json:"seller_id"`
	ProductID       uuid.UUID       `db:"product_id" json:"product_id"`
	MarketplaceID   uuid.UUID       `db:"marketplace_id" json:"marketplace_id"`
	NetworkID       uuid.UUID       `db:"network_id" json:"network_id"`
	TokenID         uuid.UUID       `db:"token_id" json:"token_id"`
	OrderReference  string          `db:"order_reference" json:"order_reference"`
	BuyerWallet     string          `db:"buyer_wallet" json:"buyer_wallet"`
	PaymentContract string          `db:"payment_contract" json:"payment_contract"`
	Price           decimal.Decimal `db:"price" json:"price"`
	CommissionRate  decimal.Decimal `db:"commission_rate" json:"commission_rate"`
	Decimals        int32           `db:"decimals" json:"decimals"`
	LifecycleMarkers
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PriceBaseUnits returns the order price shifted into the token's base
// units, the representation the chain reports.
func (o *PurchaseOrder) PriceBaseUnits() decimal.Decimal {
	return o.Price.Shift(o.Decimals)
}
