package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Marketplace is a seller's storefront on a network. Activation is settled
// on-chain: the marketplace is an aggregate of kind marketplace_activation
// and has no cancel path.
type Marketplace struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	SellerID       uuid.UUID       `db:"seller_id" json:"seller_id"`
	NetworkID      uuid.UUID       `db:"network_id" json:"network_id"`
	Name           string          `db:"name" json:"name"`
	CommissionRate decimal.Decimal `db:"commission_rate" json:"commission_rate"`
	LifecycleMarkers
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Product is an item listed on a marketplace, priced in one of the
// network's tokens.
type Product struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	MarketplaceID uuid.UUID       `db:"marketplace_id" json:"marketplace_id"`
	SellerID      uuid.UUID       `db:"seller_id" json:"seller_id"`
	TokenID       uuid.UUID       `db:"token_id" json:"token_id"`
	Name          string          `db:"name" json:"name"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Active        bool            `db:"active" json:"active"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// ProductOffer is the denormalized view of a product needed to open a
// purchase order: the price, the payment token and the commission snapshot.
type ProductOffer struct {
	ProductID      uuid.UUID       `db:"product_id" json:"product_id"`
	SellerID       uuid.UUID       `db:"seller_id" json:"seller_id"`
	MarketplaceID  uuid.UUID       `db:"marketplace_id" json:"marketplace_id"`
	NetworkID      uuid.UUID       `db:"network_id" json:"network_id"`
	TokenID        uuid.UUID       `db:"token_id" json:"token_id"`
	TokenSymbol    string          `db:"token_symbol" json:"token_symbol"`
	TokenContract  string          `db:"token_contract" json:"token_contract"`
	TokenDecimals  int32           `db:"token_decimals" json:"token_decimals"`
	Price          decimal.Decimal `db:"price" json:"price"`
	CommissionRate decimal.Decimal `db:"commission_rate" json:"commission_rate"`
}
