package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSale records the financial split of a confirmed purchase. It is
// created exactly once, when the order's transaction confirms, and is
// immutable afterwards. SellerIncome + PlatformIncome always equals the
// order price exactly.
type ProductSale struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	OrderID        uuid.UUID       `db:"order_id" json:"order_id"`
	SellerID       uuid.UUID       `db:"seller_id" json:"seller_id"`
	ProductID      uuid.UUID       `db:"product_id" json:"product_id"`
	MarketplaceID  uuid.UUID       `db:"marketplace_id" json:"marketplace_id"`
	TokenID        uuid.UUID       `db:"token_id" json:"token_id"`
	TransactionID  uuid.UUID       `db:"transaction_id" json:"transaction_id"`
	SellerIncome   decimal.Decimal `db:"seller_income" json:"seller_income"`
	PlatformIncome decimal.Decimal `db:"platform_income" json:"platform_income"`
	Decimals       int32           `db:"decimals" json:"decimals"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
