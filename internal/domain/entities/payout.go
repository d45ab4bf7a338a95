package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payout is a seller's request to withdraw accumulated token balance. Its
// amount is fixed at creation from the seller's withdrawable balance;
// cancelling the payout releases the reserved amount back to the pool.
type Payout struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	SellerID      uuid.UUID       `db:"seller_id" json:"seller_id"`
	MarketplaceID uuid.UUID       `db:"marketplace_id" json:"marketplace_id"`
	NetworkID     uuid.UUID       `db:"network_id" json:"network_id"`
	TokenID       uuid.UUID       `db:"token_id" json:"token_id"`
	WalletAddress string          `db:"wallet_address" json:"wallet_address"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Decimals      int32           `db:"decimals" json:"decimals"`
	LifecycleMarkers
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TokenBalance is one row of a seller's withdrawable balance: confirmed
// seller income minus reserved or paid payouts for a (marketplace, token)
// pair. Zero balances are reported so the seller still sees the token.
type TokenBalance struct {
	MarketplaceID uuid.UUID       `json:"marketplace_id"`
	TokenID       uuid.UUID       `json:"token_id"`
	TokenSymbol   string          `json:"token_symbol"`
	Decimals      int32           `json:"decimals"`
	Amount        decimal.Decimal `json:"amount"`
}

// Formatted renders the balance as "<amount> <symbol>".
func (b TokenBalance) Formatted() string {
	return b.Amount.String() + " " + b.TokenSymbol
}

// IncomeSum is the confirmed seller income aggregated per
// (marketplace, token) pair.
type IncomeSum struct {
	MarketplaceID uuid.UUID       `db:"marketplace_id"`
	TokenID       uuid.UUID       `db:"token_id"`
	TokenSymbol   string          `db:"token_symbol"`
	Decimals      int32           `db:"decimals"`
	Total         decimal.Decimal `db:"total"`
}

// PayoutSum is the payout amount still reserved or already paid, aggregated
// per (marketplace, token) pair. Cancelled payouts are excluded.
type PayoutSum struct {
	MarketplaceID uuid.UUID       `db:"marketplace_id"`
	TokenID       uuid.UUID       `db:"token_id"`
	Total         decimal.Decimal `db:"total"`
}
