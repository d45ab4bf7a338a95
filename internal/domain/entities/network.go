package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Network is a blockchain network the marketplace settles on.
type Network struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	ChainID        int64           `db:"chain_id" json:"chain_id"`
	Name           string          `db:"name" json:"name"`
	Currency       string          `db:"currency" json:"currency"`
	CommissionRate decimal.Decimal `db:"commission_rate" json:"commission_rate"`
	Enabled        bool            `db:"enabled" json:"enabled"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// Token is a payment token accepted on a network. An empty ContractAddress
// means the network's native currency.
type Token struct {
	ID              uuid.UUID `db:"id" json:"id"`
	NetworkID       uuid.UUID `db:"network_id" json:"network_id"`
	Symbol          string    `db:"symbol" json:"symbol"`
	ContractAddress string    `db:"contract_address" json:"contract_address"`
	Decimals        int32     `db:"decimals" json:"decimals"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
