package chaindata

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
)

// transactionsResponse is the provider's transaction listing payload.
type transactionsResponse struct {
	Transactions []wireTransaction `json:"transactions"`
}

// wireTransaction is one transaction outcome as serialized by the provider.
// Monetary values come as decimal strings and are never parsed as floats.
type wireTransaction struct {
	Hash          string    `json:"hash"`
	SenderAddress string    `json:"sender_address"`
	AmountPaid    string    `json:"amount_paid"`
	Error         string    `json:"error"`
	Success       bool      `json:"success"`
	TokenAddress  *string   `json:"token_address"`
	Timestamp     time.Time `json:"timestamp"`
	Gas           int64     `json:"gas"`
	GasValue      string    `json:"gas_value"`
}

func (w wireTransaction) toOutcome() (entities.TransactionOutcome, error) {
	amount, err := decimal.NewFromString(w.AmountPaid)
	if err != nil {
		return entities.TransactionOutcome{}, fmt.Errorf("parse amount_paid %q for %s: %w", w.AmountPaid, w.Hash, err)
	}
	gasValue, err := decimal.NewFromString(w.GasValue)
	if err != nil {
		return entities.TransactionOutcome{}, fmt.Errorf("parse gas_value %q for %s: %w", w.GasValue, w.Hash, err)
	}

	tokenAddress := ""
	if w.TokenAddress != nil {
		tokenAddress = *w.TokenAddress
	}

	return entities.TransactionOutcome{
		Hash:          w.Hash,
		SenderAddress: w.SenderAddress,
		AmountPaid:    amount,
		Error:         w.Error,
		Success:       w.Success,
		TokenAddress:  tokenAddress,
		Timestamp:     w.Timestamp,
		Gas:           w.Gas,
		GasValue:      gasValue,
	}, nil
}
