// Package settlement computes the commission-aware split of a purchase
// price into seller income and platform income.
package settlement

import (
	"github.com/shopspring/decimal"

	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Split divides price between seller and platform. The platform share is
// price * commissionPercent / 100 rounded half-up to the token's decimals;
// the seller share is the remainder, so the two always sum to price exactly.
// All arithmetic is decimal; binary floats would drift at scale.
func Split(price, commissionPercent decimal.Decimal, decimals int32) (seller, platform decimal.Decimal, err error) {
	if price.IsNegative() {
		return decimal.Zero, decimal.Zero, apperrors.ValidationError("price", "price must not be negative")
	}
	if commissionPercent.IsNegative() || commissionPercent.GreaterThan(oneHundred) {
		return decimal.Zero, decimal.Zero, apperrors.ValidationError("commission_rate", "commission must be between 0 and 100")
	}
	if decimals < 0 || decimals > 18 {
		return decimal.Zero, decimal.Zero, apperrors.ValidationError("decimals", "decimals must be between 0 and 18")
	}

	// Shift instead of Div: division rounds to shopspring's default
	// precision before Round sees the quotient, which loses digits at
	// 17-18 decimals. Shifting the exponent is exact.
	platform = price.Mul(commissionPercent).Shift(-2).Round(decimals)
	seller = price.Sub(platform)
	return seller, platform, nil
}
