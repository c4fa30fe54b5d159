package market

import (
	"crypto_tycoon/internal/domain"

	"github.com/shopspring/decimal"
)

// MaxScale is the number of fractional digits an amount may carry.
const MaxScale = 8

// maxExponent bounds the exponent before any comparison rescales the value.
const maxExponent = 15

// MaxAmount caps any single amount, price or balance set by an operation.
var MaxAmount = decimal.New(1, maxExponent)

// ValidAmount rejects amounts that are not positive, carry more than
// MaxScale fractional digits or exceed MaxAmount.
func ValidAmount(v decimal.Decimal) error {
	if !v.IsPositive() {
		return domain.ErrInvalidAmount
	}
	return checkBounds(v)
}

// ValidValue is ValidAmount for absolute values, which may be zero.
func ValidValue(v decimal.Decimal) error {
	if v.IsNegative() {
		return domain.ErrInvalidAmount
	}
	return checkBounds(v)
}

// checkBounds looks at the exponent first so that values like 1e-3000000
// are rejected without big-int work.
func checkBounds(v decimal.Decimal) error {
	exp := v.Exponent()
	if exp < -MaxScale || exp > maxExponent {
		return domain.ErrInvalidAmount
	}
	if v.GreaterThan(MaxAmount) {
		return domain.ErrInvalidAmount
	}
	return nil
}
