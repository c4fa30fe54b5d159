package market

import (
	"crypto_tycoon/internal/domain"

	"github.com/shopspring/decimal"
)

const supplyDigits = 3

// SupplyStep is the supply at which the price doubles the initial price.
var SupplyStep = decimal.New(1, supplyDigits)

// Price returns the unit price of a coin at its current supply:
//
//	price = initial_price * (current_supply / 1000 + 1)
//
// It never drops below InitialPrice and never decreases as supply grows.
func Price(c *domain.Coin) decimal.Decimal {
	return PriceAt(c.InitialPrice, c.CurrentSupply)
}

// PriceAt evaluates the curve for an arbitrary supply. Negative supply is
// treated as zero.
func PriceAt(initial, supply decimal.Decimal) decimal.Decimal {
	if supply.IsNegative() {
		supply = decimal.Zero
	}
	// dividing by 1000 is a decimal shift, so the result is exact
	return initial.Mul(supply.Add(SupplyStep)).Shift(-supplyDigits)
}

// Quote is the flat cost of amount tokens at the coin's current price.
// The curve is not integrated over the trade.
func Quote(c *domain.Coin, amount decimal.Decimal) decimal.Decimal {
	return Price(c).Mul(amount)
}

// Fees splits a trade value into the creator royalty and the house fee.
func Fees(c *domain.Coin, value decimal.Decimal) (royalty, houseFee decimal.Decimal) {
	return value.Mul(c.RoyaltyFee), value.Mul(c.BotFee)
}
