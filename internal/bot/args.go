package bot

import (
	"strings"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/market"

	"github.com/shopspring/decimal"
)

// parseAmount reads a positive decimal within market.ValidAmount bounds.
// Commas are accepted as the decimal separator.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil || market.ValidAmount(d) != nil {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return d, nil
}

// parseValue is parseAmount that also accepts zero, for admin setters.
func parseValue(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil || market.ValidValue(d) != nil {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return d, nil
}

// parseMention strips a leading @. Empty means no target.
func parseMention(s string) (string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(s), "@")
	if name == "" {
		return "", domain.ErrInvalidTarget
	}
	return name, nil
}

// amountAndMention accepts "<amount> @user" in either order.
func amountAndMention(args []string) (decimal.Decimal, string, error) {
	if len(args) != 2 {
		return decimal.Zero, "", domain.ErrInvalidTarget
	}
	a, m := args[0], args[1]
	if strings.HasPrefix(a, "@") {
		a, m = m, a
	}
	amount, err := parseAmount(a)
	if err != nil {
		return decimal.Zero, "", err
	}
	name, err := parseMention(m)
	if err != nil {
		return decimal.Zero, "", err
	}
	return amount, name, nil
}
