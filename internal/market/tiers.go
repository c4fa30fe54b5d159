package market

import (
	"crypto_tycoon/internal/domain"

	"github.com/shopspring/decimal"
)

// TierInfo is the creation cost and fee schedule of a coin tier.
type TierInfo struct {
	Tier       domain.Tier     `json:"tier"`
	Cost       decimal.Decimal `json:"cost"`
	RoyaltyFee decimal.Decimal `json:"royalty_fee"`
	BotFee     decimal.Decimal `json:"bot_fee"`
}

// TierTable is static configuration handed to the trade engine.
type TierTable map[domain.Tier]TierInfo

// DefaultTiers returns the standard Bronze/Silver/Gold schedule.
func DefaultTiers() TierTable {
	return TierTable{
		domain.TierBronze: {
			Tier:       domain.TierBronze,
			Cost:       decimal.NewFromInt(10000),
			RoyaltyFee: decimal.RequireFromString("0.005"),
			BotFee:     decimal.RequireFromString("0.01"),
		},
		domain.TierSilver: {
			Tier:       domain.TierSilver,
			Cost:       decimal.NewFromInt(50000),
			RoyaltyFee: decimal.RequireFromString("0.015"),
			BotFee:     decimal.RequireFromString("0.005"),
		},
		domain.TierGold: {
			Tier:       domain.TierGold,
			Cost:       decimal.NewFromInt(200000),
			RoyaltyFee: decimal.RequireFromString("0.05"),
			BotFee:     decimal.RequireFromString("0.002"),
		},
	}
}

func (t TierTable) Lookup(tier domain.Tier) (TierInfo, error) {
	info, ok := t[tier]
	if !ok {
		return TierInfo{}, domain.ErrUnknownTier
	}
	return info, nil
}

// Sorted returns the tiers ordered by cost, cheapest first.
func (t TierTable) Sorted() []TierInfo {
	out := make([]TierInfo, 0, len(t))
	for _, info := range t {
		out = append(out, info)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Cost.LessThan(out[j-1].Cost); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
