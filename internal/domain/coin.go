package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tier - уровень монеты, определяет стоимость выпуска и комиссии
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// ParseTier accepts the tier name in any case ("Gold", "gold").
func ParseTier(s string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierBronze:
		return TierBronze, true
	case TierSilver:
		return TierSilver, true
	case TierGold:
		return TierGold, true
	}
	return "", false
}

// Title returns the tier name as shown to users.
func (t Tier) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

type Coin struct {
	Ticker        string          `db:"ticker" json:"ticker"`
	CreatorID     int64           `db:"creator_id" json:"creator_id"`
	InitialPrice  decimal.Decimal `db:"initial_price" json:"initial_price"`
	CurrentSupply decimal.Decimal `db:"current_supply" json:"current_supply"`
	TotalVolume   decimal.Decimal `db:"total_volume" json:"total_volume"`
	Tier          Tier            `db:"tier" json:"tier"`
	RoyaltyFee    decimal.Decimal `db:"royalty_fee" json:"royalty_fee"`
	BotFee        decimal.Decimal `db:"bot_fee" json:"bot_fee"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Holding is a user's position in one coin. Amount is always positive;
// a position that reaches zero is removed.
type Holding struct {
	UserID int64           `db:"user_id" json:"user_id"`
	Ticker string          `db:"ticker" json:"ticker"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
}
