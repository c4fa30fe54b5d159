package domain

import "github.com/shopspring/decimal"

type LeaderboardKind string

const (
	LeaderboardBalance   LeaderboardKind = "balance"
	LeaderboardRoyalties LeaderboardKind = "royalties"
	LeaderboardVolume    LeaderboardKind = "volume"
)

func ParseLeaderboardKind(s string) (LeaderboardKind, bool) {
	switch LeaderboardKind(s) {
	case "", LeaderboardBalance:
		return LeaderboardBalance, true
	case LeaderboardRoyalties:
		return LeaderboardRoyalties, true
	case LeaderboardVolume:
		return LeaderboardVolume, true
	}
	return "", false
}

// LeaderboardRow is one ranked entry. User rows fill UserID/Username,
// volume rows fill Ticker. Equity is only set on balance boards.
type LeaderboardRow struct {
	Rank     int              `json:"rank"`
	UserID   int64            `json:"user_id,omitempty"`
	Username string           `json:"username,omitempty"`
	Ticker   string           `json:"ticker,omitempty"`
	Value    decimal.Decimal  `json:"value"`
	Equity   *decimal.Decimal `json:"equity,omitempty"`
}
