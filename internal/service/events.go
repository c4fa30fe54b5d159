package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketEvent is published after a committed market mutation.
type MarketEvent struct {
	Type      string          `json:"type"`
	Ticker    string          `json:"ticker"`
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount,omitempty"`
	Price     decimal.Decimal `json:"price"`
	NewPrice  decimal.Decimal `json:"new_price"`
	Supply    decimal.Decimal `json:"supply"`
	Volume    decimal.Decimal `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

const (
	EventCoinCreated = "coin_created"
	EventTrade       = "trade"
)

// MarketFeed receives market events. Publish must not block.
type MarketFeed interface {
	Publish(ev MarketEvent)
}
