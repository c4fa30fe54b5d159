package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingDuel - вызов на дуэль, ожидающий ответа соперника
type PendingDuel struct {
	ID           string          `json:"id"`
	ChallengerID int64           `json:"challenger_id"`
	OpponentID   int64           `json:"opponent_id"`
	Stake        decimal.Decimal `json:"stake"`
	ChatID       int64           `json:"chat_id,omitempty"`
	MessageID    int             `json:"message_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

func (d *PendingDuel) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}
