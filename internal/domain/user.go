package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID             int64           `db:"id" json:"id"`
	Username       string          `db:"username" json:"username"`
	Balance        decimal.Decimal `db:"balance" json:"balance"`
	VIP            bool            `db:"vip" json:"vip"`
	Title          string          `db:"title" json:"title,omitempty"`
	TotalRoyalties decimal.Decimal `db:"total_royalties" json:"total_royalties"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// DisplayName returns @username when known, otherwise the numeric id.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return "id" + strconv.FormatInt(u.ID, 10)
}
