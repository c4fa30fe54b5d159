package domain

import "time"

// InventoryItem is a purchased shop item. ExpiresAt is nil for permanent items.
type InventoryItem struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"user_id"`
	Category  string     `db:"category" json:"category"`
	ItemName  string     `db:"item_name" json:"item_name"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

func (i *InventoryItem) Active(now time.Time) bool {
	return i.ExpiresAt == nil || now.Before(*i.ExpiresAt)
}
