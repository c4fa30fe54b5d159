package domain

import "time"

// AuditLog represents an audit log entry for gambling and admin actions
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryGame    = "game"
	AuditCategoryBalance = "balance"
	AuditCategoryAdmin   = "admin"
	AuditCategoryShop    = "shop"
	AuditCategoryMarket  = "market"
)

// Audit actions
const (
	// Game actions
	AuditActionDuel      = "duel"
	AuditActionHouseDice = "house_dice"
	AuditActionRobbery   = "robbery"

	// Balance actions
	AuditActionTransfer = "transfer"

	// Market actions
	AuditActionCoinCreate = "coin_create"

	// Shop actions
	AuditActionPurchase = "purchase"

	// Admin actions
	AuditActionAdminSetBalance      = "admin_set_balance"
	AuditActionAdminAddBalance      = "admin_add_balance"
	AuditActionAdminSetHouseBalance = "admin_set_house_balance"
)
