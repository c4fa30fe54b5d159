package repository

import (
	"context"

	"crypto_tycoon/internal/domain"
)

func (t *pgTx) AddInventory(ctx context.Context, item *domain.InventoryItem) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.tx.QueryRow(ctx, `
		INSERT INTO inventory (user_id, category, item_name, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		item.UserID, item.Category, item.ItemName, item.ExpiresAt,
	).Scan(&item.ID, &item.CreatedAt)
}

// ListInventory returns items that have not expired yet
func (t *pgTx) ListInventory(ctx context.Context, userID int64) ([]*domain.InventoryItem, error) {
	return t.queryInventory(ctx, `
		SELECT id, user_id, category, item_name, expires_at, created_at
		FROM inventory
		WHERE user_id = $1 AND (expires_at IS NULL OR expires_at > now())
		ORDER BY id`, userID)
}

func (t *pgTx) ListActiveByCategory(ctx context.Context, category string) ([]*domain.InventoryItem, error) {
	return t.queryInventory(ctx, `
		SELECT id, user_id, category, item_name, expires_at, created_at
		FROM inventory
		WHERE category = $1 AND (expires_at IS NULL OR expires_at > now())
		ORDER BY id`, category)
}

func (t *pgTx) queryInventory(ctx context.Context, sql string, args ...any) ([]*domain.InventoryItem, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.InventoryItem
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.Category, &item.ItemName, &item.ExpiresAt, &item.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &item)
	}
	return res, rows.Err()
}
