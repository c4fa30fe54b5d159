package repository

import (
	"context"

	"crypto_tycoon/internal/domain"
)

func (t *pgTx) AppendTransaction(ctx context.Context, tr *domain.Transaction) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.tx.QueryRow(ctx, `
		INSERT INTO transactions (user_id, ticker, kind, amount, price)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric)
		RETURNING id, created_at`,
		tr.UserID, tr.Ticker, string(tr.Kind), tr.Amount, tr.Price,
	).Scan(&tr.ID, &tr.CreatedAt)
}

// ListTransactions returns the user's most recent trades first
func (t *pgTx) ListTransactions(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, user_id, ticker, kind, amount, price, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Transaction
	for rows.Next() {
		var tr domain.Transaction
		var kind string
		if err := rows.Scan(&tr.ID, &tr.UserID, &tr.Ticker, &kind, &tr.Amount, &tr.Price, &tr.CreatedAt); err != nil {
			return nil, err
		}
		tr.Kind = domain.TradeKind(kind)
		res = append(res, &tr)
	}
	return res, rows.Err()
}
