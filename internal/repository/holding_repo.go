package repository

import (
	"context"
	"errors"

	"crypto_tycoon/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func (t *pgTx) GetHolding(ctx context.Context, userID int64, ticker string) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := t.tx.QueryRow(ctx,
		`SELECT amount FROM holdings WHERE user_id = $1 AND ticker = $2`,
		userID, ticker,
	).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	return amount, err
}

func (t *pgTx) AdjustHolding(ctx context.Context, userID int64, ticker string, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := t.writable(); err != nil {
		return decimal.Zero, err
	}

	var current decimal.Decimal
	err := t.tx.QueryRow(ctx,
		`SELECT amount FROM holdings WHERE user_id = $1 AND ticker = $2 FOR UPDATE`,
		userID, ticker,
	).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, err
	}

	next := current.Add(delta)
	switch {
	case next.IsNegative():
		return current, domain.ErrInsufficientHoldings
	case next.IsZero():
		_, err = t.tx.Exec(ctx, `DELETE FROM holdings WHERE user_id = $1 AND ticker = $2`, userID, ticker)
	default:
		_, err = t.tx.Exec(ctx, `
			INSERT INTO holdings (user_id, ticker, amount) VALUES ($1, $2, $3::numeric)
			ON CONFLICT (user_id, ticker) DO UPDATE SET amount = EXCLUDED.amount`,
			userID, ticker, next)
	}
	if err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

func (t *pgTx) ListHoldings(ctx context.Context, userID int64) ([]domain.Holding, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT user_id, ticker, amount FROM holdings WHERE user_id = $1 AND amount > 0 ORDER BY ticker`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.UserID, &h.Ticker, &h.Amount); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

func (t *pgTx) SumHoldings(ctx context.Context, ticker string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM holdings WHERE ticker = $1`, ticker).Scan(&sum)
	return sum, err
}
