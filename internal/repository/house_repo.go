package repository

import (
	"context"
	"errors"
	"fmt"

	"crypto_tycoon/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const houseRowID = 1

var errHouseMissing = errors.New("house row missing")

func (t *pgTx) EnsureHouse(ctx context.Context, seed decimal.Decimal) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO house (id, balance) VALUES ($1, $2::numeric) ON CONFLICT (id) DO NOTHING`,
		houseRowID, seed)
	return err
}

func (t *pgTx) LockHouse(ctx context.Context) (decimal.Decimal, error) {
	sql := `SELECT balance FROM house WHERE id = $1`
	if !t.readOnly {
		sql += ` FOR UPDATE`
	}
	var balance decimal.Decimal
	err := t.tx.QueryRow(ctx, sql, houseRowID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, errHouseMissing
	}
	return balance, err
}

func (t *pgTx) AddHouseBalance(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := t.writable(); err != nil {
		return decimal.Zero, err
	}
	var balance decimal.Decimal
	err := t.tx.QueryRow(ctx,
		`UPDATE house SET balance = balance + $1::numeric, updated_at = now()
		 WHERE id = $2 AND balance + $1::numeric >= 0
		 RETURNING balance`,
		delta, houseRowID,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		exists, err := t.exists(ctx, `SELECT EXISTS(SELECT 1 FROM house WHERE id = $1)`, houseRowID)
		if err != nil {
			return decimal.Zero, err
		}
		if !exists {
			return decimal.Zero, errHouseMissing
		}
		return decimal.Zero, domain.ErrHouseInsolvent
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("update house: %w", err)
	}
	return balance, nil
}

func (t *pgTx) SetHouseBalance(ctx context.Context, value decimal.Decimal) error {
	if err := t.writable(); err != nil {
		return err
	}
	if value.IsNegative() {
		return domain.ErrInvalidAmount
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO house (id, balance) VALUES ($1, $2::numeric)
		ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = now()`,
		houseRowID, value)
	return err
}
