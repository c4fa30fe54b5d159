package repository

import (
	"context"
	"errors"

	"crypto_tycoon/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const coinColumns = `ticker, creator_id, initial_price, current_supply, total_volume, tier, royalty_fee, bot_fee, created_at`

func scanCoin(row pgx.Row) (*domain.Coin, error) {
	var c domain.Coin
	var tier string
	if err := row.Scan(
		&c.Ticker,
		&c.CreatorID,
		&c.InitialPrice,
		&c.CurrentSupply,
		&c.TotalVolume,
		&tier,
		&c.RoyaltyFee,
		&c.BotFee,
		&c.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCoinNotFound
		}
		return nil, err
	}
	c.Tier = domain.Tier(tier)
	return &c, nil
}

func (t *pgTx) LockCoin(ctx context.Context, ticker string) (*domain.Coin, error) {
	if err := t.writable(); err != nil {
		return nil, err
	}
	return scanCoin(t.tx.QueryRow(ctx, `SELECT `+coinColumns+` FROM coins WHERE ticker = $1 FOR UPDATE`, ticker))
}

func (t *pgTx) GetCoin(ctx context.Context, ticker string) (*domain.Coin, error) {
	return scanCoin(t.tx.QueryRow(ctx, `SELECT `+coinColumns+` FROM coins WHERE ticker = $1`, ticker))
}

func (t *pgTx) InsertCoin(ctx context.Context, c *domain.Coin) error {
	if err := t.writable(); err != nil {
		return err
	}
	err := t.tx.QueryRow(ctx, `
		INSERT INTO coins (ticker, creator_id, initial_price, current_supply, total_volume, tier, royalty_fee, bot_fee)
		VALUES ($1, $2, $3::numeric, 0, 0, $4, $5::numeric, $6::numeric)
		ON CONFLICT (ticker) DO NOTHING
		RETURNING created_at`,
		c.Ticker, c.CreatorID, c.InitialPrice, string(c.Tier), c.RoyaltyFee, c.BotFee,
	).Scan(&c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return domain.ErrTickerExists
		}
		return err
	}
	c.CurrentSupply = decimal.Zero
	c.TotalVolume = decimal.Zero
	return nil
}

func (t *pgTx) UpdateCoinMarket(ctx context.Context, ticker string, supply, volume decimal.Decimal) error {
	if err := t.writable(); err != nil {
		return err
	}
	if supply.IsNegative() {
		return domain.ErrSupplyUnderflow
	}
	return t.execOne(ctx, domain.ErrCoinNotFound,
		`UPDATE coins SET current_supply = $1::numeric, total_volume = $2::numeric WHERE ticker = $3`,
		supply, volume, ticker)
}

func (t *pgTx) ListCoins(ctx context.Context) ([]*domain.Coin, error) {
	return t.queryCoins(ctx, `SELECT `+coinColumns+` FROM coins ORDER BY created_at, ticker`)
}

// TopCoinsByVolume returns coins ordered by traded volume desc
func (t *pgTx) TopCoinsByVolume(ctx context.Context, limit int) ([]*domain.Coin, error) {
	return t.queryCoins(ctx, `SELECT `+coinColumns+` FROM coins ORDER BY total_volume DESC, ticker LIMIT $1`, limit)
}

func (t *pgTx) queryCoins(ctx context.Context, sql string, args ...any) ([]*domain.Coin, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Coin
	for rows.Next() {
		c, err := scanCoin(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
