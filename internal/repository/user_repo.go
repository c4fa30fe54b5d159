package repository

import (
	"context"
	"errors"
	"sort"
	"strings"

	"crypto_tycoon/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = `id, COALESCE(username, ''), balance, vip, COALESCE(title, ''), total_royalties, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Balance,
		&u.VIP,
		&u.Title,
		&u.TotalRoyalties,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (t *pgTx) EnsureUser(ctx context.Context, id int64, username string, startBalance decimal.Decimal) (*domain.User, bool, error) {
	if err := t.writable(); err != nil {
		return nil, false, err
	}
	username = strings.TrimPrefix(username, "@")

	// xmax = 0 only for a freshly inserted row
	var created bool
	var u domain.User
	err := t.tx.QueryRow(ctx, `
		INSERT INTO users (id, username, balance)
		VALUES ($1, NULLIF($2, ''), $3::numeric)
		ON CONFLICT (id) DO UPDATE
			SET username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username)
		RETURNING `+userColumns+`, (xmax = 0)`,
		id, username, startBalance,
	).Scan(&u.ID, &u.Username, &u.Balance, &u.VIP, &u.Title, &u.TotalRoyalties, &u.CreatedAt, &created)
	if err != nil {
		return nil, false, err
	}
	return &u, created, nil
}

func (t *pgTx) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(t.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (t *pgTx) LockUsers(ctx context.Context, ids ...int64) (map[int64]*domain.User, error) {
	if err := t.writable(); err != nil {
		return nil, err
	}
	ordered := SortedUnique(ids)
	res := make(map[int64]*domain.User, len(ordered))
	// one row at a time so the lock order is exactly ascending id
	for _, id := range ordered {
		u, err := scanUser(t.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return nil, err
		}
		res[id] = u
	}
	return res, nil
}

func (t *pgTx) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	return scanUser(t.tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1) ORDER BY id LIMIT 1`,
		username,
	))
}

func (t *pgTx) AddBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := t.writable(); err != nil {
		return decimal.Zero, err
	}
	var newBalance decimal.Decimal
	err := t.tx.QueryRow(ctx,
		`UPDATE users SET balance = balance + $1::numeric WHERE id = $2 AND balance + $1::numeric >= 0 RETURNING balance`,
		delta, id,
	).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Could be not found or insufficient funds, check which
			exists, err := t.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id)
			if err != nil {
				return decimal.Zero, err
			}
			if !exists {
				return decimal.Zero, domain.ErrUserNotFound
			}
			return decimal.Zero, domain.ErrInsufficientFunds
		}
		return decimal.Zero, err
	}
	return newBalance, nil
}

func (t *pgTx) SetBalance(ctx context.Context, id int64, value decimal.Decimal) error {
	if err := t.writable(); err != nil {
		return err
	}
	if value.IsNegative() {
		return domain.ErrInvalidAmount
	}
	return t.execOne(ctx, domain.ErrUserNotFound, `UPDATE users SET balance = $1::numeric WHERE id = $2`, value, id)
}

func (t *pgTx) AddRoyalties(ctx context.Context, id int64, delta decimal.Decimal) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.execOne(ctx, domain.ErrUserNotFound,
		`UPDATE users SET total_royalties = total_royalties + $1::numeric WHERE id = $2`, delta, id)
}

func (t *pgTx) SetVIP(ctx context.Context, id int64, vip bool) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.execOne(ctx, domain.ErrUserNotFound, `UPDATE users SET vip = $1 WHERE id = $2`, vip, id)
}

func (t *pgTx) SetTitle(ctx context.Context, id int64, title string) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.execOne(ctx, domain.ErrUserNotFound, `UPDATE users SET title = NULLIF($1, '') WHERE id = $2`, title, id)
}

// TopUsersByBalance returns users ordered by balance desc
func (t *pgTx) TopUsersByBalance(ctx context.Context, limit int) ([]*domain.User, error) {
	return t.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY balance DESC, id LIMIT $1`, limit)
}

// TopUsersByRoyalties returns creators ordered by earned royalties desc
func (t *pgTx) TopUsersByRoyalties(ctx context.Context, limit int) ([]*domain.User, error) {
	return t.queryUsers(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE total_royalties > 0
		ORDER BY total_royalties DESC, id
		LIMIT $1`, limit)
}

func (t *pgTx) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (t *pgTx) queryUsers(ctx context.Context, sql string, args ...any) ([]*domain.User, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// execOne runs a statement that must touch exactly one row.
func (t *pgTx) execOne(ctx context.Context, notFound error, sql string, args ...any) error {
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

// SortedUnique returns ids deduplicated in ascending order, the global user lock order.
func SortedUnique(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
