package repository

import (
	"context"

	"crypto_tycoon/internal/domain"

	"github.com/shopspring/decimal"
)

// Store runs units of work against the store of record.
//
// WithTx runs fn as one atomic read-modify-write. If fn returns an error
// nothing it did is kept. Implementations bound lock acquisition and
// report contention as domain.ErrBusy.
//
// View runs fn against a consistent snapshot. Mutating calls inside View fail.
//
// Callers lock entities in a fixed order: coin, then users (LockUsers sorts
// ids), then the house row.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close()
}

type Tx interface {
	Users
	Coins
	Holdings
	Trades
	House
	Audit
	Inventory
}

type Users interface {
	// EnsureUser returns the user, creating it with startBalance when
	// missing. created reports whether a row was inserted. A non-empty
	// username replaces the stored one.
	EnsureUser(ctx context.Context, id int64, username string, startBalance decimal.Decimal) (u *domain.User, created bool, err error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	// LockUsers locks the given users in ascending id order. Duplicate ids
	// are allowed. Any missing id fails with domain.ErrUserNotFound.
	LockUsers(ctx context.Context, ids ...int64) (map[int64]*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	// AddBalance applies delta and returns the new balance. A result below
	// zero fails with domain.ErrInsufficientFunds and changes nothing.
	AddBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error)
	SetBalance(ctx context.Context, id int64, value decimal.Decimal) error
	AddRoyalties(ctx context.Context, id int64, delta decimal.Decimal) error
	SetVIP(ctx context.Context, id int64, vip bool) error
	SetTitle(ctx context.Context, id int64, title string) error
	TopUsersByBalance(ctx context.Context, limit int) ([]*domain.User, error)
	TopUsersByRoyalties(ctx context.Context, limit int) ([]*domain.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

type Coins interface {
	LockCoin(ctx context.Context, ticker string) (*domain.Coin, error)
	GetCoin(ctx context.Context, ticker string) (*domain.Coin, error)
	// InsertCoin fails with domain.ErrTickerExists on a duplicate ticker.
	InsertCoin(ctx context.Context, c *domain.Coin) error
	UpdateCoinMarket(ctx context.Context, ticker string, supply, volume decimal.Decimal) error
	ListCoins(ctx context.Context) ([]*domain.Coin, error)
	TopCoinsByVolume(ctx context.Context, limit int) ([]*domain.Coin, error)
}

type Holdings interface {
	// GetHolding returns zero when the user holds nothing.
	GetHolding(ctx context.Context, userID int64, ticker string) (decimal.Decimal, error)
	// AdjustHolding applies delta and returns the new amount. The row is
	// removed when the amount reaches zero; a negative result fails with
	// domain.ErrInsufficientHoldings.
	AdjustHolding(ctx context.Context, userID int64, ticker string, delta decimal.Decimal) (decimal.Decimal, error)
	ListHoldings(ctx context.Context, userID int64) ([]domain.Holding, error)
	SumHoldings(ctx context.Context, ticker string) (decimal.Decimal, error)
}

type Trades interface {
	AppendTransaction(ctx context.Context, t *domain.Transaction) error
	ListTransactions(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error)
}

type House interface {
	// EnsureHouse creates the house row with seed if it does not exist yet.
	EnsureHouse(ctx context.Context, seed decimal.Decimal) error
	LockHouse(ctx context.Context) (decimal.Decimal, error)
	// AddHouseBalance fails with domain.ErrHouseInsolvent when the result
	// would be negative.
	AddHouseBalance(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error)
	SetHouseBalance(ctx context.Context, value decimal.Decimal) error
}

type Audit interface {
	AppendAudit(ctx context.Context, log *domain.AuditLog) error
	ListAudit(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error)
}

type Inventory interface {
	AddInventory(ctx context.Context, item *domain.InventoryItem) error
	ListInventory(ctx context.Context, userID int64) ([]*domain.InventoryItem, error)
	// ListActiveByCategory returns unexpired items of every user in category.
	ListActiveByCategory(ctx context.Context, category string) ([]*domain.InventoryItem, error)
}
