package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/game"
	"crypto_tycoon/internal/market"
	"crypto_tycoon/internal/repository"
	"crypto_tycoon/internal/repository/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var houseSeed = decimal.NewFromInt(10000)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// decEqual compares decimals by value, ignoring exponent.
func decEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got.String())
}

type recordingFeed struct {
	mu     sync.Mutex
	events []MarketEvent
}

func (f *recordingFeed) Publish(ev MarketEvent) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
}

func (f *recordingFeed) Events() []MarketEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]MarketEvent(nil), f.events...)
}

type testEnv struct {
	ctx     context.Context
	store   *memstore.Store
	ledger  *LedgerService
	trade   *TradeService
	gamble  *GamblingService
	equity  *EquityService
	shop    *ShopService
	audit   *AuditService
	duels   *MemoryDuelBook
	feed    *recordingFeed
	clock   *testClock
	adminID int64
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(dur time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(dur)
	c.mu.Unlock()
}

func newTestEnv(t *testing.T, roller game.Roller) *testEnv {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := memstore.New(memstore.Options{
		LockTimeout: 5 * time.Second,
		HouseSeed:   houseSeed,
		Now:         clock.Now,
	})
	feed := &recordingFeed{}
	duels := NewMemoryDuelBook()
	env := &testEnv{
		ctx:    context.Background(),
		store:  store,
		ledger: NewLedgerService(store, LedgerConfig{StartingBalance: decimal.NewFromInt(1000), HouseSeed: houseSeed}),
		trade:  NewTradeService(store, market.DefaultTiers(), feed),
		gamble: NewGamblingService(store, duels, roller, GamblingConfig{
			MinBet:  decimal.NewFromInt(1),
			MaxBet:  decimal.NewFromInt(1000000),
			DuelTTL: 5 * time.Minute,
		}),
		equity:  NewEquityService(store),
		shop:    NewShopService(store, nil),
		audit:   NewAuditService(store),
		duels:   duels,
		feed:    feed,
		clock:   clock,
		adminID: 999,
	}
	env.gamble.now = clock.Now
	env.shop.now = clock.Now
	require.NoError(t, env.ledger.Bootstrap(env.ctx))
	return env
}

// user registers id and sets its balance.
func (e *testEnv) user(t *testing.T, id int64, balance string) {
	t.Helper()
	_, err := e.ledger.EnsureUser(e.ctx, id, "user"+strconv.FormatInt(id, 10))
	require.NoError(t, err)
	require.NoError(t, e.ledger.AdminSetBalance(e.ctx, e.adminID, id, d(balance)))
}

func (e *testEnv) balance(t *testing.T, id int64) decimal.Decimal {
	t.Helper()
	b, err := e.ledger.GetBalance(e.ctx, id)
	require.NoError(t, err)
	return b
}

func (e *testEnv) house(t *testing.T) decimal.Decimal {
	t.Helper()
	h, err := e.ledger.HouseBalance(e.ctx)
	require.NoError(t, err)
	return h
}

// assertConsistent checks that supply is fully backed by holdings and no
// balance is negative.
func (e *testEnv) assertConsistent(t *testing.T) {
	t.Helper()
	users, coins, holdings, house := e.store.Snapshot()
	for _, u := range users {
		assert.False(t, u.Balance.IsNegative(), "user %d balance %s", u.ID, u.Balance)
	}
	assert.False(t, house.IsNegative())
	sums := make(map[string]decimal.Decimal)
	for _, h := range holdings {
		assert.True(t, h.Amount.IsPositive(), "holding rows must be positive")
		sums[h.Ticker] = sums[h.Ticker].Add(h.Amount)
	}
	for _, c := range coins {
		assert.True(t, c.CurrentSupply.Equal(sums[c.Ticker]), "coin %s supply %s != holdings %s", c.Ticker, c.CurrentSupply, sums[c.Ticker])
	}
	require.NoError(t, e.store.View(e.ctx, func(tx repository.Tx) error {
		for _, c := range coins {
			sum, err := tx.SumHoldings(e.ctx, c.Ticker)
			if err != nil {
				return err
			}
			assert.True(t, sum.Equal(sums[c.Ticker]), "SumHoldings(%s) = %s, want %s", c.Ticker, sum, sums[c.Ticker])
		}
		return nil
	}))
}

func (e *testEnv) snapshot() ([]domain.User, []domain.Coin, []domain.Holding, decimal.Decimal) {
	return e.store.Snapshot()
}
