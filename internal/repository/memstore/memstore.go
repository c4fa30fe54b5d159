// Package memstore is an in-process store of record. Every unit of work
// holds one global lock; writes go to a copy that replaces the live state
// only when the unit of work succeeds.
package memstore

import (
	"context"
	"errors"
	"maps"
	"time"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/repository"

	"github.com/shopspring/decimal"
)

var errReadOnly = errors.New("write attempted in read-only unit of work")

type Options struct {
	// LockTimeout bounds the wait for the store lock.
	LockTimeout time.Duration
	// HouseSeed is the initial house balance.
	HouseSeed decimal.Decimal
	// Now is the clock, time.Now by default.
	Now func() time.Time
}

type holdingKey struct {
	userID int64
	ticker string
}

type state struct {
	users        map[int64]domain.User
	coins        map[string]domain.Coin
	holdings     map[holdingKey]decimal.Decimal
	transactions []domain.Transaction
	audit        []domain.AuditLog
	inventory    []domain.InventoryItem
	house        decimal.Decimal
	houseExists  bool
	seq          int64
}

func (s *state) clone() *state {
	return &state{
		users:    maps.Clone(s.users),
		coins:    maps.Clone(s.coins),
		holdings: maps.Clone(s.holdings),
		// append-only logs: the copy gets capacity == length so appends
		// never write into the live backing array
		transactions: s.transactions[:len(s.transactions):len(s.transactions)],
		audit:        s.audit[:len(s.audit):len(s.audit)],
		inventory:    s.inventory[:len(s.inventory):len(s.inventory)],
		house:        s.house,
		houseExists:  s.houseExists,
		seq:          s.seq,
	}
}

type Store struct {
	sem  chan struct{}
	st   *state
	opts Options
}

var _ repository.Store = (*Store)(nil)

func New(opts Options) *Store {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 2 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		sem: make(chan struct{}, 1),
		st: &state{
			users:       make(map[int64]domain.User),
			coins:       make(map[string]domain.Coin),
			holdings:    make(map[holdingKey]decimal.Decimal),
			house:       opts.HouseSeed,
			houseExists: true,
		},
		opts: opts,
	}
}

func (s *Store) acquire(ctx context.Context) error {
	t := time.NewTimer(s.opts.LockTimeout)
	defer t.Stop()
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return domain.ErrBusy
	}
}

func (s *Store) release() { <-s.sem }

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	work := s.st.clone()
	if err := fn(&memTx{st: work, now: s.opts.Now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	return fn(&memTx{st: s.st, now: s.opts.Now, readOnly: true})
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() {}

// Snapshot returns copies of all users, coins and holdings for consistency
// checks.
func (s *Store) Snapshot() (users []domain.User, coins []domain.Coin, holdings []domain.Holding, house decimal.Decimal) {
	s.sem <- struct{}{}
	defer s.release()

	for _, u := range s.st.users {
		users = append(users, u)
	}
	for _, c := range s.st.coins {
		coins = append(coins, c)
	}
	for k, v := range s.st.holdings {
		holdings = append(holdings, domain.Holding{UserID: k.userID, Ticker: k.ticker, Amount: v})
	}
	return users, coins, holdings, s.st.house
}
