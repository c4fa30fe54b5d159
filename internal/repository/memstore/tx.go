package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/repository"

	"github.com/shopspring/decimal"
)

type memTx struct {
	st       *state
	now      func() time.Time
	readOnly bool
}

func (t *memTx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func (t *memTx) nextID() int64 {
	t.st.seq++
	return t.st.seq
}

// users

func (t *memTx) EnsureUser(_ context.Context, id int64, username string, startBalance decimal.Decimal) (*domain.User, bool, error) {
	if err := t.writable(); err != nil {
		return nil, false, err
	}
	username = strings.TrimPrefix(username, "@")
	u, ok := t.st.users[id]
	if ok {
		if username != "" && u.Username != username {
			u.Username = username
			t.st.users[id] = u
		}
		return &u, false, nil
	}
	u = domain.User{
		ID:             id,
		Username:       username,
		Balance:        startBalance,
		TotalRoyalties: decimal.Zero,
		CreatedAt:      t.now(),
	}
	t.st.users[id] = u
	return &u, true, nil
}

func (t *memTx) GetUser(_ context.Context, id int64) (*domain.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (t *memTx) LockUsers(ctx context.Context, ids ...int64) (map[int64]*domain.User, error) {
	if err := t.writable(); err != nil {
		return nil, err
	}
	res := make(map[int64]*domain.User, len(ids))
	for _, id := range repository.SortedUnique(ids) {
		u, err := t.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		res[id] = u
	}
	return res, nil
}

func (t *memTx) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	var found *domain.User
	for _, u := range t.st.users {
		if u.Username != "" && strings.EqualFold(u.Username, username) {
			if found == nil || u.ID < found.ID {
				u := u
				found = &u
			}
		}
	}
	if found == nil {
		return nil, domain.ErrUserNotFound
	}
	return found, nil
}

func (t *memTx) AddBalance(_ context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := t.writable(); err != nil {
		return decimal.Zero, err
	}
	u, ok := t.st.users[id]
	if !ok {
		return decimal.Zero, domain.ErrUserNotFound
	}
	next := u.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientFunds
	}
	u.Balance = next
	t.st.users[id] = u
	return next, nil
}

func (t *memTx) SetBalance(_ context.Context, id int64, value decimal.Decimal) error {
	if err := t.writable(); err != nil {
		return err
	}
	if value.IsNegative() {
		return domain.ErrInvalidAmount
	}
	return t.updateUser(id, func(u *domain.User) { u.Balance = value })
}

func (t *memTx) AddRoyalties(_ context.Context, id int64, delta decimal.Decimal) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.updateUser(id, func(u *domain.User) { u.TotalRoyalties = u.TotalRoyalties.Add(delta) })
}

func (t *memTx) SetVIP(_ context.Context, id int64, vip bool) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.updateUser(id, func(u *domain.User) { u.VIP = vip })
}

func (t *memTx) SetTitle(_ context.Context, id int64, title string) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.updateUser(id, func(u *domain.User) { u.Title = title })
}

func (t *memTx) updateUser(id int64, fn func(u *domain.User)) error {
	u, ok := t.st.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(&u)
	t.st.users[id] = u
	return nil
}

func (t *memTx) TopUsersByBalance(_ context.Context, limit int) ([]*domain.User, error) {
	return t.topUsers(limit, func(u domain.User) (decimal.Decimal, bool) { return u.Balance, true }), nil
}

func (t *memTx) TopUsersByRoyalties(_ context.Context, limit int) ([]*domain.User, error) {
	return t.topUsers(limit, func(u domain.User) (decimal.Decimal, bool) {
		return u.TotalRoyalties, u.TotalRoyalties.IsPositive()
	}), nil
}

func (t *memTx) topUsers(limit int, key func(u domain.User) (decimal.Decimal, bool)) []*domain.User {
	res := make([]*domain.User, 0, len(t.st.users))
	for _, u := range t.st.users {
		if _, ok := key(u); !ok {
			continue
		}
		u := u
		res = append(res, &u)
	}
	sort.Slice(res, func(i, j int) bool {
		ki, _ := key(*res[i])
		kj, _ := key(*res[j])
		if c := ki.Cmp(kj); c != 0 {
			return c > 0
		}
		return res[i].ID < res[j].ID
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}

func (t *memTx) CountUsers(context.Context) (int64, error) {
	return int64(len(t.st.users)), nil
}

// coins

func (t *memTx) LockCoin(ctx context.Context, ticker string) (*domain.Coin, error) {
	if err := t.writable(); err != nil {
		return nil, err
	}
	return t.GetCoin(ctx, ticker)
}

func (t *memTx) GetCoin(_ context.Context, ticker string) (*domain.Coin, error) {
	c, ok := t.st.coins[ticker]
	if !ok {
		return nil, domain.ErrCoinNotFound
	}
	return &c, nil
}

func (t *memTx) InsertCoin(_ context.Context, c *domain.Coin) error {
	if err := t.writable(); err != nil {
		return err
	}
	for existing := range t.st.coins {
		if strings.EqualFold(existing, c.Ticker) {
			return domain.ErrTickerExists
		}
	}
	c.CurrentSupply = decimal.Zero
	c.TotalVolume = decimal.Zero
	c.CreatedAt = t.now()
	t.st.coins[c.Ticker] = *c
	return nil
}

func (t *memTx) UpdateCoinMarket(_ context.Context, ticker string, supply, volume decimal.Decimal) error {
	if err := t.writable(); err != nil {
		return err
	}
	if supply.IsNegative() {
		return domain.ErrSupplyUnderflow
	}
	c, ok := t.st.coins[ticker]
	if !ok {
		return domain.ErrCoinNotFound
	}
	c.CurrentSupply = supply
	c.TotalVolume = volume
	t.st.coins[ticker] = c
	return nil
}

func (t *memTx) ListCoins(context.Context) ([]*domain.Coin, error) {
	res := t.allCoins()
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		return res[i].Ticker < res[j].Ticker
	})
	return res, nil
}

func (t *memTx) TopCoinsByVolume(_ context.Context, limit int) ([]*domain.Coin, error) {
	res := t.allCoins()
	sort.Slice(res, func(i, j int) bool {
		if c := res[i].TotalVolume.Cmp(res[j].TotalVolume); c != 0 {
			return c > 0
		}
		return res[i].Ticker < res[j].Ticker
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (t *memTx) allCoins() []*domain.Coin {
	res := make([]*domain.Coin, 0, len(t.st.coins))
	for _, c := range t.st.coins {
		c := c
		res = append(res, &c)
	}
	return res
}

// holdings

func (t *memTx) GetHolding(_ context.Context, userID int64, ticker string) (decimal.Decimal, error) {
	return t.st.holdings[holdingKey{userID, ticker}], nil
}

func (t *memTx) AdjustHolding(_ context.Context, userID int64, ticker string, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := t.writable(); err != nil {
		return decimal.Zero, err
	}
	k := holdingKey{userID, ticker}
	current := t.st.holdings[k]
	next := current.Add(delta)
	switch {
	case next.IsNegative():
		return current, domain.ErrInsufficientHoldings
	case next.IsZero():
		delete(t.st.holdings, k)
	default:
		t.st.holdings[k] = next
	}
	return next, nil
}

func (t *memTx) ListHoldings(_ context.Context, userID int64) ([]domain.Holding, error) {
	var res []domain.Holding
	for k, v := range t.st.holdings {
		if k.userID == userID && v.IsPositive() {
			res = append(res, domain.Holding{UserID: userID, Ticker: k.ticker, Amount: v})
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Ticker < res[j].Ticker })
	return res, nil
}

func (t *memTx) SumHoldings(_ context.Context, ticker string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for k, v := range t.st.holdings {
		if k.ticker == ticker {
			sum = sum.Add(v)
		}
	}
	return sum, nil
}

// trade log

func (t *memTx) AppendTransaction(_ context.Context, tr *domain.Transaction) error {
	if err := t.writable(); err != nil {
		return err
	}
	tr.ID = t.nextID()
	tr.CreatedAt = t.now()
	t.st.transactions = append(t.st.transactions, *tr)
	return nil
}

func (t *memTx) ListTransactions(_ context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	var res []*domain.Transaction
	for i := len(t.st.transactions) - 1; i >= 0; i-- {
		if limit > 0 && len(res) >= limit {
			break
		}
		if tr := t.st.transactions[i]; tr.UserID == userID {
			res = append(res, &tr)
		}
	}
	return res, nil
}

// house

func (t *memTx) EnsureHouse(_ context.Context, seed decimal.Decimal) error {
	if err := t.writable(); err != nil {
		return err
	}
	if !t.st.houseExists {
		t.st.house = seed
		t.st.houseExists = true
	}
	return nil
}

func (t *memTx) LockHouse(context.Context) (decimal.Decimal, error) {
	return t.st.house, nil
}

func (t *memTx) AddHouseBalance(_ context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := t.writable(); err != nil {
		return decimal.Zero, err
	}
	next := t.st.house.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, domain.ErrHouseInsolvent
	}
	t.st.house = next
	return next, nil
}

func (t *memTx) SetHouseBalance(_ context.Context, value decimal.Decimal) error {
	if err := t.writable(); err != nil {
		return err
	}
	if value.IsNegative() {
		return domain.ErrInvalidAmount
	}
	t.st.house = value
	t.st.houseExists = true
	return nil
}

// audit

func (t *memTx) AppendAudit(_ context.Context, log *domain.AuditLog) error {
	if err := t.writable(); err != nil {
		return err
	}
	log.ID = t.nextID()
	log.CreatedAt = t.now()
	t.st.audit = append(t.st.audit, *log)
	return nil
}

func (t *memTx) ListAudit(_ context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	var res []*domain.AuditLog
	for i := len(t.st.audit) - 1; i >= 0; i-- {
		if limit > 0 && len(res) >= limit {
			break
		}
		if l := t.st.audit[i]; l.UserID == userID {
			res = append(res, &l)
		}
	}
	return res, nil
}

// inventory

func (t *memTx) AddInventory(_ context.Context, item *domain.InventoryItem) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.users[item.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	item.ID = t.nextID()
	item.CreatedAt = t.now()
	t.st.inventory = append(t.st.inventory, *item)
	return nil
}

func (t *memTx) ListInventory(_ context.Context, userID int64) ([]*domain.InventoryItem, error) {
	now := t.now()
	var res []*domain.InventoryItem
	for _, item := range t.st.inventory {
		if item.UserID == userID && item.Active(now) {
			item := item
			res = append(res, &item)
		}
	}
	return res, nil
}

func (t *memTx) ListActiveByCategory(_ context.Context, category string) ([]*domain.InventoryItem, error) {
	now := t.now()
	var res []*domain.InventoryItem
	for _, item := range t.st.inventory {
		if item.Category == category && item.Active(now) {
			item := item
			res = append(res, &item)
		}
	}
	return res, nil
}
