package service

import (
	"context"
	"time"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/market"
	"crypto_tycoon/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// EquityService computes net worth and rankings from snapshot reads.
type EquityService struct {
	store repository.Store
}

func NewEquityService(store repository.Store) *EquityService {
	return &EquityService{store: store}
}

// Position is one marked-to-market holding.
type Position struct {
	Ticker string          `json:"ticker"`
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

type Portfolio struct {
	UserID    int64           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Positions []Position      `json:"positions"`
	Equity    decimal.Decimal `json:"equity"`
}

// Equity returns balance plus the value of all holdings at current prices.
func (s *EquityService) Equity(ctx context.Context, userID int64) (decimal.Decimal, error) {
	p, err := s.Portfolio(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Equity, nil
}

func (s *EquityService) Portfolio(ctx context.Context, userID int64) (*Portfolio, error) {
	var p *Portfolio
	err := s.store.View(ctx, func(tx repository.Tx) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		holdings, err := tx.ListHoldings(ctx, userID)
		if err != nil {
			return err
		}
		p = &Portfolio{
			UserID:    userID,
			Balance:   u.Balance,
			Positions: make([]Position, 0, len(holdings)),
			Equity:    u.Balance,
		}
		for _, h := range holdings {
			coin, err := tx.GetCoin(ctx, h.Ticker)
			if err != nil {
				return err
			}
			price := market.Price(coin)
			value := price.Mul(h.Amount)
			p.Positions = append(p.Positions, Position{
				Ticker: h.Ticker,
				Amount: h.Amount,
				Price:  price,
				Value:  value,
			})
			p.Equity = p.Equity.Add(value)
		}
		return nil
	})
	return p, err
}

// Leaderboard ranks users by balance or royalties, or coins by volume.
// Balance rows also carry each user's equity.
func (s *EquityService) Leaderboard(ctx context.Context, kind domain.LeaderboardKind, limit int) ([]domain.LeaderboardRow, error) {
	limit = clampLimit(limit, defaultLeaderboardLimit, maxLeaderboardLimit)
	var rows []domain.LeaderboardRow
	err := s.store.View(ctx, func(tx repository.Tx) error {
		switch kind {
		case domain.LeaderboardBalance, "":
			users, err := tx.TopUsersByBalance(ctx, limit)
			if err != nil {
				return err
			}
			prices, err := priceTable(ctx, tx)
			if err != nil {
				return err
			}
			for i, u := range users {
				eq, err := equityOf(ctx, tx, u, prices)
				if err != nil {
					return err
				}
				rows = append(rows, domain.LeaderboardRow{
					Rank:     i + 1,
					UserID:   u.ID,
					Username: u.Username,
					Value:    u.Balance,
					Equity:   &eq,
				})
			}
		case domain.LeaderboardRoyalties:
			users, err := tx.TopUsersByRoyalties(ctx, limit)
			if err != nil {
				return err
			}
			for i, u := range users {
				rows = append(rows, domain.LeaderboardRow{
					Rank:     i + 1,
					UserID:   u.ID,
					Username: u.Username,
					Value:    u.TotalRoyalties,
				})
			}
		case domain.LeaderboardVolume:
			coins, err := tx.TopCoinsByVolume(ctx, limit)
			if err != nil {
				return err
			}
			for i, c := range coins {
				rows = append(rows, domain.LeaderboardRow{
					Rank:   i + 1,
					UserID: c.CreatorID,
					Ticker: c.Ticker,
					Value:  c.TotalVolume,
				})
			}
		default:
			return domain.ErrInvalidTarget
		}
		return nil
	})
	return rows, err
}

// CoinStat is a coin with its current unit price.
type CoinStat struct {
	*domain.Coin
	Price decimal.Decimal `json:"price"`
}

// MarketReport is the periodic market summary.
type MarketReport struct {
	TopCoins     []CoinStat              `json:"top_coins"`
	TopCreators  []domain.LeaderboardRow `json:"top_creators"`
	HouseBalance decimal.Decimal         `json:"house_balance"`
	Coins        int                     `json:"coins"`
	Users        int64                   `json:"users"`
	GeneratedAt  time.Time               `json:"generated_at"`
}

func (s *EquityService) MarketReport(ctx context.Context, n int) (*MarketReport, error) {
	n = clampLimit(n, 5, maxLeaderboardLimit)
	r := &MarketReport{GeneratedAt: time.Now().UTC()}
	err := s.store.View(ctx, func(tx repository.Tx) error {
		coins, err := tx.TopCoinsByVolume(ctx, n)
		if err != nil {
			return err
		}
		for _, c := range coins {
			r.TopCoins = append(r.TopCoins, CoinStat{Coin: c, Price: market.Price(c)})
		}
		creators, err := tx.TopUsersByRoyalties(ctx, n)
		if err != nil {
			return err
		}
		for i, u := range creators {
			r.TopCreators = append(r.TopCreators, domain.LeaderboardRow{
				Rank:     i + 1,
				UserID:   u.ID,
				Username: u.Username,
				Value:    u.TotalRoyalties,
			})
		}
		if r.HouseBalance, err = tx.LockHouse(ctx); err != nil {
			return err
		}
		all, err := tx.ListCoins(ctx)
		if err != nil {
			return err
		}
		r.Coins = len(all)
		r.Users, err = tx.CountUsers(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func priceTable(ctx context.Context, tx repository.Tx) (map[string]decimal.Decimal, error) {
	coins, err := tx.ListCoins(ctx)
	if err != nil {
		return nil, err
	}
	prices := make(map[string]decimal.Decimal, len(coins))
	for _, c := range coins {
		prices[c.Ticker] = market.Price(c)
	}
	return prices, nil
}

func equityOf(ctx context.Context, tx repository.Tx, u *domain.User, prices map[string]decimal.Decimal) (decimal.Decimal, error) {
	holdings, err := tx.ListHoldings(ctx, u.ID)
	if err != nil {
		return decimal.Zero, err
	}
	eq := u.Balance
	for _, h := range holdings {
		eq = eq.Add(prices[h.Ticker].Mul(h.Amount))
	}
	return eq, nil
}
