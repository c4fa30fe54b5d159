package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/logger"
	"crypto_tycoon/internal/market"
	"crypto_tycoon/internal/repository"

	"github.com/shopspring/decimal"
)

// TradeResult describes an executed buy or sell.
type TradeResult struct {
	Ticker   string           `json:"ticker"`
	Kind     domain.TradeKind `json:"kind"`
	Amount   decimal.Decimal  `json:"amount"`
	Price    decimal.Decimal  `json:"price"`
	Value    decimal.Decimal  `json:"value"`
	Royalty  decimal.Decimal  `json:"royalty"`
	HouseFee decimal.Decimal  `json:"house_fee"`
	NewPrice decimal.Decimal  `json:"new_price"`
	Balance  decimal.Decimal  `json:"balance"`
	Holding  decimal.Decimal  `json:"holding"`
	// CreatorID is credited the royalty.
	CreatorID int64 `json:"creator_id"`
}

// TradeService mints coins and executes trades against the bonding curve.
type TradeService struct {
	store repository.Store
	tiers market.TierTable
	feed  MarketFeed
	log   *slog.Logger
}

// NewTradeService creates a trade engine. feed may be nil.
func NewTradeService(store repository.Store, tiers market.TierTable, feed MarketFeed) *TradeService {
	if tiers == nil {
		tiers = market.DefaultTiers()
	}
	return &TradeService{
		store: store,
		tiers: tiers,
		feed:  feed,
		log:   logger.With("component", "trade"),
	}
}

func (s *TradeService) Tiers() []market.TierInfo {
	return s.tiers.Sorted()
}

// CreateCoin registers a new coin and burns the tier's creation cost from
// the creator's balance.
func (s *TradeService) CreateCoin(ctx context.Context, creatorID int64, ticker string, initialPrice decimal.Decimal, tier domain.Tier) (*domain.Coin, error) {
	ticker, err := market.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if err := market.ValidAmount(initialPrice); err != nil {
		return nil, err
	}
	info, err := s.tiers.Lookup(tier)
	if err != nil {
		return nil, err
	}

	coin := &domain.Coin{
		Ticker:        ticker,
		CreatorID:     creatorID,
		InitialPrice:  initialPrice,
		CurrentSupply: decimal.Zero,
		TotalVolume:   decimal.Zero,
		Tier:          info.Tier,
		RoyaltyFee:    info.RoyaltyFee,
		BotFee:        info.BotFee,
		CreatedAt:     time.Now().UTC(),
	}

	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetCoin(ctx, ticker); err == nil {
			return domain.ErrTickerExists
		} else if !errors.Is(err, domain.ErrCoinNotFound) {
			return err
		}
		users, err := tx.LockUsers(ctx, creatorID)
		if err != nil {
			return err
		}
		if users[creatorID].Balance.LessThan(info.Cost) {
			return domain.ErrInsufficientFunds
		}
		if _, err := tx.AddBalance(ctx, creatorID, info.Cost.Neg()); err != nil {
			return err
		}
		if err := tx.InsertCoin(ctx, coin); err != nil {
			return err
		}
		return audit(ctx, tx, creatorID, domain.AuditActionCoinCreate, domain.AuditCategoryMarket, map[string]interface{}{
			"ticker":        ticker,
			"tier":          string(info.Tier),
			"cost":          info.Cost.String(),
			"initial_price": initialPrice.String(),
		})
	})
	if err != nil {
		return nil, observe(ctx, "create_coin", err)
	}

	CoinsCreated.WithLabelValues(string(info.Tier)).Inc()
	s.log.Info("coin created", "ticker", ticker, "creator_id", creatorID, "tier", info.Tier)
	s.publish(MarketEvent{
		Type:      EventCoinCreated,
		Ticker:    ticker,
		UserID:    creatorID,
		Price:     initialPrice,
		NewPrice:  initialPrice,
		Supply:    decimal.Zero,
		Volume:    decimal.Zero,
		Timestamp: coin.CreatedAt,
	})
	return coin, nil
}

// Buy mints amount tokens to the user at the pre-trade price.
func (s *TradeService) Buy(ctx context.Context, userID int64, ticker string, amount decimal.Decimal) (*TradeResult, error) {
	return s.trade(ctx, domain.TradeBuy, userID, ticker, amount)
}

// Sell burns amount tokens from the user at the pre-trade price.
func (s *TradeService) Sell(ctx context.Context, userID int64, ticker string, amount decimal.Decimal) (*TradeResult, error) {
	return s.trade(ctx, domain.TradeSell, userID, ticker, amount)
}

func (s *TradeService) trade(ctx context.Context, kind domain.TradeKind, userID int64, ticker string, amount decimal.Decimal) (*TradeResult, error) {
	if err := market.ValidAmount(amount); err != nil {
		return nil, err
	}
	ticker, err := market.NormalizeTicker(ticker)
	if err != nil {
		return nil, domain.ErrCoinNotFound
	}

	var (
		res  *TradeResult
		coin *domain.Coin
	)
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		coin, err = tx.LockCoin(ctx, ticker)
		if err != nil {
			return err
		}
		users, err := tx.LockUsers(ctx, userID, coin.CreatorID)
		if err != nil {
			return err
		}

		price := market.Price(coin)
		value := price.Mul(amount)
		supply := coin.CurrentSupply
		delta := amount
		balanceDelta := value.Neg()

		switch kind {
		case domain.TradeBuy:
			if users[userID].Balance.LessThan(value) {
				return domain.ErrInsufficientFunds
			}
			supply = supply.Add(amount)
		case domain.TradeSell:
			held, err := tx.GetHolding(ctx, userID, ticker)
			if err != nil {
				return err
			}
			if held.LessThan(amount) {
				return domain.ErrInsufficientHoldings
			}
			supply = supply.Sub(amount)
			if supply.IsNegative() {
				if sum, err := tx.SumHoldings(ctx, ticker); err == nil {
					s.log.Error("coin supply below holdings", "ticker", ticker, "supply", coin.CurrentSupply.String(), "holdings", sum.String())
				}
				return domain.ErrSupplyUnderflow
			}
			delta = amount.Neg()
			balanceDelta = value
		}

		if _, err := tx.AddBalance(ctx, userID, balanceDelta); err != nil {
			return err
		}
		holding, err := tx.AdjustHolding(ctx, userID, ticker, delta)
		if err != nil {
			return err
		}
		volume := coin.TotalVolume.Add(value)
		if err := tx.UpdateCoinMarket(ctx, ticker, supply, volume); err != nil {
			return err
		}
		if err := tx.AppendTransaction(ctx, &domain.Transaction{
			UserID: userID,
			Ticker: ticker,
			Kind:   kind,
			Amount: amount,
			Price:  price,
		}); err != nil {
			return err
		}

		royalty, fee := market.Fees(coin, value)
		// royalties accrue to the creator's lifetime counter, not the balance
		if royalty.IsPositive() {
			if err := tx.AddRoyalties(ctx, coin.CreatorID, royalty); err != nil {
				return err
			}
		}
		if fee.IsPositive() {
			if _, err := tx.AddHouseBalance(ctx, fee); err != nil {
				return err
			}
		}

		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		coin.CurrentSupply = supply
		coin.TotalVolume = volume
		res = &TradeResult{
			Ticker:    ticker,
			Kind:      kind,
			Amount:    amount,
			Price:     price,
			Value:     value,
			Royalty:   royalty,
			HouseFee:  fee,
			NewPrice:  market.Price(coin),
			Balance:   u.Balance,
			Holding:   holding,
			CreatorID: coin.CreatorID,
		}
		return nil
	})
	if err != nil {
		return nil, observe(ctx, "trade_"+string(kind), err)
	}

	TradesTotal.WithLabelValues(string(kind)).Inc()
	TradeValue.WithLabelValues(string(kind)).Add(res.Value.InexactFloat64())
	s.log.Debug("trade executed",
		"kind", kind,
		"user_id", userID,
		"ticker", ticker,
		"amount", amount.String(),
		"price", res.Price.String(),
	)
	s.publish(MarketEvent{
		Type:      EventTrade,
		Ticker:    ticker,
		UserID:    userID,
		Amount:    amount,
		Price:     res.Price,
		NewPrice:  res.NewPrice,
		Supply:    coin.CurrentSupply,
		Volume:    coin.TotalVolume,
		Timestamp: time.Now().UTC(),
	})
	return res, nil
}

// Quote prices amount tokens at the coin's current supply without trading.
func (s *TradeService) Quote(ctx context.Context, ticker string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := market.ValidAmount(amount); err != nil {
		return decimal.Zero, err
	}
	coin, err := s.GetCoin(ctx, ticker)
	if err != nil {
		return decimal.Zero, err
	}
	return market.Quote(coin, amount), nil
}

func (s *TradeService) GetCoin(ctx context.Context, ticker string) (*domain.Coin, error) {
	ticker, err := market.NormalizeTicker(ticker)
	if err != nil {
		return nil, domain.ErrCoinNotFound
	}
	var coin *domain.Coin
	err = s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		coin, err = tx.GetCoin(ctx, ticker)
		return err
	})
	return coin, err
}

func (s *TradeService) ListCoins(ctx context.Context) ([]*domain.Coin, error) {
	var coins []*domain.Coin
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		coins, err = tx.ListCoins(ctx)
		return err
	})
	return coins, err
}

func (s *TradeService) publish(ev MarketEvent) {
	if s.feed != nil {
		s.feed.Publish(ev)
	}
}
