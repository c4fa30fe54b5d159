package service

import (
	"testing"

	"crypto_tycoon/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMarket(t *testing.T, e *testEnv) {
	t.Helper()
	e.user(t, 1, "60000")
	e.user(t, 2, "1000")
	e.user(t, 3, "500")
	_, err := e.trade.CreateCoin(e.ctx, 1, "ABC", d("1"), domain.TierBronze)
	require.NoError(t, err)
	_, err = e.trade.CreateCoin(e.ctx, 1, "XYZ", d("2"), domain.TierBronze)
	require.NoError(t, err)
	_, err = e.trade.Buy(e.ctx, 2, "ABC", d("100"))
	require.NoError(t, err)
	_, err = e.trade.Buy(e.ctx, 2, "XYZ", d("10"))
	require.NoError(t, err)
}

func TestEquityAndPortfolio(t *testing.T) {
	e := newTestEnv(t, nil)
	seedMarket(t, e)

	// user 2: 1000 - 100 - 20 = 880 cash, ABC 100 @1.1, XYZ 10 @2.02
	p, err := e.equity.Portfolio(e.ctx, 2)
	require.NoError(t, err)
	decEqual(t, "880", p.Balance)
	require.Len(t, p.Positions, 2)
	assert.Equal(t, "ABC", p.Positions[0].Ticker)
	decEqual(t, "1.1", p.Positions[0].Price)
	decEqual(t, "110", p.Positions[0].Value)
	decEqual(t, "20.2", p.Positions[1].Value)
	decEqual(t, "1010.2", p.Equity)

	eq, err := e.equity.Equity(e.ctx, 2)
	require.NoError(t, err)
	decEqual(t, "1010.2", eq)

	eq, err = e.equity.Equity(e.ctx, 3)
	require.NoError(t, err)
	decEqual(t, "500", eq)

	_, err = e.equity.Equity(e.ctx, 404)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLeaderboard(t *testing.T) {
	e := newTestEnv(t, nil)
	seedMarket(t, e)

	rows, err := e.equity.Leaderboard(e.ctx, domain.LeaderboardBalance, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].UserID)
	assert.Equal(t, 1, rows[0].Rank)
	decEqual(t, "40000", rows[0].Value)
	assert.Equal(t, int64(2), rows[1].UserID)
	require.NotNil(t, rows[1].Equity)
	decEqual(t, "1010.2", *rows[1].Equity)

	rows, err = e.equity.Leaderboard(e.ctx, domain.LeaderboardRoyalties, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	decEqual(t, "0.6", rows[0].Value)
	assert.Nil(t, rows[0].Equity)

	rows, err = e.equity.Leaderboard(e.ctx, domain.LeaderboardVolume, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ABC", rows[0].Ticker)
	decEqual(t, "100", rows[0].Value)
	assert.Equal(t, "XYZ", rows[1].Ticker)

	_, err = e.equity.Leaderboard(e.ctx, domain.LeaderboardKind("karma"), 10)
	assert.Error(t, err)
}

func TestMarketReport(t *testing.T) {
	e := newTestEnv(t, nil)
	seedMarket(t, e)

	r, err := e.equity.MarketReport(e.ctx, 1)
	require.NoError(t, err)
	require.Len(t, r.TopCoins, 1)
	assert.Equal(t, "ABC", r.TopCoins[0].Ticker)
	decEqual(t, "1.1", r.TopCoins[0].Price)
	require.Len(t, r.TopCreators, 1)
	assert.Equal(t, int64(1), r.TopCreators[0].UserID)
	assert.Equal(t, 2, r.Coins)
	assert.Equal(t, int64(3), r.Users)
	decEqual(t, "10001.2", r.HouseBalance)
}
