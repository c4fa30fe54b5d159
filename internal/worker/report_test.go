package worker

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/service"

	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource struct {
	report *service.MarketReport
	err    error
}

func (s fixedSource) MarketReport(context.Context, int) (*service.MarketReport, error) {
	return s.report, s.err
}

type sent struct {
	chatID int64
	text   string
}

type recorder struct{ msgs []sent }

func (r *recorder) SendText(chatID int64, text string) error {
	r.msgs = append(r.msgs, sent{chatID, text})
	return nil
}

func sampleReport() *service.MarketReport {
	return &service.MarketReport{
		TopCoins: []service.CoinStat{{
			Coin:  &domain.Coin{Ticker: "MOON", TotalVolume: decimal.RequireFromString("123.456")},
			Price: decimal.RequireFromString("1.1"),
		}},
		TopCreators: []domain.LeaderboardRow{
			{Rank: 1, UserID: 42, Username: "whale", Value: decimal.RequireFromString("1.05")},
			{Rank: 2, UserID: 7, Value: decimal.RequireFromString("0.5")},
		},
		HouseBalance: decimal.NewFromInt(10001),
		Coins:        1,
	}
}

func TestNextRun(t *testing.T) {
	loc := time.FixedZone("Kyiv", 3*3600)
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2024, 5, 1, 8, 30, 0, 0, loc), time.Date(2024, 5, 1, 9, 0, 0, 0, loc)},
		{time.Date(2024, 5, 1, 9, 0, 0, 0, loc), time.Date(2024, 5, 2, 9, 0, 0, 0, loc)},
		{time.Date(2024, 5, 31, 23, 0, 0, 0, loc), time.Date(2024, 6, 1, 9, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NextRun(tc.now, 9))
	}
}

func TestFormatReport(t *testing.T) {
	text := FormatReport(sampleReport())
	assert.Contains(t, text, "🌅 Morning Market Report:")
	assert.Contains(t, text, "$MOON: 123.46 (price 1.10)")
	assert.Contains(t, text, "@whale: 1.05")
	assert.Contains(t, text, "id7: 0.50")
	assert.Contains(t, text, "Bot Treasury: 10001.00 coins")

	empty := FormatReport(&service.MarketReport{})
	assert.Contains(t, empty, "Top Coins by Volume:\n—")
}

func TestRunOnce(t *testing.T) {
	rec := &recorder{}
	r := NewReporter(fixedSource{report: sampleReport()}, rec, nil, -100123, 9)

	require.NoError(t, r.RunOnce(context.Background()))
	require.Len(t, rec.msgs, 1)
	assert.Equal(t, int64(-100123), rec.msgs[0].chatID)

	r.Source = fixedSource{err: errors.New("db down")}
	assert.Error(t, r.RunOnce(context.Background()))
	assert.Len(t, rec.msgs, 1)
}

type failingNotifier struct{}

func (failingNotifier) SendText(int64, string) error { return errors.New("chat not found") }

// dedupStore keeps SETNX/DEL keys in a map; the rest of the client is unused.
type dedupStore struct {
	redis.UniversalClient
	keys map[string]bool
}

func (s *dedupStore) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) *redis.BoolCmd {
	if s.keys[key] {
		return redis.NewBoolResult(false, nil)
	}
	s.keys[key] = true
	return redis.NewBoolResult(true, nil)
}

func (s *dedupStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if s.keys[k] {
			delete(s.keys, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRunOnce_FailedSendReleasesDay(t *testing.T) {
	store := &dedupStore{keys: make(map[string]bool)}
	day := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	r := NewReporter(fixedSource{report: sampleReport()}, failingNotifier{}, store, 1, 9)
	r.now = func() time.Time { return day }
	require.Error(t, r.RunOnce(context.Background()))
	assert.Empty(t, store.keys)

	rec := &recorder{}
	r.Notify = rec
	require.NoError(t, r.RunOnce(context.Background()))
	require.NoError(t, r.RunOnce(context.Background()))
	assert.Len(t, rec.msgs, 1)
	assert.True(t, store.keys["report_sent:2024-05-01"])
}

func TestStartStopsOnCancel(t *testing.T) {
	r := NewReporter(fixedSource{report: sampleReport()}, &recorder{}, nil, 1, 9)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRunOnce_RedisDedup(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	day := time.Date(2031, 1, 2, 9, 0, 0, int(time.Now().UnixNano()%1000), time.UTC)
	rdb.Del(context.Background(), "report_sent:"+day.Format("2006-01-02"))

	rec := &recorder{}
	r := NewReporter(fixedSource{report: sampleReport()}, rec, rdb, 1, 9)
	r.now = func() time.Time { return day }

	require.NoError(t, r.RunOnce(context.Background()))
	require.NoError(t, r.RunOnce(context.Background()))
	assert.Len(t, rec.msgs, 1)
}
