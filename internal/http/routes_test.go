package http

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"crypto_tycoon/internal/game"
	"crypto_tycoon/internal/http/handlers"
	"crypto_tycoon/internal/http/middleware"
	"crypto_tycoon/internal/repository/memstore"
	"crypto_tycoon/internal/service"
	"crypto_tycoon/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBotToken = "test-bot-token"
	adminID      = 999
)

type apiEnv struct {
	router *gin.Engine
}

func newAPIEnv(t *testing.T, roller game.Roller) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New(memstore.Options{LockTimeout: 5 * time.Second, HouseSeed: decimal.NewFromInt(10000)})
	ledger := service.NewLedgerService(store, service.LedgerConfig{
		StartingBalance: decimal.NewFromInt(1000),
		HouseSeed:       decimal.NewFromInt(10000),
	})
	require.NoError(t, ledger.Bootstrap(context.Background()))
	hub := ws.NewHub()

	svc := handlers.Services{
		Ledger: ledger,
		Trade:  service.NewTradeService(store, nil, hub),
		Gambling: service.NewGamblingService(store, service.NewMemoryDuelBook(), roller, service.GamblingConfig{
			MinBet: decimal.NewFromInt(1),
			MaxBet: decimal.NewFromInt(1000000),
		}),
		Equity: service.NewEquityService(store),
		Shop:   service.NewShopService(store, nil),
		Audit:  service.NewAuditService(store),
	}
	h := handlers.NewHandler(svc, service.NewJWTManager("secret", time.Hour), testBotToken, []int64{adminID})

	limits := DefaultRateLimits()
	limits.API = 1000
	limits.Auth = 1000
	limits.Game = 1000

	r := gin.New()
	RegisterRoutes(r, Deps{
		Handler: h,
		Health:  handlers.NewHealthHandler(store, "test"),
		Limiter: middleware.NewRateLimiter(nil),
		Limits:  limits,
		Hub:     hub,
	})
	return &apiEnv{router: r}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

// login authenticates a Telegram user and returns the API token.
func (e *apiEnv) login(t *testing.T, id int64, username string) string {
	t.Helper()
	v := url.Values{}
	v.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	v.Set("user", `{"id":`+strconv.FormatInt(id, 10)+`,"username":"`+username+`"}`)

	code, body := e.do(t, nethttp.MethodPost, "/api/v1/auth", "", gin.H{
		"init_data": service.BuildInitData(v, testBotToken),
	})
	require.Equal(t, nethttp.StatusOK, code, body)
	return body["token"].(string)
}

func TestAuth(t *testing.T) {
	e := newAPIEnv(t, nil)

	code, _ := e.do(t, nethttp.MethodPost, "/api/v1/auth", "", gin.H{"init_data": "user=%7B%7D&hash=00"})
	assert.Equal(t, nethttp.StatusUnauthorized, code)

	code, _ = e.do(t, nethttp.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, code)

	token := e.login(t, 42, "whale")
	code, body := e.do(t, nethttp.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, "1000", body["balance"])
	assert.Equal(t, "1000", body["equity"])
}

func TestMarketFlow(t *testing.T) {
	e := newAPIEnv(t, nil)
	whale := e.login(t, 42, "whale")
	admin := e.login(t, adminID, "boss")

	code, _ := e.do(t, nethttp.MethodPost, "/api/v1/coins", whale, gin.H{"ticker": "MOON", "price": "1", "tier": "bronze"})
	assert.Equal(t, nethttp.StatusUnprocessableEntity, code)

	// give is admin only
	code, _ = e.do(t, nethttp.MethodPost, "/api/v1/action", whale, gin.H{
		"action": "give", "params": gin.H{"target": "@boss", "amount": 5},
	})
	assert.Equal(t, nethttp.StatusForbidden, code)

	code, body := e.do(t, nethttp.MethodPost, "/api/v1/action", admin, gin.H{
		"action": "give", "params": gin.H{"target": "@whale", "amount": 20000},
	})
	require.Equal(t, nethttp.StatusOK, code, body)

	code, body = e.do(t, nethttp.MethodPost, "/api/v1/coins", whale, gin.H{"ticker": "$moon", "price": "1", "tier": "Bronze"})
	require.Equal(t, nethttp.StatusCreated, code, body)
	assert.Equal(t, "MOON", body["ticker"])

	code, _ = e.do(t, nethttp.MethodPost, "/api/v1/coins", whale, gin.H{"ticker": "MOON", "price": "1"})
	assert.Equal(t, nethttp.StatusConflict, code)

	code, body = e.do(t, nethttp.MethodPost, "/api/v1/trade/buy", whale, gin.H{"ticker": "MOON", "amount": "10"})
	require.Equal(t, nethttp.StatusOK, code, body)
	assert.Equal(t, "10", body["holding"])

	code, body = e.do(t, nethttp.MethodPost, "/api/v1/action", whale, gin.H{
		"action": "sell", "params": gin.H{"name": "MOON", "amount": 100},
	})
	assert.Equal(t, nethttp.StatusUnprocessableEntity, code, body)

	code, body = e.do(t, nethttp.MethodPost, "/api/v1/action", whale, gin.H{
		"action": "sell", "params": gin.H{"name": "MOON", "amount": 4},
	})
	require.Equal(t, nethttp.StatusOK, code, body)

	code, body = e.do(t, nethttp.MethodGet, "/api/v1/coins/moon", "", nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, "6", body["current_supply"])

	code, _ = e.do(t, nethttp.MethodGet, "/api/v1/coins/NOPE", "", nil)
	assert.Equal(t, nethttp.StatusNotFound, code)

	code, _ = e.do(t, nethttp.MethodGet, "/api/v1/coins/MOON/quote?amount=abc", "", nil)
	assert.Equal(t, nethttp.StatusBadRequest, code)

	code, body = e.do(t, nethttp.MethodGet, "/api/v1/coins/MOON/quote?amount=1", "", nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, "MOON", body["ticker"])

	code, body = e.do(t, nethttp.MethodGet, "/api/v1/leaderboard?kind=volume", "", nil)
	require.Equal(t, nethttp.StatusOK, code)
	rows := body["leaderboard"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "MOON", rows[0].(map[string]any)["ticker"])

	code, _ = e.do(t, nethttp.MethodGet, "/api/v1/leaderboard?kind=bogus", "", nil)
	assert.Equal(t, nethttp.StatusBadRequest, code)

	code, body = e.do(t, nethttp.MethodGet, "/api/v1/me/trades", whale, nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Len(t, body["trades"], 2)
}

func TestDuelFlow(t *testing.T) {
	e := newAPIEnv(t, game.Faces(6, 1))
	whale := e.login(t, 42, "whale")
	boss := e.login(t, adminID, "boss")

	code, _ := e.do(t, nethttp.MethodPost, "/api/v1/duels", whale, gin.H{"opponent": "@whale", "stake": "5"})
	assert.Equal(t, nethttp.StatusBadRequest, code)

	code, _ = e.do(t, nethttp.MethodPost, "/api/v1/duels", whale, gin.H{"opponent": "@ghost", "stake": "5"})
	assert.Equal(t, nethttp.StatusNotFound, code)

	code, body := e.do(t, nethttp.MethodPost, "/api/v1/duels", whale, gin.H{"opponent": "@boss", "stake": "100"})
	require.Equal(t, nethttp.StatusCreated, code, body)
	id := body["id"].(string)

	code, _ = e.do(t, nethttp.MethodPost, "/api/v1/duels/"+id+"/accept", whale, nil)
	assert.Equal(t, nethttp.StatusForbidden, code)

	code, body = e.do(t, nethttp.MethodPost, "/api/v1/duels/"+id+"/accept", boss, nil)
	require.Equal(t, nethttp.StatusOK, code, body)
	assert.Equal(t, float64(42), body["winner_id"])
	assert.Equal(t, "1100", body["challenger_balance"])
	assert.Equal(t, "900", body["opponent_balance"])

	code, _ = e.do(t, nethttp.MethodPost, "/api/v1/duels/"+id+"/accept", boss, nil)
	assert.Equal(t, nethttp.StatusNotFound, code)
}

func TestGamesAndShop(t *testing.T) {
	e := newAPIEnv(t, game.Faces(6, 2))
	whale := e.login(t, 42, "whale")

	code, body := e.do(t, nethttp.MethodPost, "/api/v1/game/house-dice", whale, gin.H{"stake": "0"})
	assert.Equal(t, nethttp.StatusBadRequest, code, body)

	code, body = e.do(t, nethttp.MethodPost, "/api/v1/action", whale, gin.H{
		"action": "dice_bot", "params": gin.H{"amount": 50},
	})
	require.Equal(t, nethttp.StatusOK, code, body)
	result := body["result"].(map[string]any)
	assert.Equal(t, "win", result["result"])
	assert.Equal(t, "1050", result["balance"])

	code, _ = e.do(t, nethttp.MethodPost, "/api/v1/game/rob", whale, gin.H{"target": "42"})
	assert.Equal(t, nethttp.StatusBadRequest, code)

	code, body = e.do(t, nethttp.MethodGet, "/api/v1/shop", "", nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.NotEmpty(t, body["items"])

	code, _ = e.do(t, nethttp.MethodPost, "/api/v1/shop/purchase", whale, gin.H{"item": "nope"})
	assert.Equal(t, nethttp.StatusNotFound, code)

	code, body = e.do(t, nethttp.MethodPost, "/api/v1/shop/purchase", whale, gin.H{"item": "vip"})
	require.Equal(t, nethttp.StatusOK, code, body)
	assert.Equal(t, "50", body["balance"])

	code, _ = e.do(t, nethttp.MethodPost, "/api/v1/action", whale, gin.H{
		"action": "buy_item", "params": gin.H{"item": "vip"},
	})
	assert.Equal(t, nethttp.StatusConflict, code)

	code, _ = e.do(t, nethttp.MethodPost, "/api/v1/action", whale, gin.H{"action": "teleport"})
	assert.Equal(t, nethttp.StatusBadRequest, code)

	code, body = e.do(t, nethttp.MethodGet, "/api/v1/game/limits", "", nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, "1", body["min_bet"])
}

func TestHealthAndMetrics(t *testing.T) {
	e := newAPIEnv(t, nil)

	code, body := e.do(t, nethttp.MethodGet, "/health", "", nil)
	assert.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = e.do(t, nethttp.MethodGet, "/readyz", "", nil)
	assert.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])

	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, nethttp.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
