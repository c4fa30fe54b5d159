package handlers

import (
	"net/http"
	"strings"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/market"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CreateCoinRequest struct {
	Ticker string          `json:"ticker"`
	Price  decimal.Decimal `json:"price"`
	Tier   string          `json:"tier"`
}

type TradeRequest struct {
	Ticker string          `json:"ticker"`
	Amount decimal.Decimal `json:"amount"`
}

// coinView is a coin with its current price.
type coinView struct {
	*domain.Coin
	Price decimal.Decimal `json:"price"`
}

func viewCoin(c *domain.Coin) coinView {
	return coinView{Coin: c, Price: market.Price(c)}
}

// parseTier defaults to bronze. Unknown names pass through so the engine
// rejects them.
func parseTier(s string) domain.Tier {
	if strings.TrimSpace(s) == "" {
		return domain.TierBronze
	}
	if t, ok := domain.ParseTier(s); ok {
		return t
	}
	return domain.Tier(s)
}

func (h *Handler) ListCoins(c *gin.Context) {
	coins, err := h.Trade.ListCoins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]coinView, 0, len(coins))
	for _, coin := range coins {
		out = append(out, viewCoin(coin))
	}
	c.JSON(http.StatusOK, gin.H{"coins": out})
}

func (h *Handler) GetCoin(c *gin.Context) {
	coin, err := h.Trade.GetCoin(c.Request.Context(), c.Param("ticker"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewCoin(coin))
}

func (h *Handler) Tiers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tiers": h.Trade.Tiers()})
}

// Quote prices ?amount= tokens of :ticker at the current supply.
func (h *Handler) Quote(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		respondError(c, domain.ErrInvalidAmount)
		return
	}
	cost, err := h.Trade.Quote(c.Request.Context(), c.Param("ticker"), amount)
	if err != nil {
		respondError(c, err)
		return
	}
	ticker, _ := market.NormalizeTicker(c.Param("ticker"))
	c.JSON(http.StatusOK, gin.H{"ticker": ticker, "amount": amount, "cost": cost})
}

func (h *Handler) CreateCoin(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateCoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}

	coin, err := h.Trade.CreateCoin(c.Request.Context(), userID, req.Ticker, req.Price, parseTier(req.Tier))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewCoin(coin))
}

func (h *Handler) Buy(c *gin.Context) {
	h.trade(c, true)
}

func (h *Handler) Sell(c *gin.Context) {
	h.trade(c, false)
}

func (h *Handler) trade(c *gin.Context, buy bool) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}

	run := h.Trade.Sell
	if buy {
		run = h.Trade.Buy
	}
	res, err := run(c.Request.Context(), userID, req.Ticker, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
