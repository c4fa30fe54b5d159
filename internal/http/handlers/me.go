package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Me returns the caller's account and marked-to-market portfolio.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, err := h.Ledger.GetUser(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	portfolio, err := h.Equity.Portfolio(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	inventory, err := h.Shop.Inventory(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      user,
		"balance":   portfolio.Balance,
		"equity":    portfolio.Equity,
		"positions": portfolio.Positions,
		"inventory": inventory,
	})
}

func (h *Handler) MyHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	logs, err := h.Audit.History(c.Request.Context(), userID, queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": logs})
}

func (h *Handler) MyTrades(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	trades, err := h.Audit.Trades(c.Request.Context(), userID, queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

// queryInt reads a non-negative integer query parameter, 0 when absent or bad.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
