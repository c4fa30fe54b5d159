package handlers

import (
	"net/http"

	"crypto_tycoon/internal/domain"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard returns ?kind=balance|royalties|volume, top ?limit= rows
func (h *Handler) GetLeaderboard(c *gin.Context) {
	kind, ok := domain.ParseLeaderboardKind(c.Query("kind"))
	if !ok {
		respondError(c, domain.ErrInvalidTarget)
		return
	}
	rows, err := h.Equity.Leaderboard(c.Request.Context(), kind, queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kind":        kind,
		"leaderboard": rows,
	})
}

// MarketReport is the same summary the scheduled report posts to chat.
func (h *Handler) MarketReport(c *gin.Context) {
	report, err := h.Equity.MarketReport(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
