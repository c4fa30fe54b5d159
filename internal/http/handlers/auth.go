package handlers

import (
	"net/http"

	"crypto_tycoon/internal/logger"
	"crypto_tycoon/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData string `json:"init_data"`
}

// Auth validates Telegram WebApp init data, registers the user on first
// sight and issues an API token.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil || req.InitData == "" {
		badRequest(c, "bad request")
		return
	}

	tgUser, err := service.ValidateTelegramInitData(req.InitData, h.BotToken, h.now())
	if err != nil {
		logger.FromContext(c.Request.Context()).Debug("init data rejected", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
		return
	}

	user, err := h.Ledger.EnsureUser(c.Request.Context(), tgUser.ID, tgUser.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.Tokens.Generate(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
