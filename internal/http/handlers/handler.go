package handlers

import (
	"net/http"
	"slices"
	"time"

	"crypto_tycoon/internal/http/middleware"
	"crypto_tycoon/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler serves the game API on top of the engine services.
type Handler struct {
	Ledger   *service.LedgerService
	Trade    *service.TradeService
	Gambling *service.GamblingService
	Equity   *service.EquityService
	Shop     *service.ShopService
	Audit    *service.AuditService
	Tokens   *service.JWTManager
	BotToken string
	AdminIDs []int64

	now func() time.Time
}

type Services struct {
	Ledger   *service.LedgerService
	Trade    *service.TradeService
	Gambling *service.GamblingService
	Equity   *service.EquityService
	Shop     *service.ShopService
	Audit    *service.AuditService
}

func NewHandler(svc Services, tokens *service.JWTManager, botToken string, adminIDs []int64) *Handler {
	return &Handler{
		Ledger:   svc.Ledger,
		Trade:    svc.Trade,
		Gambling: svc.Gambling,
		Equity:   svc.Equity,
		Shop:     svc.Shop,
		Audit:    svc.Audit,
		Tokens:   tokens,
		BotToken: botToken,
		AdminIDs: adminIDs,
		now:      time.Now,
	}
}

func (h *Handler) isAdmin(userID int64) bool {
	return slices.Contains(h.AdminIDs, userID)
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c *gin.Context) (int64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return id, ok
}
