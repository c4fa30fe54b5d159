package http

import (
	"time"

	"crypto_tycoon/internal/http/handlers"
	"crypto_tycoon/internal/http/middleware"
	"crypto_tycoon/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RateLimits are requests per window for each route class.
type RateLimits struct {
	API        int
	APIWindow  time.Duration
	Auth       int
	AuthWindow time.Duration
	Game       int
	GameWindow time.Duration
}

func DefaultRateLimits() RateLimits {
	return RateLimits{
		API:        120,
		APIWindow:  time.Minute,
		Auth:       5,
		AuthWindow: time.Minute,
		Game:       60,
		GameWindow: time.Minute,
	}
}

type Deps struct {
	Handler       *handlers.Handler
	Health        *handlers.HealthHandler
	Limiter       *middleware.RateLimiter
	Limits        RateLimits
	Hub           *ws.Hub
	AllowedOrigin string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := d.Handler
	r.Use(middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if d.Hub != nil {
		r.GET("/ws", ws.HandleWS(d.Hub, h.Tokens, d.AllowedOrigin))
	}

	v1 := r.Group("/api/v1")
	v1.Use(d.Limiter.ByIP(d.Limits.API, d.Limits.APIWindow))
	registerAPIRoutes(v1, h, d.Limiter, d.Limits)
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, rl *middleware.RateLimiter, limits RateLimits) {
	auth := middleware.JWT(h.Tokens)
	// per user, not per IP
	gameRL := rl.ByUser(limits.Game, limits.GameWindow)

	api.POST("/auth", rl.ByIP(limits.Auth, limits.AuthWindow), h.Auth)

	api.GET("/me", auth, h.Me)
	api.GET("/me/history", auth, h.MyHistory)
	api.GET("/me/trades", auth, h.MyTrades)

	// Market
	api.GET("/coins", h.ListCoins)
	api.GET("/coins/:ticker", h.GetCoin)
	api.GET("/coins/:ticker/quote", h.Quote)
	api.GET("/tiers", h.Tiers)
	api.POST("/coins", auth, gameRL, h.CreateCoin)
	api.POST("/trade/buy", auth, gameRL, h.Buy)
	api.POST("/trade/sell", auth, gameRL, h.Sell)

	// Games
	api.GET("/game/limits", h.GameLimits)
	api.POST("/duels", auth, gameRL, h.ProposeDuel)
	api.GET("/duels/:id", h.GetDuel)
	api.POST("/duels/:id/accept", auth, gameRL, h.AcceptDuel)
	api.POST("/duels/:id/cancel", auth, h.CancelDuel)
	api.POST("/game/house-dice", auth, gameRL, h.HouseDice)
	api.POST("/game/rob", auth, gameRL, h.Rob)

	api.GET("/leaderboard", h.GetLeaderboard)
	api.GET("/report", h.MarketReport)

	// Shop
	api.GET("/shop", h.ShopCatalog)
	api.GET("/shop/inventory", auth, h.ShopInventory)
	api.POST("/shop/purchase", auth, gameRL, h.ShopPurchase)

	api.POST("/action", auth, gameRL, h.Action)
}
