package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto_tycoon/internal/bot"
	"crypto_tycoon/internal/config"
	"crypto_tycoon/internal/db"
	httpServer "crypto_tycoon/internal/http"
	"crypto_tycoon/internal/http/handlers"
	"crypto_tycoon/internal/http/middleware"
	"crypto_tycoon/internal/logger"
	"crypto_tycoon/internal/repository"
	"crypto_tycoon/internal/repository/memstore"
	"crypto_tycoon/internal/service"
	"crypto_tycoon/internal/worker"
	"crypto_tycoon/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := openStore(cfg)
	defer store.Close()

	// cache stays a nil interface without redis; consumers fall back to memory.
	var cache redis.UniversalClient
	var duels service.DuelBook
	if rdb := middleware.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); rdb != nil {
		defer rdb.Close()
		cache = rdb
		duels = service.NewRedisDuelBook(rdb)
		logger.Info("duel book on redis", "addr", cfg.RedisAddr)
	} else {
		mem := service.NewMemoryDuelBook()
		mem.StartSweeper(ctx, time.Minute)
		duels = mem
	}

	hub := ws.NewHub()
	defer hub.Close()

	ledger := service.NewLedgerService(store, service.LedgerConfig{
		StartingBalance: cfg.StartingBalance,
		HouseSeed:       cfg.HouseSeed,
	})
	if err := ledger.Bootstrap(ctx); err != nil {
		logger.Fatal("ledger bootstrap failed", "error", err)
	}

	svc := handlers.Services{
		Ledger: ledger,
		Trade:  service.NewTradeService(store, nil, hub),
		Gambling: service.NewGamblingService(store, duels, nil, service.GamblingConfig{
			MinBet:  cfg.MinBet,
			MaxBet:  cfg.MaxBet,
			DuelTTL: cfg.DuelTTL,
		}),
		Equity: service.NewEquityService(store),
		Shop:   service.NewShopService(store, nil),
		Audit:  service.NewAuditService(store),
	}
	tokens := service.NewJWTManager(cfg.JWTSecret, service.DefaultTokenTTL)

	if cfg.BotEnabled {
		b, err := bot.New(cfg.BotToken, bot.Services{
			Ledger:   svc.Ledger,
			Trade:    svc.Trade,
			Gambling: svc.Gambling,
			Equity:   svc.Equity,
			Shop:     svc.Shop,
		}, bot.Config{AdminIDs: cfg.AdminTelegramIDs, WebAppURL: cfg.WebAppURL})
		if err != nil {
			logger.Error("failed to start bot", "error", err)
		} else {
			go b.Start()
			defer b.Stop()

			if cfg.ReportChatID != 0 {
				reporter := worker.NewReporter(svc.Equity, b, cache, cfg.ReportChatID, cfg.ReportHour)
				go reporter.Start(ctx)
			}
		}
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors(cfg.AllowedOrigin))

	health := handlers.NewHealthHandler(store, version)
	health.FeedClients = hub.Len
	if cache != nil {
		health.WithCheck("redis", handlers.PingFunc(func(ctx context.Context) error {
			return cache.Ping(ctx).Err()
		}))
	}

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler: handlers.NewHandler(svc, tokens, cfg.BotToken, cfg.AdminTelegramIDs),
		Health:  health,
		Limiter: middleware.NewRateLimiter(cache),
		Limits: httpServer.RateLimits{
			API:        cfg.APIRateLimit,
			APIWindow:  cfg.APIRateWindow,
			Auth:       cfg.AuthRateLimit,
			AuthWindow: cfg.AuthRateWindow,
			Game:       cfg.GameRateLimit,
			GameWindow: cfg.GameRateWindow,
		},
		Hub:           hub,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.Store, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

func openStore(cfg *config.Config) repository.Store {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store, state is lost on restart")
		return memstore.New(memstore.Options{
			LockTimeout: cfg.LedgerLockTimeout,
			HouseSeed:   cfg.HouseSeed,
		})
	}
	pool := db.MustConnect(cfg.DatabaseURL)
	return repository.NewPgStore(pool, repository.PgOptions{
		LockTimeout: cfg.LedgerLockTimeout,
		MaxAttempts: cfg.LedgerMaxAttempts,
	})
}

// cors allows the mini-app origin (any origin when unset).
func cors(allowed string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowed == "" || origin == allowed) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
