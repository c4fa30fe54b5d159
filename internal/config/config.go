package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"crypto_tycoon/internal/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	AppPort          string
	DatabaseURL      string
	Store            string
	BotToken         string
	BotUsername      string
	BotEnabled       bool
	JWTSecret        string
	AdminTelegramIDs []int64 // tg id админов через запятую
	AllowedOrigin    string
	WebAppURL        string
	LogLevel         string
	LogJSON          bool

	// Economy
	StartingBalance decimal.Decimal
	HouseSeed       decimal.Decimal

	// Ledger
	LedgerLockTimeout time.Duration
	LedgerMaxAttempts int

	// Game limits
	MinBet         decimal.Decimal
	MaxBet         decimal.Decimal
	DuelTTL        time.Duration
	GameRateLimit  int
	GameRateWindow time.Duration

	// API rate limits
	APIRateLimit   int
	APIRateWindow  time.Duration
	AuthRateLimit  int
	AuthRateWindow time.Duration

	// Redis (rate limits, duel book)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Morning report
	ReportHour   int
	ReportChatID int64
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:       envString("APP_PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Store:         strings.ToLower(envString("STORE", StorePostgres)),
		BotToken:      os.Getenv("BOT_TOKEN"),
		BotUsername:   envString("BOT_USERNAME", "CryptoTycoonBot"),
		BotEnabled:    envBool("BOT_ENABLED", true),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		WebAppURL:     os.Getenv("WEBAPP_URL"),
		LogLevel:      envString("LOG_LEVEL", "info"),
		LogJSON:       envBool("LOG_JSON", false),

		StartingBalance: envDecimal("STARTING_BALANCE", decimal.NewFromInt(1000)),
		HouseSeed:       envDecimal("HOUSE_SEED", decimal.NewFromInt(10000)),

		LedgerLockTimeout: envDuration("LEDGER_LOCK_TIMEOUT", 2*time.Second),
		LedgerMaxAttempts: envInt("LEDGER_MAX_ATTEMPTS", 3),

		MinBet:         envDecimal("MIN_BET", decimal.NewFromInt(1)),
		MaxBet:         envDecimal("MAX_BET", decimal.NewFromInt(1000000)),
		DuelTTL:        envDuration("DUEL_TTL", 5*time.Minute),
		GameRateLimit:  envInt("GAME_RATE_LIMIT", 60), // макс действий за окно
		GameRateWindow: envSeconds("GAME_RATE_WINDOW", time.Minute),

		APIRateLimit:   envInt("API_RATE_LIMIT", 120),
		APIRateWindow:  envSeconds("API_RATE_WINDOW_SECONDS", time.Minute),
		AuthRateLimit:  envInt("AUTH_RATE_LIMIT", 5),
		AuthRateWindow: envSeconds("AUTH_RATE_WINDOW_SECONDS", time.Minute),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		ReportHour:   envInt("REPORT_HOUR", 9),
		ReportChatID: int64(envInt("REPORT_CHAT_ID", 0)),
	}
	cfg.AdminTelegramIDs = ParseIDs(os.Getenv("ADMIN_TELEGRAM_IDS"))

	if err := cfg.validate(); err != "" {
		logger.Fatal(err)
	}
	return cfg
}

func (c *Config) validate() string {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return "DATABASE_URL is not set"
		}
	case StoreMemory:
	default:
		return "STORE must be postgres or memory"
	}
	if c.JWTSecret == "" {
		return "JWT_SECRET is not set"
	}
	if c.BotToken == "" {
		return "BOT_TOKEN is not set"
	}
	if c.MinBet.GreaterThan(c.MaxBet) {
		return "MIN_BET is greater than MAX_BET"
	}
	if c.ReportHour < 0 || c.ReportHour > 23 {
		return "REPORT_HOUR must be within 0..23"
	}
	return ""
}

// IsAdmin reports whether the Telegram id is listed in ADMIN_TELEGRAM_IDS.
func (c *Config) IsAdmin(tgID int64) bool {
	for _, id := range c.AdminTelegramIDs {
		if id == tgID {
			return true
		}
	}
	return false
}

// ParseIDs parses a comma separated id list, skipping junk.
func ParseIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
		logger.Warn("invalid integer in env, using default", "key", key, "value", v)
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// envDuration accepts Go durations ("90s", "5m") and bare seconds.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	logger.Warn("invalid duration in env, using default", "key", key, "value", v)
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	return envDuration(key, def)
}

func envDecimal(key string, def decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		logger.Warn("invalid decimal in env, using default", "key", key, "value", v)
		return def
	}
	return d
}
