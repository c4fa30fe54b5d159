package main

import (
	"context"
	"flag"
	"log"
	"os"

	"crypto_tycoon/internal/db"
	"crypto_tycoon/internal/repository"
	"crypto_tycoon/internal/service"

	"github.com/shopspring/decimal"
)

func main() {
	// expects DATABASE_URL and JWT_SECRET env vars
	tgID := flag.Int64("id", 1234567890, "telegram user id")
	username := flag.String("username", "testuser", "telegram username")
	balance := flag.String("balance", "", "set balance after creation")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	pool := db.MustConnect(dsn)
	store := repository.NewPgStore(pool, repository.PgOptions{})
	defer store.Close()

	ctx := context.Background()
	ledger := service.NewLedgerService(store, service.LedgerConfig{
		StartingBalance: decimal.NewFromInt(1000),
		HouseSeed:       decimal.NewFromInt(10000),
	})
	if err := ledger.Bootstrap(ctx); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}

	u, err := ledger.EnsureUser(ctx, *tgID, *username)
	if err != nil {
		log.Fatalf("ensure user failed: %v", err)
	}

	if *balance != "" {
		value, err := decimal.NewFromString(*balance)
		if err != nil {
			log.Fatalf("bad balance: %v", err)
		}
		if err := ledger.AdminSetBalance(ctx, 0, u.ID, value); err != nil {
			log.Fatalf("set balance failed: %v", err)
		}
	}

	u2, err := ledger.GetUser(ctx, u.ID)
	if err != nil {
		log.Fatalf("get user failed: %v", err)
	}
	log.Printf("user id=%d username=%s balance=%s created_at=%v\n", u2.ID, u2.Username, u2.Balance, u2.CreatedAt)

	token, err := service.NewJWTManager(secret, service.DefaultTokenTTL).Generate(u2.ID)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
