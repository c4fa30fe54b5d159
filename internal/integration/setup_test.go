package integration

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"crypto_tycoon/internal/db"
	"crypto_tycoon/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// openStore connects to DATABASE_URL and applies migrations. Tests skip
// when it is not set.
func openStore(t *testing.T) (*repository.PgStore, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, pool, nil))

	store := repository.NewPgStore(pool, repository.PgOptions{LockTimeout: 5 * time.Second, MaxAttempts: 5})
	t.Cleanup(store.Close)
	return store, pool
}

// uniqueBase returns an id range and ticker suffix that do not collide
// with earlier runs against the same database.
func uniqueBase() (int64, string) {
	n := time.Now().UnixNano()
	base := 1_000_000_000 + (n/1000)%1_000_000_000*100
	return base, strings.ToUpper(strconv.FormatInt(n%1_000_000_000, 36))
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}
