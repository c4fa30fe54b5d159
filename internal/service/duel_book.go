package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/logger"

	"github.com/redis/go-redis/v9"
)

// DuelBook holds proposed duels until they are accepted, cancelled or expire.
//
// Claim removes the duel for accepterID, who must be the opponent. Only one
// concurrent Claim of the same duel succeeds. A claim by another user leaves
// the duel in place; a claim of an expired duel removes it and fails with
// domain.ErrDuelExpired.
type DuelBook interface {
	Put(ctx context.Context, d *domain.PendingDuel) error
	Get(ctx context.Context, id string) (*domain.PendingDuel, error)
	Claim(ctx context.Context, id string, accepterID int64, now time.Time) (*domain.PendingDuel, error)
	// Cancel removes the duel on behalf of its challenger.
	Cancel(ctx context.Context, id string, userID int64) (*domain.PendingDuel, error)
}

// MemoryDuelBook keeps duels in process memory.
type MemoryDuelBook struct {
	mu    sync.Mutex
	duels map[string]*domain.PendingDuel
}

func NewMemoryDuelBook() *MemoryDuelBook {
	return &MemoryDuelBook{duels: make(map[string]*domain.PendingDuel)}
}

func (b *MemoryDuelBook) Put(_ context.Context, d *domain.PendingDuel) error {
	cp := *d
	b.mu.Lock()
	b.duels[d.ID] = &cp
	b.mu.Unlock()
	return nil
}

func (b *MemoryDuelBook) Get(_ context.Context, id string) (*domain.PendingDuel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.duels[id]
	if !ok {
		return nil, domain.ErrDuelNotFound
	}
	cp := *d
	return &cp, nil
}

func (b *MemoryDuelBook) Claim(_ context.Context, id string, accepterID int64, now time.Time) (*domain.PendingDuel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.duels[id]
	if !ok {
		return nil, domain.ErrDuelNotFound
	}
	if d.OpponentID != accepterID {
		return nil, domain.ErrNotYourDuel
	}
	delete(b.duels, id)
	if d.Expired(now) {
		return nil, domain.ErrDuelExpired
	}
	return d, nil
}

func (b *MemoryDuelBook) Cancel(_ context.Context, id string, userID int64) (*domain.PendingDuel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.duels[id]
	if !ok {
		return nil, domain.ErrDuelNotFound
	}
	if d.ChallengerID != userID {
		return nil, domain.ErrNotYourDuel
	}
	delete(b.duels, id)
	return d, nil
}

// Sweep drops duels that expired before now and returns how many.
func (b *MemoryDuelBook) Sweep(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for id, d := range b.duels {
		if d.Expired(now) {
			delete(b.duels, id)
			n++
		}
	}
	return n
}

func (b *MemoryDuelBook) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.duels)
}

// StartSweeper evicts expired duels every interval until ctx is done.
func (b *MemoryDuelBook) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := b.Sweep(now); n > 0 {
					logger.Debug("expired duels evicted", "count", n)
				}
			}
		}
	}()
}

//go:embed lua/duel_take.lua
var luaDuelTake string

const (
	duelKeyPrefix = "duel:"
	// duelKeyGrace keeps expired duels readable long enough to report
	// ErrDuelExpired instead of ErrDuelNotFound.
	duelKeyGrace = time.Minute
)

// RedisDuelBook keeps duels in Redis so they survive restarts.
type RedisDuelBook struct {
	rdb  redis.UniversalClient
	take *redis.Script
}

func NewRedisDuelBook(rdb redis.UniversalClient) *RedisDuelBook {
	return &RedisDuelBook{
		rdb:  rdb,
		take: redis.NewScript(luaDuelTake),
	}
}

func duelKey(id string) string { return duelKeyPrefix + id }

func (b *RedisDuelBook) Put(ctx context.Context, d *domain.PendingDuel) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	ttl := time.Until(d.ExpiresAt) + duelKeyGrace
	if err := b.rdb.Set(ctx, duelKey(d.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("store duel: %w", err)
	}
	return nil
}

func (b *RedisDuelBook) Get(ctx context.Context, id string) (*domain.PendingDuel, error) {
	raw, err := b.rdb.Get(ctx, duelKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrDuelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load duel: %w", err)
	}
	return decodeDuel(raw)
}

func (b *RedisDuelBook) Claim(ctx context.Context, id string, accepterID int64, now time.Time) (*domain.PendingDuel, error) {
	d, err := b.runTake(ctx, id, accepterID, "opponent_id")
	if err != nil {
		return nil, err
	}
	if d.Expired(now) {
		return nil, domain.ErrDuelExpired
	}
	return d, nil
}

func (b *RedisDuelBook) Cancel(ctx context.Context, id string, userID int64) (*domain.PendingDuel, error) {
	return b.runTake(ctx, id, userID, "challenger_id")
}

func (b *RedisDuelBook) runTake(ctx context.Context, id string, userID int64, field string) (*domain.PendingDuel, error) {
	raw, err := b.take.Run(ctx, b.rdb, []string{duelKey(id)}, strconv.FormatInt(userID, 10), field).Slice()
	if err != nil {
		return nil, fmt.Errorf("take duel: %w", err)
	}
	if len(raw) != 2 {
		return nil, fmt.Errorf("take duel: unexpected reply %v", raw)
	}
	code, _ := raw[0].(int64)
	switch code {
	case 0:
		return nil, domain.ErrDuelNotFound
	case 2:
		return nil, domain.ErrNotYourDuel
	}
	payload, _ := raw[1].(string)
	return decodeDuel([]byte(payload))
}

func decodeDuel(raw []byte) (*domain.PendingDuel, error) {
	var d domain.PendingDuel
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode duel: %w", err)
	}
	return &d, nil
}
