package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"crypto_tycoon/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter backed by Redis INCR/EXPIRE. Without
// a Redis client it counts in process memory; on Redis errors it fails open.
type RateLimiter struct {
	rdb redis.UniversalClient
	mem *memoryWindow
}

func NewRateLimiter(rdb redis.UniversalClient) *RateLimiter {
	return &RateLimiter{rdb: rdb, mem: newMemoryWindow()}
}

// ConnectRedis returns a client for addr, or nil when addr is empty or the
// server does not answer a ping.
func ConnectRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, falling back to memory", "addr", addr, "error", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func (l *RateLimiter) incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if l.rdb == nil {
		return l.mem.incr(key, window), nil
	}
	val, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	return val, nil
}

// ByIP limits requests per client IP.
// key format: rl:<window_seconds>:<ip>
func (l *RateLimiter) ByIP(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		l.check(c, key, c.FullPath(), maxRequests, window, "X-RateLimit")
	}
}

// ByUser limits requests per authenticated user. JWT must run first.
// key format: game_rl:<window_seconds>:<user_id>
func (l *RateLimiter) ByUser(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		key := "game_rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + strconv.FormatInt(userID, 10)
		l.check(c, key, "game:"+c.FullPath(), maxRequests, window, "X-GameRateLimit")
	}
}

func (l *RateLimiter) check(c *gin.Context, key, endpoint string, maxRequests int, window time.Duration, header string) {
	val, err := l.incr(c.Request.Context(), key, window)
	if err != nil {
		c.Header(header+"-Error", "redis-error")
		c.Next()
		return
	}

	c.Header(header+"-Limit", strconv.Itoa(maxRequests))
	c.Header(header+"-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

	if val > int64(maxRequests) {
		RLBlocked.WithLabelValues(endpoint).Inc()
		c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"retry_after": int(window.Seconds()),
		})
		return
	}

	RLRequests.WithLabelValues(endpoint).Inc()
	c.Next()
}
