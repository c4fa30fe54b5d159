package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens map[string]int64

func (s staticTokens) Parse(token string) (int64, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

func init() {
	gin.SetMode(gin.TestMode)
}

func do(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWT(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWT(staticTokens{"good": 42}), func(c *gin.Context) {
		id, ok := UserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", map[string]string{"Authorization": "good"}).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", map[string]string{"Authorization": "Bearer bad"}).Code)

	w := do(r, "/me", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42}`, w.Body.String())
}

func TestRateLimiter_MemoryByIP(t *testing.T) {
	l := NewRateLimiter(nil)
	r := gin.New()
	r.GET("/test", l.ByIP(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := do(r, "/test", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(r, "/test", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_WindowResets(t *testing.T) {
	l := NewRateLimiter(nil)
	now := time.Now()
	l.mem.now = func() time.Time { return now }

	assert.Equal(t, int64(1), l.mem.incr("k", time.Second))
	assert.Equal(t, int64(2), l.mem.incr("k", time.Second))
	now = now.Add(time.Second)
	assert.Equal(t, int64(1), l.mem.incr("k", time.Second))
}

func TestRateLimiter_ByUserRequiresAuth(t *testing.T) {
	l := NewRateLimiter(nil)
	r := gin.New()
	r.GET("/game", JWT(staticTokens{"a": 1, "b": 2}), l.ByUser(1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	bearer := func(tok string) map[string]string { return map[string]string{"Authorization": "Bearer " + tok} }
	assert.Equal(t, http.StatusOK, do(r, "/game", bearer("a")).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "/game", bearer("a")).Code)
	assert.Equal(t, http.StatusOK, do(r, "/game", bearer("b")).Code)

	bare := gin.New()
	bare.GET("/game", l.ByUser(1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, do(bare, "/game", nil).Code)
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisRateLimitIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	rdb := ConnectRedis(addr, os.Getenv("REDIS_PASSWORD"), db)
	require.NotNil(t, rdb)
	defer rdb.Close()

	// unique window so reruns do not share a key
	w := time.Duration(2+time.Now().UnixNano()%50) * time.Second
	l := NewRateLimiter(rdb)
	r := gin.New()
	r.GET("/test", l.ByIP(2, w), func(c *gin.Context) { c.Status(http.StatusOK) })

	srv := httptest.NewServer(r)
	defer srv.Close()

	for i := 0; i < 2; i++ {
		res, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
	}
	res, err := http.Get(srv.URL + "/test")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
}

func TestMetricsMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusNoContent, do(r, "/ok", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, "/missing", nil).Code)
}
