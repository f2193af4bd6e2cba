package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfolio/portfolio-api/internal/config"
	"github.com/pfolio/portfolio-api/internal/logging"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func limitedServer(cfg config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.POST("/v1/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, NewTokenBucket(cfg, rdb, logging.Nop()))
	return e
}

func postFrom(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func rateCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       3,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "test:rl",
	}
}

func TestTokenBucket_BlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	e := limitedServer(rateCfg(), rdb)

	for i := 0; i < 3; i++ {
		rec := postFrom(e, "10.0.0.1")
		require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := postFrom(e, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many attempts")

	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, postFrom(e, "10.0.0.2").Code)
}

func TestTokenBucket_KeyIsScopedByStrategy(t *testing.T) {
	mr, rdb := newRedis(t)
	e := limitedServer(rateCfg(), rdb)

	postFrom(e, "10.0.0.9")
	assert.True(t, mr.Exists("test:rl:ip:10.0.0.9:route:POST /v1/auth/login"))
}

func TestTokenBucket_FailsOpenWithoutRedis(t *testing.T) {
	e := limitedServer(rateCfg(), nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, postFrom(e, "10.0.0.1").Code)
	}
}

func TestTokenBucket_FailsOpenWhenRedisDies(t *testing.T) {
	mr, rdb := newRedis(t)
	e := limitedServer(rateCfg(), rdb)
	mr.Close()

	assert.Equal(t, http.StatusOK, postFrom(e, "10.0.0.1").Code)
}
