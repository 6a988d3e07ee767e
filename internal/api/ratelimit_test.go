package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, limit float64, burst int) (*RedisRateLimiterStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewRedisRateLimiterStore(rdb, limit, burst), mr
}

func TestRedisRateLimiterStoreWindow(t *testing.T) {
	store, _ := newRedisStore(t, 1, 2)
	assert.Equal(t, 2*time.Second, store.window)

	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		allowed, err := store.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	allowed, err := store.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Budgets are per identifier.
	allowed, err = store.Allow("10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)

	// A new window starts a new budget.
	now = now.Add(store.window)
	allowed, err = store.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiterStoreSetsExpiry(t *testing.T) {
	store, mr := newRedisStore(t, 1, 1)

	_, err := store.Allow("10.0.0.1")
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, 2*store.window, mr.TTL(keys[0]))
}

func TestRedisRateLimiterStoreFailsOpen(t *testing.T) {
	store, mr := newRedisStore(t, 1, 1)
	store.timeout = 100 * time.Millisecond
	mr.Close()

	for i := 0; i < 3; i++ {
		allowed, err := store.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}
}

func TestRateLimiterMiddlewareRedisDown(t *testing.T) {
	store, mr := newRedisStore(t, 1, 1)
	store.timeout = 100 * time.Millisecond
	mr.Close()

	e := echo.New()
	e.Use(NewRateLimiter(store))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(NewRateLimiter(NewMemoryRateLimiterStore(0.001, 1)))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do().Code)

	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}
