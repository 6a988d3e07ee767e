package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// NewRateLimiter limits requests per client address using store.
func NewRateLimiter(store middleware.RateLimiterStore) echo.MiddlewareFunc {
	config := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store:   store,
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		},
	}

	return middleware.RateLimiterWithConfig(config)
}

// NewMemoryRateLimiterStore is a per-process token bucket per client.
func NewMemoryRateLimiterStore(limit float64, burst int) middleware.RateLimiterStore {
	return middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(limit),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		})
}

// RedisRateLimiterStore counts requests per client in fixed windows kept in
// Redis, so several instances share one budget.
type RedisRateLimiterStore struct {
	rdb     *redis.Client
	limit   int64
	window  time.Duration
	timeout time.Duration
	now     func() time.Time
}

// NewRedisRateLimiterStore allows burst requests per window of burst/limit
// seconds, which averages to limit requests per second.
func NewRedisRateLimiterStore(rdb *redis.Client, limit float64, burst int) *RedisRateLimiterStore {
	window := time.Duration(math.Ceil(float64(burst) / limit * float64(time.Second)))
	return &RedisRateLimiterStore{
		rdb:     rdb,
		limit:   int64(burst),
		window:  window,
		timeout: time.Second,
		now:     time.Now,
	}
}

// Allow implements middleware.RateLimiterStore. It fails open: when Redis
// cannot be reached the request is allowed and the error is logged.
func (s *RedisRateLimiterStore) Allow(identifier string) (bool, error) {
	allowed, err := s.allow(identifier)
	if err != nil {
		log.Warn().Err(err).Str("identifier", identifier).Msg("Rate limit store unavailable, allowing request")
		return true, nil
	}
	return allowed, nil
}

func (s *RedisRateLimiterStore) allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	slot := s.now().UnixNano() / int64(s.window)
	key := fmt.Sprintf("rate-limit:%s:%d", identifier, slot)

	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := s.rdb.Expire(ctx, key, 2*s.window).Err(); err != nil {
			return false, err
		}
	}

	return count <= s.limit, nil
}
