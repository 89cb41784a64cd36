package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/littlelemon/pkg/logger"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, remaining int, err error)
}

// RedisLimiter is a GCRA limiter shared by every instance pointing at the same Redis.
type RedisLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

// NewRedisLimiter allows qps requests per second with the given burst.
func NewRedisLimiter(rdb *redis.Client, qps, burst int) *RedisLimiter {
	if burst < qps {
		burst = qps
	}
	return &RedisLimiter{
		limiter: redis_rate.NewLimiter(rdb),
		limit:   redis_rate.Limit{Rate: qps, Period: time.Second, Burst: burst},
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, int, error) {
	res, err := r.limiter.Allow(ctx, key, r.limit)
	if err != nil {
		return false, 0, 0, fmt.Errorf("rate limit check failed: %w", err)
	}
	return res.Allowed > 0, res.RetryAfter, res.Remaining, nil
}

// GinRateLimitMiddleware rejects requests over the limit with 429, keyed by client IP.
// Limiter errors fail open.
func GinRateLimitMiddleware(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "littlelemon:ratelimit:" + c.ClientIP()

		allowed, retryAfter, remaining, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second)/time.Second)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests",
				"retry_after": retryAfter.String(),
			})
			return
		}
		c.Next()
	}
}
