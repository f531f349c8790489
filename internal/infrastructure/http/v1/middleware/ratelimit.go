package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"chequedentista/internal/core/appctx"
	"chequedentista/internal/core/apperror"
	"chequedentista/pkg/logger"
)

// RateLimiter is a sliding-window limiter over a redis sorted set. One
// member per request, scored by timestamp; the window slides by pruning
// members older than the window on every check.
type RateLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing max requests per window.
func NewRateLimiter(rdb *redis.Client, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, max: max, window: window}
}

// Allow records the request and reports whether it fits the window.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-l.window)
	redisKey := "ratelimit:" + key

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return countCmd.Val() < int64(l.max), nil
}

// RateLimit enforces the limit per user, falling back to client IP for
// unauthenticated routes. Fails open when redis is unavailable.
func RateLimit(limiter *RateLimiter, route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := appctx.UserID(c.Request.Context())
		if key == "" {
			key = c.ClientIP()
		}

		allowed, err := limiter.Allow(c.Request.Context(), route+":"+key)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !allowed {
			retryAfter := int(limiter.window.Seconds())
			_ = c.Error(apperror.NewRateLimit(retryAfter))
			c.Abort()
			return
		}

		c.Next()
	}
}
