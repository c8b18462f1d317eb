package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"alcyxob/fitness-hub/internal/config"
	"alcyxob/fitness-hub/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// WindowCounter counts hits on key in the current fixed window.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}

// fixedWindowScript increments the counter and starts its window on the first hit.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return { count, ttl }
`)

type redisCounter struct {
	rdb redis.Scripter
}

// NewRedisCounter counts with a Lua script so increment and expiry are atomic.
func NewRedisCounter(rdb redis.Scripter) WindowCounter {
	return &redisCounter{rdb: rdb}
}

func (r *redisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	vals, err := fixedWindowScript.Run(ctx, r.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit script result %v", vals)
	}
	return vals[0], time.Duration(vals[1]) * time.Millisecond, nil
}

// RateLimit bounds requests per client IP and route. It is a no-op when
// disabled or without a counter, and lets requests through when the counter fails.
func RateLimit(cfg config.RateLimitConfig, counter WindowCounter, log logrus.FieldLogger) gin.HandlerFunc {
	if !cfg.Enabled || counter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		key := fmt.Sprintf("%s:%s:%s", cfg.Prefix, route, c.ClientIP())

		count, resetIn, err := counter.Hit(c.Request.Context(), key, cfg.Window)
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("rate limit check failed")
			c.Next()
			return
		}

		remaining := int64(cfg.Requests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Requests) {
			retry := int(math.Ceil(resetIn.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			metrics.RecordRateLimited(route)
			abortWithError(c, http.StatusTooManyRequests, "rate limit exceeded, retry later")
			return
		}
		c.Next()
	}
}
