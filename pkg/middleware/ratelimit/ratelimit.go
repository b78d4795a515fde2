package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
	"github.com/vnvodich/tutor-api/pkg/response"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// KeyFunc derives the bucket for a request.
type KeyFunc func(c *gin.Context) string

// Limiter is a fixed-window request limiter shared across instances via Redis.
type Limiter struct {
	rdb      redis.Scripter
	limit    int
	window   time.Duration
	prefix   string
	failOpen bool
	logger   *zap.Logger
}

// New builds a limiter. Non-positive limit or window fall back to 60 per minute.
func New(rdb redis.Scripter, limit int, window time.Duration, prefix string, failOpen bool, logger *zap.Logger) *Limiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{rdb: rdb, limit: limit, window: window, prefix: prefix, failOpen: failOpen, logger: logger}
}

// ClientIP buckets by remote address.
func ClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// Middleware rejects requests beyond the limit with 429.
func (l *Limiter) Middleware(scope string, key KeyFunc) gin.HandlerFunc {
	if key == nil {
		key = ClientIP
	}
	return func(c *gin.Context) {
		bucket := fmt.Sprintf("%s:%s:%s", l.prefix, scope, key(c))
		count, err := l.incr(c.Request.Context(), bucket)
		if err != nil {
			l.logger.Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			if l.failOpen {
				c.Next()
				return
			}
			response.Error(c, appErrors.Clone(appErrors.ErrServiceUnavailable, "rate limiter unavailable"))
			c.Abort()
			return
		}

		remaining := int64(l.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(l.limit) {
			c.Header("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			response.Error(c, appErrors.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (l *Limiter) incr(ctx context.Context, key string) (int64, error) {
	res, err := fixedWindowScript.Run(ctx, l.rdb, []string{key}, l.window.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected rate limit script result %T", res)
	}
}
