package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Fixed window counter. Returns the count after this request.
var fixedWindowScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return current
`)

type RateLimitConfig struct {
	Name        string
	MaxRequests int
	Window      time.Duration
}

// RateLimiter limits requests per client IP with a redis fixed window. A nil
// client disables limiting, and redis errors let the request through.
func RateLimiter(rdb *redis.Client, rule RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate:fw:%s:ip:%s", rule.Name, c.ClientIP())
		window := int(rule.Window.Seconds())
		if window < 1 {
			window = 1
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		current, err := fixedWindowScript.Run(ctx, rdb, []string{key}, window).Int()
		cancel()
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("rule", rule.Name), zap.Error(err))
			c.Next()
			return
		}

		remaining := rule.MaxRequests - current
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if current > rule.MaxRequests {
			logger.Warn("rate limit exceeded",
				zap.String("rule", rule.Name),
				zap.String("client_ip", c.ClientIP()),
				zap.String("request_id", GetRequestID(c)),
			)
			c.Header("Retry-After", strconv.Itoa(window))
			helpers.RespondWithError(c, http.StatusTooManyRequests,
				fmt.Sprintf("Too many requests, please try again in %v", rule.Window))
			c.Abort()
			return
		}

		c.Next()
	}
}
