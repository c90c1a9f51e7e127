package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/inkwell-blog/inkwell/logger"
	"github.com/inkwell-blog/inkwell/web/entity"

	"github.com/gin-gonic/gin"
)

// Counter is a shared expiring counter, usually Redis.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimitConfig configures rate limiting
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Methods           []string
	KeyFunc           func(c *gin.Context) string
}

// DefaultRateLimitConfig limits writes per client IP per minute.
func DefaultRateLimitConfig(requestsPerMinute int) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerWindow: requestsPerMinute,
		Window:            time.Minute,
		Methods:           []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

func (config RateLimitConfig) applies(method string) bool {
	for _, m := range config.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// RateLimitMiddleware rejects requests over the configured budget with 429.
// Counter failures let the request through.
func RateLimitMiddleware(counter Counter, config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || config.RequestsPerWindow <= 0 || !config.applies(c.Request.Method) {
			c.Next()
			return
		}

		key := config.KeyFunc(c)
		rateLimitKey := "ratelimit:" + key

		count, err := counter.Incr(c.Request.Context(), rateLimitKey, config.Window)
		if err != nil {
			logger.Warning("Rate limit increment failed:", err)
			c.Next()
			return
		}

		remaining := config.RequestsPerWindow - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > config.RequestsPerWindow {
			logger.Warningf("Rate limit exceeded for %s on %s (count: %d)", key, c.Request.URL.Path, count)
			c.Header("Retry-After", strconv.Itoa(int(config.Window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, entity.Msg{
				Success: false,
				Msg:     "Rate limit exceeded. Please try again later.",
			})
			return
		}

		c.Next()
	}
}
