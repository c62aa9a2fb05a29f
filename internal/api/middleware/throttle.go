package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prazwal-bns/imageprompt-api/internal/logger"
	"github.com/prazwal-bns/imageprompt-api/internal/ratelimit"
)

// Throttle enforces the api-scope rate limit on the routes it wraps.
// The key prefers the authenticated user id and falls back to the
// client address. Unlike the login gate, exceeding this limit is
// reported honestly as 429.
func Throttle(limiter *ratelimit.Limiter, maxAttempts int, decay time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		key := ratelimit.APIKeyForAddr(c.ClientIP())
		if id, ok := CurrentIdentity(c); ok {
			key = ratelimit.APIKeyForUser(id.User.ID)
		}

		blocked, err := limiter.TooManyAttempts(ctx, key, maxAttempts)
		if err != nil {
			logger.CtxError(ctx, "Throttle check failed: %v", err)
			// A broken counter store must not take the API down.
			c.Next()
			return
		}
		if blocked {
			retryIn, _ := limiter.AvailableIn(ctx, key)
			seconds := int(retryIn.Round(time.Second).Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many requests. Please try again later.",
			})
			return
		}

		if _, err := limiter.Hit(ctx, key, decay); err != nil {
			logger.CtxError(ctx, "Throttle hit failed: %v", err)
		}

		c.Next()
	}
}
