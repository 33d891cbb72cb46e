package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tunegift/checkout-api/internal/clientip"
	"github.com/tunegift/checkout-api/internal/ratelimit"
)

// RateLimit enforces one limiter profile on a route group, keyed by client
// IP. Each endpoint class gets its own limiter instance, so a client's order
// creations never count against its webhook budget.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientip.FromRequest(c.Request)

		res, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			// Fail open when the shared backend is unreachable
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", res.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", res.ResetAt.Unix()))

		if !res.Allowed {
			retryAfter := res.RetryAfterSeconds(time.Now())

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"limit":       res.Limit,
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
