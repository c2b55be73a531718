package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware shares one token bucket across all clients, with a
// burst of twice rps. /health is never limited.
func RateLimitMiddleware(rps int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), 2*rps)

	return func(c *gin.Context) {
		if c.FullPath() == "/health" {
			c.Next()
			return
		}
		if !limiter.Allow() {
			retry := int(math.Ceil(1 / float64(limiter.Limit())))
			c.Header("Retry-After", strconv.Itoa(max(retry, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
