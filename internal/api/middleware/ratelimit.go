package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"vindoc-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RateLimitMiddleware limits requests per client within one category.
func RateLimitMiddleware(limiter ratelimit.Limiter, category string, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, resetTime, err := limiter.Allow(c.Request.Context(), clientID(c), category)
		if err != nil {
			// fail open; Redis trouble should not take the API down
			log.WithError(err).WithField("category", category).Warn("rate limiter unavailable")
			c.Header("X-RateLimit-Error", "Rate limiter unavailable")
			c.Next()
			return
		}

		limit := limiter.Limit(category)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		c.Header("X-RateLimit-Window", strconv.Itoa(int(limit.Window.Seconds())))

		if !allowed {
			retryAfter := int(math.Ceil(resetTime.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(resetTime).Unix(), 10))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":    false,
				"message":    fmt.Sprintf("Too many requests. Try again in %ds", retryAfter),
				"code":       "RATE_LIMIT_EXCEEDED",
				"retryAfter": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// clientID prefers the authenticated user and falls back to the client IP.
func clientID(c *gin.Context) string {
	if uid := c.GetString("user_id"); uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.ClientIP()
}
