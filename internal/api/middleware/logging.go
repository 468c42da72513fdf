package middleware

import (
	"time"

	"vindoc-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id and logs it on completion.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(utils.RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
		})
		if uid := c.GetString("user_id"); uid != "" {
			entry = entry.WithField("user_id", uid)
		}

		switch {
		case c.Writer.Status() >= 500:
			entry.Error("API request processed")
		case c.Writer.Status() >= 400:
			entry.Warn("API request processed")
		default:
			entry.Info("API request processed")
		}
	}
}
