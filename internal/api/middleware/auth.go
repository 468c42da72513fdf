package middleware

import (
	"net/http"
	"strings"

	"vindoc-backend/pkg/jwt"
	"vindoc-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware validates the bearer token and stores its claims on the context.
func AuthMiddleware(jwtUtil *jwt.JWTUtil, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required", nil)
			c.Abort()
			return
		}

		// Handle both "Bearer token" and just "token" formats
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := jwtUtil.ValidateToken(tokenString)
		if err != nil {
			log.WithError(err).WithField("path", c.FullPath()).Debug("token rejected")
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token", nil)
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole rejects callers whose token role is not in roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		utils.ErrorResponse(c, http.StatusForbidden, "Insufficient permissions", nil)
		c.Abort()
	}
}
