package routes

import (
	"vindoc-backend/internal/api/handlers"
	"vindoc-backend/internal/api/middleware"
	"vindoc-backend/pkg/jwt"
	"vindoc-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Dependencies struct {
	Health  *handlers.HealthHandler
	Jobs    *handlers.JobsHandler
	Voice   *handlers.VoiceHandler
	JWT     *jwt.JWTUtil
	Limiter ratelimit.Limiter // nil disables rate limiting
	Log     logrus.FieldLogger
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	limit := func(category string) gin.HandlerFunc {
		if deps.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimitMiddleware(deps.Limiter, category, deps.Log)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.GET("/health", deps.Health.HealthCheck)

	// Vendor callbacks authenticate by signature, not token
	webhooks := api.Group("/webhooks")
	webhooks.Use(limit(ratelimit.CategoryWebhook))
	{
		webhooks.POST("/voice/status", deps.Voice.StatusCallback)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(deps.JWT, deps.Log))
	{
		jobs := protected.Group("/jobs")
		jobs.Use(middleware.RequireRole(jwt.RoleAdmin, jwt.RoleScheduler), limit(ratelimit.CategoryJobs))
		{
			jobs.POST("/expiry-alerts", deps.Jobs.RunExpiryAlerts)
			jobs.POST("/voice-reminders", deps.Jobs.RunVoiceReminders)
		}

		protected.POST("/voice-calls", limit(ratelimit.CategoryVoiceCalls), deps.Voice.RequestCall)
	}
}
