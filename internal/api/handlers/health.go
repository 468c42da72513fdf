package handlers

import (
	"context"
	"net/http"
	"time"

	"vindoc-backend/pkg/database"
	"vindoc-backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

const healthProbeTimeout = 3 * time.Second

type ComponentStatus struct {
	Healthy      bool   `json:"healthy"`
	Address      string `json:"address,omitempty"`
	ResponseTime string `json:"responseTime,omitempty"`
	Error        string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status       string                     `json:"status"`
	Timestamp    time.Time                  `json:"timestamp"`
	VoiceEnabled bool                       `json:"voiceEnabled"`
	Components   map[string]ComponentStatus `json:"components"`
}

type HealthHandler struct {
	db           *mongo.Database
	redisClient  *redis.Client
	voiceEnabled bool
}

func NewHealthHandler(db *mongo.Database, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redisClient: redisClient}
}

// WithVoice reports whether the voice gate was configured at startup.
func (h *HealthHandler) WithVoice(enabled bool) *HealthHandler {
	h.voiceEnabled = enabled
	return h
}

// HealthCheck answers 503 only when Mongo is down. Redis carries the advice
// cache, run lock and rate limits, all of which degrade without it.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
	defer cancel()

	mongoStatus := h.probeMongo(ctx)
	redisStatus := h.probeRedis(ctx)

	resp := HealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now().UTC(),
		VoiceEnabled: h.voiceEnabled,
		Components: map[string]ComponentStatus{
			"mongodb": mongoStatus,
			"redis":   redisStatus,
		},
	}

	code := http.StatusOK
	if !mongoStatus.Healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	} else if !redisStatus.Healthy {
		resp.Status = "degraded"
	}
	c.JSON(code, resp)
}

func (h *HealthHandler) probeMongo(ctx context.Context) ComponentStatus {
	if h.db == nil {
		return ComponentStatus{Error: "not initialized"}
	}
	start := time.Now()
	if err := database.Health(ctx, h.db); err != nil {
		return ComponentStatus{Error: err.Error()}
	}
	return ComponentStatus{Healthy: true, ResponseTime: time.Since(start).String()}
}

func (h *HealthHandler) probeRedis(ctx context.Context) ComponentStatus {
	if h.redisClient == nil {
		return ComponentStatus{Error: "not initialized"}
	}
	health := h.redisClient.HealthCheck(ctx)
	return ComponentStatus{
		Healthy:      health.IsConnected,
		Address:      health.Address,
		ResponseTime: health.ResponseTime.String(),
		Error:        health.Error,
	}
}
