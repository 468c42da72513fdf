package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"vindoc-backend/internal/config"
	"vindoc-backend/internal/services"
	"vindoc-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ExpiryRunner interface {
	Run(ctx context.Context, opts services.RunOptions) (*services.RunReport, error)
}

type VoiceRunner interface {
	Run(ctx context.Context) (*services.VoiceRunReport, error)
}

// JobsHandler exposes the scheduler trigger endpoints.
type JobsHandler struct {
	expiry ExpiryRunner
	voice  VoiceRunner
	log    logrus.FieldLogger
}

// NewJobsHandler builds the handler. voice may be nil when the voice vendor
// is not configured.
func NewJobsHandler(expiry ExpiryRunner, voice VoiceRunner, log logrus.FieldLogger) *JobsHandler {
	return &JobsHandler{expiry: expiry, voice: voice, log: log}
}

// RunExpiryAlerts runs one expiry alert pass. ?dryRun=true renders without sending.
func (h *JobsHandler) RunExpiryAlerts(c *gin.Context) {
	dryRun := false
	if raw := c.Query("dryRun"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "dryRun must be a boolean", err)
			return
		}
		dryRun = v
	}

	report, err := h.expiry.Run(c.Request.Context(), services.RunOptions{DryRun: dryRun})
	if err != nil {
		status := jobErrorStatus(err)
		h.log.WithError(err).WithField("status_code", status).Warn("expiry alert trigger failed")
		utils.ErrorResponse(c, status, "Expiry alert run failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Expiry alert run completed", report)
}

func (h *JobsHandler) RunVoiceReminders(c *gin.Context) {
	if h.voice == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Voice reminders are not configured", config.ErrMissingCredentials)
		return
	}

	report, err := h.voice.Run(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Warn("voice reminder trigger failed")
		utils.ErrorResponse(c, jobErrorStatus(err), "Voice reminder run failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Voice reminder run completed", report)
}

func jobErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, config.ErrMissingCredentials), errors.Is(err, services.ErrLogUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrUnknownSource):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
