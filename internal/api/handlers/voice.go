package handlers

import (
	"context"
	"errors"
	"net/http"

	"vindoc-backend/internal/config"
	"vindoc-backend/internal/repository"
	"vindoc-backend/internal/services"
	"vindoc-backend/pkg/jwt"
	"vindoc-backend/pkg/utils"
	"vindoc-backend/pkg/voice"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type VoiceCallGate interface {
	RequestCall(ctx context.Context, req services.VoiceCallRequest) (*services.VoiceCallResult, error)
	ApplyStatusUpdate(ctx context.Context, callID, vendorStatus string) (bool, error)
}

type VoiceHandler struct {
	gate      VoiceCallGate
	signature *voice.SignatureValidator
	// webhookURL is the public URL the vendor signs; empty uses the request URL.
	webhookURL string
	validator  *validator.Validate
	log        logrus.FieldLogger
}

// NewVoiceHandler builds the handler. A nil gate answers 503 and a nil
// signature validator disables webhook signature checks.
func NewVoiceHandler(gate VoiceCallGate, signature *voice.SignatureValidator, webhookURL string, log logrus.FieldLogger) *VoiceHandler {
	return &VoiceHandler{
		gate:       gate,
		signature:  signature,
		webhookURL: webhookURL,
		validator:  validator.New(),
		log:        log,
	}
}

// RequestCall runs the voice gate for one reminder.
func (h *VoiceHandler) RequestCall(c *gin.Context) {
	if h.gate == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Voice calls are not configured", config.ErrMissingCredentials)
		return
	}

	var req services.VoiceCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}
	if !mayCallFor(c, req.UserID) {
		utils.ErrorResponse(c, http.StatusForbidden, "Cannot request calls for another user", nil)
		return
	}

	result, err := h.gate.RequestCall(c.Request.Context(), req)
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid voice call request", err)
		return
	case errors.Is(err, repository.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "User or vehicle not found", err)
		return
	case err != nil:
		h.log.WithError(err).WithField("user_id", req.UserID).Error("voice gate failed")
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Voice call could not be evaluated", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Voice call "+result.Outcome, result)
}

// mayCallFor lets schedulers and admins act for any user and everyone else
// only for themselves.
func mayCallFor(c *gin.Context, userID string) bool {
	switch c.GetString("role") {
	case jwt.RoleAdmin, jwt.RoleScheduler:
		return true
	}
	caller := c.GetString("user_id")
	return caller != "" && caller == userID
}

// StatusCallback receives vendor status updates as form posts.
func (h *VoiceHandler) StatusCallback(c *gin.Context) {
	if h.gate == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Voice calls are not configured", config.ErrMissingCredentials)
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid form body", err)
		return
	}

	if h.signature != nil {
		params := make(map[string]string, len(c.Request.PostForm))
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		if !h.signature.Validate(h.callbackURL(c), params, c.GetHeader("X-Twilio-Signature")) {
			h.log.WithField("client_ip", c.ClientIP()).Warn("voice webhook signature rejected")
			utils.ErrorResponse(c, http.StatusForbidden, "Invalid signature", nil)
			return
		}
	}

	callID := c.PostForm("CallSid")
	vendorStatus := c.PostForm("CallStatus")

	changed, err := h.gate.ApplyStatusUpdate(c.Request.Context(), callID, vendorStatus)
	switch {
	case errors.Is(err, services.ErrUnknownStatus), errors.Is(err, services.ErrInvalidRequest):
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid status update", err)
		return
	case errors.Is(err, repository.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Unknown call", err)
		return
	case err != nil:
		h.log.WithError(err).WithField("call_id", callID).Error("voice status update failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Status update failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Status recorded", gin.H{"callId": callID, "changed": changed})
}

func (h *VoiceHandler) callbackURL(c *gin.Context) string {
	if h.webhookURL != "" {
		return h.webhookURL
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}
