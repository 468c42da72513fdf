package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vindoc-backend/internal/config"
	"vindoc-backend/internal/metrics"
	"vindoc-backend/internal/models"
	"vindoc-backend/internal/repository"
	"vindoc-backend/pkg/voice"

	"github.com/sirupsen/logrus"
	"github.com/ttacon/libphonenumber"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OutcomeDispatched = "dispatched"
	OutcomeSkipped    = "skipped"
	OutcomeFailed     = "failed"
)

type VoiceCallRequest struct {
	UserID        string `json:"userId" validate:"required,len=24,hexadecimal"`
	VehicleID     string `json:"vehicleId" validate:"required,len=24,hexadecimal"`
	DocumentType  string `json:"documentType" validate:"required,oneof=insurance pucc fitness road_tax"`
	DaysRemaining int    `json:"daysRemaining"`
}

type VoiceCallResult struct {
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason,omitempty"`
	CallID   string `json:"callId,omitempty"`
	Language string `json:"language,omitempty"`
}

// VoiceCallService gates and places reminder calls.
type VoiceCallService struct {
	users    UserStore
	vehicles VehicleStore
	calls    VoiceCallStore
	provider voice.Provider
	cfg      config.VoiceConfig
	loc      *time.Location
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewVoiceCallService(users UserStore, vehicles VehicleStore, calls VoiceCallStore, provider voice.Provider, cfg config.VoiceConfig, loc *time.Location, log logrus.FieldLogger) *VoiceCallService {
	if loc == nil {
		loc = time.UTC
	}
	return &VoiceCallService{
		users:    users,
		vehicles: vehicles,
		calls:    calls,
		provider: provider,
		cfg:      cfg,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

// RequestCall runs the gate checks in order and places the call when all pass.
// Gate state reads that fail return an error and no call is placed.
func (s *VoiceCallService) RequestCall(ctx context.Context, req VoiceCallRequest) (*VoiceCallResult, error) {
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user id", ErrInvalidRequest)
	}
	vehicleID, err := primitive.ObjectIDFromHex(req.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("%w: vehicle id", ErrInvalidRequest)
	}
	if _, ok := models.DocumentLabels[req.DocumentType]; !ok {
		return nil, fmt.Errorf("%w: document type %q", ErrInvalidRequest, req.DocumentType)
	}

	log := s.log.WithFields(logrus.Fields{
		"user_id":       req.UserID,
		"vehicle_id":    req.VehicleID,
		"document_type": req.DocumentType,
	})

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if user.IsSuspended() {
		return s.skip(log, ReasonSuspended), nil
	}

	national, e164, ok := NormalizePhone(user.Phone, s.cfg.DefaultRegion)
	if !ok {
		return s.skip(log, ReasonInvalidPhone), nil
	}

	if !user.VoiceAlertsEnabled {
		return s.skip(log, ReasonVoiceDisabled), nil
	}

	now := s.now()
	cooldown, err := s.calls.FindCooldown(ctx, userID, vehicleID, req.DocumentType)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("read cooldown: %w", err)
	case now.Sub(cooldown.LastCallAt) < s.cfg.Cooldown:
		return s.skip(log, ReasonCooldown), nil
	}

	local := now.In(s.loc)
	startOfDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	count, err := s.calls.CountSince(ctx, userID, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("count today's calls: %w", err)
	}
	if s.cfg.MaxCallsPerDay > 0 && count >= int64(s.cfg.MaxCallsPerDay) {
		return s.skip(log, ReasonDailyLimit), nil
	}

	vehicle, err := s.vehicles.FindByID(ctx, req.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("load vehicle: %w", err)
	}
	if vehicle.OwnerID != userID {
		log.Warn("voice call refused: vehicle belongs to another user")
		return nil, fmt.Errorf("%w: vehicle not owned by user", ErrInvalidRequest)
	}

	script, language := s.renderScript(ctx, user, vehicle, req)

	entry := &models.VoiceCallLog{
		UserID:        userID,
		VehicleID:     vehicleID,
		DocumentType:  req.DocumentType,
		PhoneNumber:   national,
		Language:      language,
		DaysRemaining: req.DaysRemaining,
		CreatedAt:     now,
	}

	call, err := s.provider.PlaceCall(ctx, voice.CallRequest{To: e164, Script: script, Language: language})
	if err != nil {
		entry.Status = models.VoiceCallFailed
		entry.Error = err.Error()
		if logErr := s.calls.InsertLog(ctx, entry); logErr != nil {
			log.WithError(logErr).Error("failed call could not be logged")
		}
		log.WithError(err).Warn("voice vendor call failed")
		metrics.VoiceCalls.WithLabelValues(OutcomeFailed, ReasonVendorFailed).Inc()
		return &VoiceCallResult{Outcome: OutcomeFailed, Reason: ReasonVendorFailed, Language: language}, nil
	}

	entry.CallID = call.CallID
	entry.Status = models.VoiceCallInitiated
	if err := s.calls.InsertLog(ctx, entry); err != nil {
		log.WithError(err).WithField("call_id", call.CallID).Error("call placed but log write failed")
	}
	if err := s.calls.UpsertCooldown(ctx, userID, vehicleID, req.DocumentType, now); err != nil {
		log.WithError(err).WithField("call_id", call.CallID).Error("call placed but cooldown write failed")
	}

	log.WithFields(logrus.Fields{"call_id": call.CallID, "language": language}).Info("voice reminder dispatched")
	metrics.VoiceCalls.WithLabelValues(OutcomeDispatched, "").Inc()
	return &VoiceCallResult{Outcome: OutcomeDispatched, CallID: call.CallID, Language: language}, nil
}

func (s *VoiceCallService) skip(log logrus.FieldLogger, reason string) *VoiceCallResult {
	log.WithField("reason", reason).Info("voice reminder skipped")
	metrics.VoiceCalls.WithLabelValues(OutcomeSkipped, reason).Inc()
	return &VoiceCallResult{Outcome: OutcomeSkipped, Reason: reason}
}

// ApplyStatusUpdate records a vendor status callback. It reports false for a
// repeated or out-of-order status and repository.ErrNotFound for an unknown call id.
func (s *VoiceCallService) ApplyStatusUpdate(ctx context.Context, callID, vendorStatus string) (bool, error) {
	status, ok := voice.NormalizeStatus(vendorStatus)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownStatus, vendorStatus)
	}
	if strings.TrimSpace(callID) == "" {
		return false, fmt.Errorf("%w: call id", ErrInvalidRequest)
	}

	changed, err := s.calls.UpdateStatusByCallID(ctx, callID, models.VoiceCallStatus(status))
	if err != nil {
		return false, err
	}
	if changed {
		s.log.WithFields(logrus.Fields{"call_id": callID, "status": status}).Info("voice call status updated")
	}
	return changed, nil
}

// NormalizePhone parses raw in region and returns the 10-digit national number
// and its E.164 form. Numbers from another country are rejected.
func NormalizePhone(raw, region string) (national, e164 string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", false
	}
	if region == "" {
		region = "IN"
	}

	num, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return "", "", false
	}

	if int(num.GetCountryCode()) != libphonenumber.GetCountryCodeForRegion(region) {
		return "", "", false
	}

	national = strconv.FormatUint(num.GetNationalNumber(), 10)
	if len(national) != 10 {
		return "", "", false
	}
	return national, libphonenumber.Format(num, libphonenumber.E164), true
}
