package services

import "errors"

var (
	// ErrLogUnavailable aborts a run when previously sent notifications cannot be read.
	ErrLogUnavailable = errors.New("notification log unavailable")
	ErrRunInProgress  = errors.New("another run holds the lock")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnknownSource  = errors.New("unknown alert source")
	ErrUnknownStatus  = errors.New("unknown call status")
)

// Skip and failure reasons reported by jobs.
const (
	ReasonNoOwner        = "no_owner"
	ReasonVehicleMissing = "vehicle_not_found"
	ReasonUserMissing    = "user_not_found"
	ReasonUserLookup     = "user_lookup_failed"
	ReasonNoEmail        = "no_email"
	ReasonRender         = "render_failed"
	ReasonSendFailed     = "send_failed"
	ReasonLogWrite       = "log_write_failed"
	ReasonHistoryWrite   = "history_write_failed"

	ReasonSuspended     = "user_suspended"
	ReasonInvalidPhone  = "invalid_phone"
	ReasonVoiceDisabled = "voice_disabled"
	ReasonCooldown      = "cooldown"
	ReasonDailyLimit    = "daily_limit"
	ReasonVendorFailed  = "vendor_failed"
)
