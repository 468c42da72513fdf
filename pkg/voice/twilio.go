package voice

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"vindoc-backend/internal/config"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// Canonical call statuses shared with the call log.
const (
	StatusInitiated = "initiated"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusNoAnswer  = "no_answer"
	StatusBusy      = "busy"
)

var ErrNoCallID = errors.New("voice: vendor returned no call id")

type CallRequest struct {
	// To is an E.164 number.
	To       string
	Script   string
	Language string
}

type CallResult struct {
	CallID string
	Status string
}

// Provider places outbound reminder calls.
type Provider interface {
	PlaceCall(ctx context.Context, req CallRequest) (*CallResult, error)
}

type callCreator interface {
	CreateCall(params *api.CreateCallParams) (*api.ApiV2010Call, error)
}

type TwilioProvider struct {
	calls     callCreator
	callerID  string
	agentID   string
	statusURL string
	timeout   time.Duration
}

func NewTwilioProvider(cfg config.VoiceConfig) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioProvider{
		calls:     client.Api,
		callerID:  cfg.CallerID,
		agentID:   cfg.AgentID,
		statusURL: cfg.StatusWebhookURL,
		timeout:   cfg.Timeout,
	}
}

func (t *TwilioProvider) buildParams(req CallRequest) *api.CreateCallParams {
	params := &api.CreateCallParams{}
	params.SetTo(req.To)
	params.SetFrom(t.callerID)
	params.SetTimeout(30)

	// a configured application SID owns the conversation, otherwise we speak the script
	if t.agentID != "" {
		params.SetApplicationSid(t.agentID)
	} else {
		params.SetTwiml(BuildTwiML(req.Script, req.Language))
	}

	if t.statusURL != "" {
		params.SetStatusCallback(t.statusURL)
		params.SetStatusCallbackMethod("POST")
		params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	}
	return params
}

// PlaceCall creates the call. The twilio client has no context support, so the
// deadline is enforced around the request; a late vendor success is discarded.
func (t *TwilioProvider) PlaceCall(ctx context.Context, req CallRequest) (*CallResult, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	type outcome struct {
		call *api.ApiV2010Call
		err  error
	}
	done := make(chan outcome, 1)
	params := t.buildParams(req)

	go func() {
		call, err := t.calls.CreateCall(params)
		done <- outcome{call: call, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("voice: create call: %w", ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("voice: create call: %w", out.err)
		}
		if out.call == nil || out.call.Sid == nil || *out.call.Sid == "" {
			return nil, ErrNoCallID
		}
		status := StatusInitiated
		if out.call.Status != nil {
			if s, ok := NormalizeStatus(string(*out.call.Status)); ok {
				status = s
			}
		}
		return &CallResult{CallID: *out.call.Sid, Status: status}, nil
	}
}

var sayLanguages = map[string]string{
	"en": "en-IN",
	"hi": "hi-IN",
	"ta": "ta-IN",
	"te": "te-IN",
	"kn": "kn-IN",
	"ml": "ml-IN",
	"mr": "mr-IN",
	"bn": "bn-IN",
	"gu": "gu-IN",
}

// BuildTwiML wraps script in a <Say> verb for the given language.
func BuildTwiML(script, language string) string {
	lang, ok := sayLanguages[strings.ToLower(language)]
	if !ok {
		lang = sayLanguages["en"]
	}

	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(script))

	return fmt.Sprintf(`<Response><Say language="%s">%s</Say><Pause length="1"/></Response>`, lang, escaped.String())
}

// NormalizeStatus maps a vendor call status to the canonical set.
func NormalizeStatus(vendor string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(vendor)) {
	case "queued", "initiated", "ringing", "in-progress", "answered":
		return StatusInitiated, true
	case "completed":
		return StatusCompleted, true
	case "busy":
		return StatusBusy, true
	case "no-answer", StatusNoAnswer:
		return StatusNoAnswer, true
	case "failed", "canceled", "cancelled":
		return StatusFailed, true
	default:
		return "", false
	}
}

// SignatureValidator checks the X-Twilio-Signature header of webhook requests.
type SignatureValidator struct {
	validator twclient.RequestValidator
}

func NewSignatureValidator(authToken string) *SignatureValidator {
	return &SignatureValidator{validator: twclient.NewRequestValidator(authToken)}
}

func (v *SignatureValidator) Validate(url string, params map[string]string, signature string) bool {
	if signature == "" {
		return false
	}
	return v.validator.Validate(url, params, signature)
}
