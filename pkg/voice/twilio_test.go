package voice

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"sort"
	"testing"
	"time"

	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCalls struct {
	delay  time.Duration
	sid    string
	err    error
	params *api.CreateCallParams
}

func (f *fakeCalls) CreateCall(params *api.CreateCallParams) (*api.ApiV2010Call, error) {
	f.params = params
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	return &api.ApiV2010Call{Sid: &f.sid}, nil
}

func TestPlaceCall_Success(t *testing.T) {
	calls := &fakeCalls{sid: "CA123"}
	p := &TwilioProvider{calls: calls, callerID: "+911234567890", statusURL: "https://api.test/hook", timeout: time.Second}

	res, err := p.PlaceCall(context.Background(), CallRequest{To: "+919876543210", Script: "Hello & welcome", Language: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "CA123", res.CallID)
	assert.Equal(t, StatusInitiated, res.Status)

	require.NotNil(t, calls.params.Twiml)
	assert.Contains(t, *calls.params.Twiml, `language="hi-IN"`)
	assert.Contains(t, *calls.params.Twiml, "Hello &amp; welcome")
	assert.Equal(t, "https://api.test/hook", *calls.params.StatusCallback)
	assert.Nil(t, calls.params.ApplicationSid)
}

func TestPlaceCall_AgentID(t *testing.T) {
	calls := &fakeCalls{sid: "CA9"}
	p := &TwilioProvider{calls: calls, callerID: "+1", agentID: "AP42"}

	_, err := p.PlaceCall(context.Background(), CallRequest{To: "+919876543210", Script: "x"})
	require.NoError(t, err)
	assert.Equal(t, "AP42", *calls.params.ApplicationSid)
	assert.Nil(t, calls.params.Twiml)
}

func TestPlaceCall_Errors(t *testing.T) {
	p := &TwilioProvider{calls: &fakeCalls{err: errors.New("401 unauthorized")}}
	_, err := p.PlaceCall(context.Background(), CallRequest{To: "+1"})
	assert.Error(t, err)

	p = &TwilioProvider{calls: &fakeCalls{sid: "CA1", delay: 200 * time.Millisecond}, timeout: 20 * time.Millisecond}
	_, err = p.PlaceCall(context.Background(), CallRequest{To: "+1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	p = &TwilioProvider{calls: &fakeCalls{sid: ""}}
	_, err = p.PlaceCall(context.Background(), CallRequest{To: "+1"})
	assert.ErrorIs(t, err, ErrNoCallID)
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"queued":      StatusInitiated,
		"ringing":     StatusInitiated,
		"in-progress": StatusInitiated,
		"completed":   StatusCompleted,
		"busy":        StatusBusy,
		"no-answer":   StatusNoAnswer,
		"canceled":    StatusFailed,
		"failed":      StatusFailed,
	}
	for in, want := range cases {
		got, ok := NormalizeStatus(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := NormalizeStatus("teleported")
	assert.False(t, ok)
}

func TestBuildTwiML_DefaultLanguage(t *testing.T) {
	assert.Contains(t, BuildTwiML("hi", "xx"), `language="en-IN"`)
}

func sign(token, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := url
	for _, k := range keys {
		data += k + params[k]
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestSignatureValidator(t *testing.T) {
	url := "https://api.test/api/v1/webhooks/voice/status"
	params := map[string]string{"CallSid": "CA1", "CallStatus": "completed"}

	v := NewSignatureValidator("secret")
	assert.True(t, v.Validate(url, params, sign("secret", url, params)))
	assert.False(t, v.Validate(url, params, sign("other", url, params)))
	assert.False(t, v.Validate(url, params, ""))
}
