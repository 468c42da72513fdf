package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"vindoc-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockVoiceGate struct {
	mock.Mock
}

func (m *MockVoiceGate) RequestCall(ctx context.Context, req VoiceCallRequest) (*VoiceCallResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*VoiceCallResult), args.Error(1)
}

func TestVoiceReminderJob_OnlyUrgentBuckets(t *testing.T) {
	vehicles := new(MockVehicleStore)
	gate := new(MockVoiceGate)

	owner := primitive.NewObjectID()
	v := testVehicle(owner)
	v.InsuranceExpiry = dayOffset(3) // 7_day
	v.PUCCExpiry = dayOffset(-2)     // expired
	v.FitnessExpiry = dayOffset(20)  // 30_day, not voiced

	vehicles.On("FindWithDocumentsDueBefore", mock.Anything, mock.Anything).Return([]*models.Vehicle{v}, nil)
	gate.On("RequestCall", mock.Anything, VoiceCallRequest{
		UserID: owner.Hex(), VehicleID: v.ID.Hex(), DocumentType: models.DocumentInsurance, DaysRemaining: 3,
	}).Return(&VoiceCallResult{Outcome: OutcomeDispatched, CallID: "CA1"}, nil)
	gate.On("RequestCall", mock.Anything, VoiceCallRequest{
		UserID: owner.Hex(), VehicleID: v.ID.Hex(), DocumentType: models.DocumentPUCC, DaysRemaining: -2,
	}).Return(&VoiceCallResult{Outcome: OutcomeSkipped, Reason: ReasonCooldown}, nil)

	job := NewVoiceReminderJob(vehicles, gate, []string{"7_day", "expired"}, nil, testLog)
	job.now = func() time.Time { return testNow }

	report, err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 1, report.Dispatched)
	assert.Equal(t, 1, report.Skipped[ReasonCooldown])
	gate.AssertNumberOfCalls(t, "RequestCall", 2)
}

func TestVoiceReminderJob_GateErrorIsolated(t *testing.T) {
	vehicles := new(MockVehicleStore)
	gate := new(MockVoiceGate)

	first := testVehicle(primitive.NewObjectID())
	first.InsuranceExpiry = dayOffset(1)
	second := testVehicle(primitive.NewObjectID())
	second.InsuranceExpiry = dayOffset(2)
	orphan := testVehicle(primitive.NilObjectID)
	orphan.InsuranceExpiry = dayOffset(1)

	vehicles.On("FindWithDocumentsDueBefore", mock.Anything, mock.Anything).Return([]*models.Vehicle{first, orphan, second}, nil)
	gate.On("RequestCall", mock.Anything, mock.MatchedBy(func(r VoiceCallRequest) bool { return r.VehicleID == first.ID.Hex() })).
		Return(nil, errors.New("mongo down"))
	gate.On("RequestCall", mock.Anything, mock.MatchedBy(func(r VoiceCallRequest) bool { return r.VehicleID == second.ID.Hex() })).
		Return(&VoiceCallResult{Outcome: OutcomeFailed, Reason: ReasonVendorFailed}, nil)

	job := NewVoiceReminderJob(vehicles, gate, []string{"7_day", "expired"}, nil, testLog)
	job.now = func() time.Time { return testNow }

	report, err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, first.ID.Hex(), report.Errors[0].VehicleID)
}

func TestVoiceReminderJob_LoadFailure(t *testing.T) {
	vehicles := new(MockVehicleStore)
	vehicles.On("FindWithDocumentsDueBefore", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	job := NewVoiceReminderJob(vehicles, new(MockVoiceGate), []string{"7_day"}, nil, testLog)
	_, err := job.Run(context.Background())

	assert.Error(t, err)
}
