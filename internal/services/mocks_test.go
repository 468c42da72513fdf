package services

import (
	"context"
	"encoding/json"
	"time"

	"vindoc-backend/internal/models"
	"vindoc-backend/pkg/ai"
	"vindoc-backend/pkg/email"
	"vindoc-backend/pkg/logger"
	"vindoc-backend/pkg/voice"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testLog = logger.Discard()

type MockVehicleStore struct {
	mock.Mock
}

func (m *MockVehicleStore) FindByID(ctx context.Context, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Vehicle, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Vehicle), args.Error(1)
}

func (m *MockVehicleStore) FindWithDocumentsDueBefore(ctx context.Context, cutoff time.Time) ([]*models.Vehicle, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Vehicle), args.Error(1)
}

func (m *MockVehicleStore) FindRegisteredBefore(ctx context.Context, cutoff time.Time) ([]*models.Vehicle, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Vehicle), args.Error(1)
}

type MockServiceRecordStore struct {
	mock.Mock
}

func (m *MockServiceRecordStore) FindDueBefore(ctx context.Context, cutoff time.Time) ([]*models.ServiceRecord, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ServiceRecord), args.Error(1)
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockNotificationLogStore struct {
	mock.Mock
}

func (m *MockNotificationLogStore) FindByVehicleIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.NotificationLogEntry, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.NotificationLogEntry), args.Error(1)
}

func (m *MockNotificationLogStore) Insert(ctx context.Context, entry *models.NotificationLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) InsertMany(ctx context.Context, records []*models.NotificationHistory) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

type MockVoiceCallStore struct {
	mock.Mock
}

func (m *MockVoiceCallStore) FindCooldown(ctx context.Context, userID, vehicleID primitive.ObjectID, documentType string) (*models.VoiceCallCooldown, error) {
	args := m.Called(ctx, userID, vehicleID, documentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VoiceCallCooldown), args.Error(1)
}

func (m *MockVoiceCallStore) UpsertCooldown(ctx context.Context, userID, vehicleID primitive.ObjectID, documentType string, at time.Time) error {
	args := m.Called(ctx, userID, vehicleID, documentType, at)
	return args.Error(0)
}

func (m *MockVoiceCallStore) CountSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (int64, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVoiceCallStore) InsertLog(ctx context.Context, entry *models.VoiceCallLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockVoiceCallStore) UpdateStatusByCallID(ctx context.Context, callID string, status models.VoiceCallStatus) (bool, error) {
	args := m.Called(ctx, callID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockVoiceCallStore) FindActiveTemplate(ctx context.Context, language string) (*models.VoiceCallTemplate, error) {
	args := m.Called(ctx, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VoiceCallTemplate), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg email.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateJSON(ctx context.Context, req ai.Request) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockGenerator) Model() string {
	return "test-model"
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) PlaceCall(ctx context.Context, req voice.CallRequest) (*voice.CallResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*voice.CallResult), args.Error(1)
}

// fixtures

var testNow = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

func dayOffset(days int) *time.Time {
	t := time.Date(testNow.Year(), testNow.Month(), testNow.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	return &t
}

func testVehicle(owner primitive.ObjectID) *models.Vehicle {
	return &models.Vehicle{
		ID:                 primitive.NewObjectID(),
		OwnerID:            owner,
		RegistrationNumber: "KA01AB1234",
		Make:               "Maruti",
		Model:              "Swift",
		FuelType:           "petrol",
	}
}
