package services

import (
	"context"
	"time"

	"vindoc-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Narrow views of the repositories so services can be exercised with mocks.

type VehicleStore interface {
	FindByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Vehicle, error)
	FindWithDocumentsDueBefore(ctx context.Context, cutoff time.Time) ([]*models.Vehicle, error)
	FindRegisteredBefore(ctx context.Context, cutoff time.Time) ([]*models.Vehicle, error)
}

type ServiceRecordStore interface {
	FindDueBefore(ctx context.Context, cutoff time.Time) ([]*models.ServiceRecord, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type NotificationLogStore interface {
	FindByVehicleIDs(ctx context.Context, vehicleIDs []primitive.ObjectID) ([]*models.NotificationLogEntry, error)
	Insert(ctx context.Context, entry *models.NotificationLogEntry) error
}

type HistoryStore interface {
	InsertMany(ctx context.Context, records []*models.NotificationHistory) error
}

type VoiceCallStore interface {
	FindCooldown(ctx context.Context, userID, vehicleID primitive.ObjectID, documentType string) (*models.VoiceCallCooldown, error)
	UpsertCooldown(ctx context.Context, userID, vehicleID primitive.ObjectID, documentType string, at time.Time) error
	CountSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (int64, error)
	InsertLog(ctx context.Context, entry *models.VoiceCallLog) error
	UpdateStatusByCallID(ctx context.Context, callID string, status models.VoiceCallStatus) (bool, error)
	FindActiveTemplate(ctx context.Context, language string) (*models.VoiceCallTemplate, error)
}
