package repository

import (
	"context"

	"vindoc-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationLogRepository struct {
	collection *mongo.Collection
}

func NewNotificationLogRepository(db *mongo.Database) *NotificationLogRepository {
	return &NotificationLogRepository{
		collection: db.Collection("notification_logs"),
	}
}

// FindByVehicleIDs reads every log entry for the given vehicles.
func (r *NotificationLogRepository) FindByVehicleIDs(ctx context.Context, vehicleIDs []primitive.ObjectID) ([]*models.NotificationLogEntry, error) {
	if len(vehicleIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"vehicle_id": 1, "alert_type": 1, "bucket": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"vehicle_id": bson.M{"$in": vehicleIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*models.NotificationLogEntry
	for cursor.Next(ctx) {
		var entry models.NotificationLogEntry
		if err := cursor.Decode(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	return entries, cursor.Err()
}

// Insert writes a log entry. A conflict on (vehicle_id, alert_type, bucket) returns ErrDuplicate.
func (r *NotificationLogRepository) Insert(ctx context.Context, entry *models.NotificationLogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, entry)
	return translateError(err)
}

func (r *NotificationLogRepository) CreateIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "vehicle_id", Value: 1},
				{Key: "alert_type", Value: 1},
				{Key: "bucket", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_vehicle_alert_bucket"),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "sent_at", Value: -1}}},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type NotificationHistoryRepository struct {
	collection *mongo.Collection
}

func NewNotificationHistoryRepository(db *mongo.Database) *NotificationHistoryRepository {
	return &NotificationHistoryRepository{
		collection: db.Collection("notification_history"),
	}
}

func (r *NotificationHistoryRepository) InsertMany(ctx context.Context, records []*models.NotificationHistory) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	docs := make([]interface{}, 0, len(records))
	for _, rec := range records {
		if rec.ID.IsZero() {
			rec.ID = primitive.NewObjectID()
		}
		docs = append(docs, rec)
	}

	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *NotificationHistoryRepository) CreateIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "vehicle_id", Value: 1}}},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
