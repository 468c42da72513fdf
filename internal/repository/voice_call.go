package repository

import (
	"context"
	"time"

	"vindoc-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type VoiceCallRepository struct {
	cooldowns *mongo.Collection
	logs      *mongo.Collection
	templates *mongo.Collection
}

func NewVoiceCallRepository(db *mongo.Database) *VoiceCallRepository {
	return &VoiceCallRepository{
		cooldowns: db.Collection("voice_call_cooldowns"),
		logs:      db.Collection("voice_call_logs"),
		templates: db.Collection("voice_call_templates"),
	}
}

func (r *VoiceCallRepository) FindCooldown(ctx context.Context, userID, vehicleID primitive.ObjectID, documentType string) (*models.VoiceCallCooldown, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"user_id":       userID,
		"vehicle_id":    vehicleID,
		"document_type": documentType,
	}

	var cooldown models.VoiceCallCooldown
	if err := r.cooldowns.FindOne(ctx, filter).Decode(&cooldown); err != nil {
		return nil, translateError(err)
	}

	return &cooldown, nil
}

// UpsertCooldown sets last_call_at for the natural key, creating the row if needed.
func (r *VoiceCallRepository) UpsertCooldown(ctx context.Context, userID, vehicleID primitive.ObjectID, documentType string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"user_id":       userID,
		"vehicle_id":    vehicleID,
		"document_type": documentType,
	}
	update := bson.M{"$set": bson.M{"last_call_at": at}}

	_, err := r.cooldowns.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// CountSince counts calls for a user created at or after since, excluding failed attempts.
func (r *VoiceCallRepository) CountSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"user_id":    userID,
		"created_at": bson.M{"$gte": since},
		"status":     bson.M{"$ne": models.VoiceCallFailed},
	}

	return r.logs.CountDocuments(ctx, filter)
}

func (r *VoiceCallRepository) InsertLog(ctx context.Context, entry *models.VoiceCallLog) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.UpdatedAt = entry.CreatedAt

	_, err := r.logs.InsertOne(ctx, entry)
	return translateError(err)
}

// UpdateStatusByCallID moves an initiated log to a final status. It reports
// false for a repeated or stale status, and ErrNotFound when no log has the
// call id.
func (r *VoiceCallRepository) UpdateStatusByCallID(ctx context.Context, callID string, status models.VoiceCallStatus) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// Callbacks arrive out of order. Only an initiated call moves, and only to
	// a final status, so a late ringing never reopens a finished call.
	if status != models.VoiceCallInitiated {
		filter := bson.M{
			"call_id": callID,
			"status":  models.VoiceCallInitiated,
		}
		update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}

		result, err := r.logs.UpdateOne(ctx, filter, update)
		if err != nil {
			return false, err
		}
		if result.MatchedCount > 0 {
			return true, nil
		}
	}

	count, err := r.logs.CountDocuments(ctx, bson.M{"call_id": callID})
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

func (r *VoiceCallRepository) FindActiveTemplate(ctx context.Context, language string) (*models.VoiceCallTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var tmpl models.VoiceCallTemplate
	err := r.templates.FindOne(ctx, bson.M{"language": language, "is_active": true}).Decode(&tmpl)
	if err != nil {
		return nil, translateError(err)
	}

	return &tmpl, nil
}

func (r *VoiceCallRepository) CreateIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.cooldowns.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "vehicle_id", Value: 1},
			{Key: "document_type", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = r.logs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "call_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = r.templates.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "language", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
