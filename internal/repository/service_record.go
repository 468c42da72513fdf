package repository

import (
	"context"
	"time"

	"vindoc-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ServiceRecordRepository struct {
	collection *mongo.Collection
}

func NewServiceRecordRepository(db *mongo.Database) *ServiceRecordRepository {
	return &ServiceRecordRepository{
		collection: db.Collection("service_records"),
	}
}

// FindDueBefore returns records with a next due date on or before cutoff, oldest due first.
func (r *ServiceRecordRepository) FindDueBefore(ctx context.Context, cutoff time.Time) ([]*models.ServiceRecord, error) {
	filter := bson.M{
		"next_due_date": bson.M{
			"$ne":  nil,
			"$lte": cutoff,
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "next_due_date", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *ServiceRecordRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.ServiceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*models.ServiceRecord
	for cursor.Next(ctx) {
		var record models.ServiceRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}

	return records, cursor.Err()
}

func (r *ServiceRecordRepository) CreateIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "vehicle_id", Value: 1}}},
		{Keys: bson.D{{Key: "next_due_date", Value: 1}}},
		{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "service_date", Value: -1}}},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
