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

type VehicleRepository struct {
	collection *mongo.Collection
}

func NewVehicleRepository(db *mongo.Database) *VehicleRepository {
	return &VehicleRepository{
		collection: db.Collection("vehicles"),
	}
}

func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*models.Vehicle, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var vehicle models.Vehicle
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&vehicle); err != nil {
		return nil, translateError(err)
	}

	return &vehicle, nil
}

func (r *VehicleRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Vehicle, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// FindWithDocumentsDueBefore returns vehicles with at least one document expiring on or before cutoff.
func (r *VehicleRepository) FindWithDocumentsDueBefore(ctx context.Context, cutoff time.Time) ([]*models.Vehicle, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"insurance_expiry": bson.M{"$lte": cutoff}},
			{"pucc_expiry": bson.M{"$lte": cutoff}},
			{"fitness_expiry": bson.M{"$lte": cutoff}},
			{"road_tax_expiry": bson.M{"$lte": cutoff}},
		},
	}
	return r.find(ctx, filter)
}

// FindRegisteredBefore returns vehicles whose registration date is earlier than cutoff.
func (r *VehicleRepository) FindRegisteredBefore(ctx context.Context, cutoff time.Time) ([]*models.Vehicle, error) {
	return r.find(ctx, bson.M{"registration_date": bson.M{"$lt": cutoff}})
}

func (r *VehicleRepository) find(ctx context.Context, filter bson.M) ([]*models.Vehicle, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var vehicles []*models.Vehicle
	for cursor.Next(ctx) {
		var vehicle models.Vehicle
		if err := cursor.Decode(&vehicle); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, &vehicle)
	}

	return vehicles, cursor.Err()
}

func (r *VehicleRepository) CreateIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "registration_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "insurance_expiry", Value: 1}}},
		{Keys: bson.D{{Key: "pucc_expiry", Value: 1}}},
		{Keys: bson.D{{Key: "fitness_expiry", Value: 1}}},
		{Keys: bson.D{{Key: "road_tax_expiry", Value: 1}}},
		{Keys: bson.D{{Key: "registration_date", Value: 1}}},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
