package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const defaultDatabase = "vindoc"

// Indexer is implemented by repositories that own collection indexes.
type Indexer interface {
	CreateIndexes(ctx context.Context) error
}

// Connect establishes a connection to MongoDB and returns the database named
// in the URI, or "vindoc" when the URI names none.
func Connect(ctx context.Context, mongoURI string) (*mongo.Database, error) {
	cs, err := connstring.ParseAndValidate(mongoURI)
	if err != nil {
		return nil, fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := cs.Database
	if dbName == "" {
		dbName = defaultDatabase
	}

	return client.Database(dbName), nil
}

// EnsureIndexes creates indexes for every repository. Natural-key uniqueness
// depends on these, so a failure is returned rather than logged.
func EnsureIndexes(ctx context.Context, log logrus.FieldLogger, indexers ...Indexer) error {
	for _, idx := range indexers {
		if err := idx.CreateIndexes(ctx); err != nil {
			return fmt.Errorf("create indexes for %T: %w", idx, err)
		}
	}
	log.WithField("repositories", len(indexers)).Info("database indexes ensured")
	return nil
}

func Disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}

// Health checks the database connection health
func Health(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.Client().Ping(ctx, nil)
}
