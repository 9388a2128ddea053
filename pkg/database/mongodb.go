package database

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// Connect establishes a connection to MongoDB and returns a handle to the
// database named in the URI, or fallbackName when the URI omits one.
func Connect(mongoURI, fallbackName string) (*mongo.Database, error) {
	cs, err := connstring.ParseAndValidate(mongoURI)
	if err != nil {
		return nil, fmt.Errorf("invalid MongoDB URI: %v", err)
	}

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	log.Info("Successfully connected to MongoDB")

	dbName := cs.Database
	if dbName == "" {
		dbName = fallbackName
	}

	return client.Database(dbName), nil
}

// Disconnect closes the MongoDB connection
func Disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %v", err)
	}

	log.Info("Disconnected from MongoDB")
	return nil
}

// Health checks the database connection health
func Health(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return db.Client().Ping(ctx, nil)
}
