package repository

import (
	"context"
	"scooter-backend/internal/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repositories return (nil, nil) when a document does not exist; the service
// layer turns that into its NotFound error. An unparsable hex id resolves to
// no document, not an error.

type ScooterRepository struct {
	collection *mongo.Collection
}

func NewScooterRepository(db *mongo.Database) *ScooterRepository {
	return &ScooterRepository{
		collection: db.Collection("scooters"),
	}
}

func (r *ScooterRepository) Insert(scooter *models.Scooter) (*models.Scooter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, scooter)
	if err != nil {
		return nil, err
	}

	scooter.ID = result.InsertedID.(primitive.ObjectID)
	return scooter, nil
}

func (r *ScooterRepository) FindByID(id string) (*models.Scooter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var scooter models.Scooter
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&scooter)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &scooter, nil
}

func (r *ScooterRepository) FindAll() ([]*models.Scooter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Most recently touched scooters first
	opts := options.Find().SetSort(bson.D{{Key: "last_updated", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeScooters(ctx, cursor)
}

func (r *ScooterRepository) FindByStatus(status string) ([]*models.Scooter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeScooters(ctx, cursor)
}

// FindAvailable returns scooters that are free with battery strictly above
// the given level, i.e. the rentable fleet.
func (r *ScooterRepository) FindAvailable(minBattery int) ([]*models.Scooter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":  models.ScooterStatusFree,
		"battery": bson.M{"$gt": minBattery},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeScooters(ctx, cursor)
}

func (r *ScooterRepository) Update(id string, scooter *models.Scooter) (*models.Scooter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	scooter.UpdatedAt = time.Now().UTC()

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": scooter},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Scooter
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &updated, nil
}

func (r *ScooterRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	return err
}

func (r *ScooterRepository) Count() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{})
}

// CreateIndexes creates necessary indexes for the scooters collection
func (r *ScooterRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "battery", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "last_updated", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func decodeScooters(ctx context.Context, cursor *mongo.Cursor) ([]*models.Scooter, error) {
	var scooters []*models.Scooter
	for cursor.Next(ctx) {
		var scooter models.Scooter
		if err := cursor.Decode(&scooter); err != nil {
			return nil, err
		}
		scooters = append(scooters, &scooter)
	}
	return scooters, nil
}
