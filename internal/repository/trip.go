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

type TripRepository struct {
	collection *mongo.Collection
}

func NewTripRepository(db *mongo.Database) *TripRepository {
	return &TripRepository{
		collection: db.Collection("trips"),
	}
}

func (r *TripRepository) Insert(trip *models.Trip) (*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, trip)
	if err != nil {
		return nil, err
	}

	trip.ID = result.InsertedID.(primitive.ObjectID)
	return trip, nil
}

func (r *TripRepository) FindByID(id string) (*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var trip models.Trip
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &trip, nil
}

func (r *TripRepository) FindAll() ([]*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeTrips(ctx, cursor)
}

func (r *TripRepository) FindOpen() ([]*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"end_time": nil}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeTrips(ctx, cursor)
}

// FindOpenByScooterID returns the scooter's open trip, nil when there is
// none. At most one open trip per scooter exists at any time.
func (r *TripRepository) FindOpenByScooterID(scooterID primitive.ObjectID) (*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var trip models.Trip
	err := r.collection.FindOne(ctx, bson.M{"scooter_id": scooterID, "end_time": nil}).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &trip, nil
}

func (r *TripRepository) Update(id string, trip *models.Trip) (*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": trip},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Trip
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &updated, nil
}

// Delete exists for the engine's compensation path only; trips are never
// removed through the API.
func (r *TripRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	return err
}

// CreateIndexes creates necessary indexes for the trips collection
func (r *TripRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "scooter_id", Value: 1}, {Key: "end_time", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "start_time", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func decodeTrips(ctx context.Context, cursor *mongo.Cursor) ([]*models.Trip, error) {
	var trips []*models.Trip
	for cursor.Next(ctx) {
		var trip models.Trip
		if err := cursor.Decode(&trip); err != nil {
			return nil, err
		}
		trips = append(trips, &trip)
	}
	return trips, nil
}
