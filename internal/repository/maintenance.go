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

type MaintenanceRepository struct {
	collection *mongo.Collection
}

func NewMaintenanceRepository(db *mongo.Database) *MaintenanceRepository {
	return &MaintenanceRepository{
		collection: db.Collection("maintenance_records"),
	}
}

func (r *MaintenanceRepository) Insert(record *models.MaintenanceRecord) (*models.MaintenanceRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return nil, err
	}

	record.ID = result.InsertedID.(primitive.ObjectID)
	return record, nil
}

func (r *MaintenanceRepository) FindByID(id string) (*models.MaintenanceRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var record models.MaintenanceRecord
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &record, nil
}

func (r *MaintenanceRepository) FindAll() ([]*models.MaintenanceRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeRecords(ctx, cursor)
}

func (r *MaintenanceRepository) FindByScooterID(scooterID primitive.ObjectID) ([]*models.MaintenanceRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"scooter_id": scooterID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeRecords(ctx, cursor)
}

// FindActiveByScooterID returns the scooter's pending or in_progress records,
// excluding excludeID when it is a valid id. The exclusion lets the status
// recompute ignore the record that is being closed in the same operation.
func (r *MaintenanceRepository) FindActiveByScooterID(scooterID, excludeID primitive.ObjectID) ([]*models.MaintenanceRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"scooter_id": scooterID,
		"status": bson.M{"$in": []string{
			models.MaintenanceStatusPending,
			models.MaintenanceStatusInProgress,
		}},
	}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeRecords(ctx, cursor)
}

func (r *MaintenanceRepository) Update(id string, record *models.MaintenanceRecord) (*models.MaintenanceRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	record.UpdatedAt = time.Now().UTC()

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": record},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.MaintenanceRecord
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &updated, nil
}

func (r *MaintenanceRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	return err
}

// CreateIndexes creates necessary indexes for the maintenance_records collection
func (r *MaintenanceRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "scooter_id", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "scheduled_at", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func decodeRecords(ctx context.Context, cursor *mongo.Cursor) ([]*models.MaintenanceRecord, error) {
	var records []*models.MaintenanceRecord
	for cursor.Next(ctx) {
		var record models.MaintenanceRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}
	return records, nil
}
