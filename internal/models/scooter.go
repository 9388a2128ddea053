package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scooter status values
const (
	ScooterStatusFree        = "free"
	ScooterStatusRented      = "rented"
	ScooterStatusMaintenance = "maintenance"
)

// MinRentalBattery is the charge level a scooter must exceed (strictly) to
// be rented out. A scooter at exactly this level is not rentable.
const MinRentalBattery = 20

type Scooter struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Model       string             `bson:"model" json:"model" validate:"required"`
	Battery     int                `bson:"battery" json:"battery"`
	Status      string             `bson:"status" json:"status"`
	Location    string             `bson:"location" json:"location"`
	LastUpdated time.Time          `bson:"last_updated" json:"lastUpdated"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// IsRentable reports whether the scooter can be handed to a rider.
func (s *Scooter) IsRentable() bool {
	return s.Status == ScooterStatusFree && s.Battery > MinRentalBattery
}
