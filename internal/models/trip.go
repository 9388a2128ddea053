package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trip is a rental session linking a rider to a scooter. A trip with no end
// time is open: the scooter is currently rented out. Trips are closed by the
// finalize operation and are never mutated otherwise, never deleted.
type Trip struct {
	ID         primitive.ObjectID    `bson:"_id,omitempty" json:"id"`
	ScooterID  primitive.ObjectID    `bson:"scooter_id" json:"scooterId"`
	RiderName  string                `bson:"rider_name" json:"riderName"`
	StartTime  time.Time             `bson:"start_time" json:"startTime"`
	EndTime    *time.Time            `bson:"end_time" json:"endTime,omitempty"`
	DistanceKm *primitive.Decimal128 `bson:"distance_km" json:"-"`
}

// IsOpen reports whether the trip has no recorded end time.
func (t *Trip) IsOpen() bool {
	return t.EndTime == nil
}

// MarshalJSON renders the distance as a plain decimal string ("3.50") to keep
// the fixed-point value exact on the wire.
func (t Trip) MarshalJSON() ([]byte, error) {
	type alias Trip
	out := struct {
		alias
		DistanceKm *string `json:"distanceKm,omitempty"`
	}{alias: alias(t)}
	if t.DistanceKm != nil {
		s := t.DistanceKm.String()
		out.DistanceKm = &s
	}
	return json.Marshal(out)
}
