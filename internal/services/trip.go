package services

import (
	"scooter-backend/internal/models"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RentScooterRequest struct {
	ScooterID string `json:"scooterId" validate:"required"`
	RiderName string `json:"riderName" validate:"required,min=1,max=100"`
}

type FinalizeTripRequest struct {
	DistanceKm string `json:"distanceKm,omitempty"`
}

func (s *FleetService) GetAllTrips() ([]*models.Trip, error) {
	return s.trips.FindAll()
}

func (s *FleetService) GetActiveTrips() ([]*models.Trip, error) {
	return s.trips.FindOpen()
}

// RentScooter opens a trip for a free scooter with enough battery and marks
// the scooter rented. Emits trip:created then scooter:updated.
func (s *FleetService) RentScooter(req *RentScooterRequest) (*models.Trip, error) {
	unlock := s.lockScooter(req.ScooterID)
	defer unlock()

	scooter, err := s.scooters.FindByID(req.ScooterID)
	if err != nil {
		return nil, err
	}
	if scooter == nil {
		return nil, newError(ErrNotFound, "scooter not found")
	}
	if scooter.Status != models.ScooterStatusFree {
		return nil, newError(ErrInvalidState, "scooter is not available for rental")
	}
	if scooter.Battery <= models.MinRentalBattery {
		return nil, newError(ErrInsufficientBattery, "scooter battery too low for rental (needs more than 20%)")
	}

	trip := &models.Trip{
		ScooterID: scooter.ID,
		RiderName: req.RiderName,
		StartTime: now(),
	}

	created, err := s.trips.Insert(trip)
	if err != nil {
		return nil, err
	}

	scooter.Status = models.ScooterStatusRented
	scooter.LastUpdated = now()
	updatedScooter, err := s.scooters.Update(req.ScooterID, scooter)
	if err != nil || updatedScooter == nil {
		// The trip must not outlive a failed scooter write; undo the insert
		// so no partial state is visible and no event fires.
		if delErr := s.trips.Delete(created.ID.Hex()); delErr != nil {
			log.Printf("Failed to roll back trip %s after scooter update failure: %v", created.ID.Hex(), delErr)
		}
		if err != nil {
			return nil, err
		}
		return nil, newError(ErrNotFound, "scooter not found")
	}

	s.invalidateScooterCache(req.ScooterID)
	s.publish(EventTripCreated, created)
	s.publish(EventScooterUpdated, updatedScooter)

	return created, nil
}

// FinalizeTrip closes an open trip, records the distance and frees the
// scooter unconditionally: a trip ending always releases the scooter.
// Emits trip:finalized then scooter:updated.
func (s *FleetService) FinalizeTrip(tripID string, req *FinalizeTripRequest) (*models.Trip, error) {
	trip, err := s.trips.FindByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, newError(ErrNotFound, "trip not found")
	}

	unlock := s.lockScooter(trip.ScooterID.Hex())
	defer unlock()

	// Re-read under the lock so two concurrent finalize calls cannot both
	// pass the open check.
	trip, err = s.trips.FindByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, newError(ErrNotFound, "trip not found")
	}
	if !trip.IsOpen() {
		return nil, newError(ErrAlreadyClosed, "trip has already been finalized")
	}

	raw := req.DistanceKm
	if raw == "" {
		raw = "0.00"
	}
	distance, err := primitive.ParseDecimal128(raw)
	if err != nil {
		return nil, newError(ErrInvalidInput, "distanceKm must be a decimal number")
	}

	end := now()
	trip.EndTime = &end
	trip.DistanceKm = &distance

	updated, err := s.trips.Update(tripID, trip)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, newError(ErrNotFound, "trip not found")
	}

	var updatedScooter *models.Scooter
	scooter, err := s.scooters.FindByID(trip.ScooterID.Hex())
	if err != nil {
		s.reopenTrip(tripID, updated)
		return nil, err
	}
	if scooter != nil {
		scooter.Status = models.ScooterStatusFree
		scooter.LastUpdated = now()
		updatedScooter, err = s.scooters.Update(trip.ScooterID.Hex(), scooter)
		if err != nil {
			s.reopenTrip(tripID, updated)
			return nil, err
		}
		s.invalidateScooterCache(trip.ScooterID.Hex())
	}

	s.publish(EventTripFinalized, updated)
	if updatedScooter != nil {
		s.publish(EventScooterUpdated, updatedScooter)
	}

	return updated, nil
}

// reopenTrip undoes a trip closure whose follow-up scooter write failed, so
// no partially finalized trip stays visible.
func (s *FleetService) reopenTrip(tripID string, trip *models.Trip) {
	trip.EndTime = nil
	trip.DistanceKm = nil
	if _, err := s.trips.Update(tripID, trip); err != nil {
		log.Printf("Failed to roll back finalize of trip %s: %v", tripID, err)
	}
}
