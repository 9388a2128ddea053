package services

import (
	"scooter-backend/internal/models"
	"scooter-backend/pkg/cache"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateScooterRequest struct {
	Model    string `json:"model" validate:"required,min=1,max=100"`
	Battery  *int   `json:"battery,omitempty"`
	Status   string `json:"status,omitempty" validate:"omitempty,oneof=free rented maintenance"`
	Location string `json:"location" validate:"required,min=1,max=200"`
}

type UpdateScooterRequest struct {
	Model    *string `json:"model,omitempty"`
	Battery  *int    `json:"battery,omitempty"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=free rented maintenance"`
	Location *string `json:"location,omitempty"`
}

func (s *FleetService) GetAllScooters() ([]*models.Scooter, error) {
	if s.cacheManager != nil {
		cached, err := s.cacheManager.GetScooterList(cache.ListKeyAll)
		if err != nil {
			log.Printf("Cache error for GetAllScooters: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	scooters, err := s.scooters.FindAll()
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		ttl := s.cacheConfig.GetTTLForDataType("scooter_list")
		if cacheErr := s.cacheManager.SetScooterList(cache.ListKeyAll, scooters, ttl); cacheErr != nil {
			log.Printf("Failed to cache all scooters: %v", cacheErr)
		}
	}

	return scooters, nil
}

// GetAvailableScooters returns the rentable fleet: free scooters with
// battery strictly above the rental minimum.
func (s *FleetService) GetAvailableScooters() ([]*models.Scooter, error) {
	if s.cacheManager != nil {
		cached, err := s.cacheManager.GetScooterList(cache.ListKeyAvailable)
		if err != nil {
			log.Printf("Cache error for GetAvailableScooters: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	scooters, err := s.scooters.FindAvailable(models.MinRentalBattery)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		ttl := s.cacheConfig.GetTTLForDataType("scooter_list")
		if cacheErr := s.cacheManager.SetScooterList(cache.ListKeyAvailable, scooters, ttl); cacheErr != nil {
			log.Printf("Failed to cache available scooters: %v", cacheErr)
		}
	}

	return scooters, nil
}

func (s *FleetService) GetScooter(id string) (*models.Scooter, error) {
	if s.cacheManager != nil {
		cached, err := s.cacheManager.GetScooter(id)
		if err != nil {
			log.Printf("Cache error for GetScooter(%s): %v", id, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	scooter, err := s.scooters.FindByID(id)
	if err != nil {
		return nil, err
	}
	if scooter == nil {
		return nil, newError(ErrNotFound, "scooter not found")
	}

	if s.cacheManager != nil {
		ttl := s.cacheConfig.GetTTLForDataType("scooter")
		if cacheErr := s.cacheManager.SetScooter(id, scooter, ttl); cacheErr != nil {
			log.Printf("Failed to cache scooter %s: %v", id, cacheErr)
		}
	}

	return scooter, nil
}

func (s *FleetService) CreateScooter(req *CreateScooterRequest) (*models.Scooter, error) {
	battery := 100
	if req.Battery != nil {
		battery = *req.Battery
	}
	if battery < 0 || battery > 100 {
		return nil, newError(ErrInvalidBattery, "battery level must be between 0 and 100")
	}

	status := req.Status
	if status == "" {
		status = models.ScooterStatusFree
	}

	ts := now()
	scooter := &models.Scooter{
		Model:       req.Model,
		Battery:     battery,
		Status:      status,
		Location:    req.Location,
		LastUpdated: ts,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	created, err := s.scooters.Insert(scooter)
	if err != nil {
		return nil, err
	}

	s.invalidateScooterLists()
	s.publish(EventScooterCreated, created)

	return created, nil
}

// UpdateScooter merges the supplied fields into the scooter; absent fields
// keep their current values.
func (s *FleetService) UpdateScooter(id string, req *UpdateScooterRequest) (*models.Scooter, error) {
	unlock := s.lockScooter(id)
	defer unlock()

	return s.updateScooterLocked(id, req)
}

// updateScooterLocked is UpdateScooter minus the lock, for callers that
// already hold the scooter's mutex.
func (s *FleetService) updateScooterLocked(id string, req *UpdateScooterRequest) (*models.Scooter, error) {
	scooter, err := s.scooters.FindByID(id)
	if err != nil {
		return nil, err
	}
	if scooter == nil {
		return nil, newError(ErrNotFound, "scooter not found")
	}

	if req.Model != nil {
		scooter.Model = *req.Model
	}
	if req.Battery != nil {
		if *req.Battery < 0 || *req.Battery > 100 {
			return nil, newError(ErrInvalidBattery, "battery level must be between 0 and 100")
		}
		scooter.Battery = *req.Battery
	}
	if req.Status != nil {
		scooter.Status = *req.Status
	}
	if req.Location != nil {
		scooter.Location = *req.Location
	}
	scooter.LastUpdated = now()

	updated, err := s.scooters.Update(id, scooter)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, newError(ErrNotFound, "scooter not found")
	}

	s.invalidateScooterCache(id)
	s.publish(EventScooterUpdated, updated)

	return updated, nil
}

// UpdateBattery sets the battery level without any status side effect.
func (s *FleetService) UpdateBattery(id string, battery int) (*models.Scooter, error) {
	if battery < 0 || battery > 100 {
		return nil, newError(ErrInvalidBattery, "battery level must be between 0 and 100")
	}

	unlock := s.lockScooter(id)
	defer unlock()

	scooter, err := s.scooters.FindByID(id)
	if err != nil {
		return nil, err
	}
	if scooter == nil {
		return nil, newError(ErrNotFound, "scooter not found")
	}

	scooter.Battery = battery
	scooter.LastUpdated = now()

	updated, err := s.scooters.Update(id, scooter)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, newError(ErrNotFound, "scooter not found")
	}

	s.invalidateScooterCache(id)
	s.publish(EventScooterUpdated, updated)

	return updated, nil
}

// DeleteScooter removes a scooter that has neither an open trip nor any
// active maintenance record referencing it.
func (s *FleetService) DeleteScooter(id string) error {
	unlock := s.lockScooter(id)
	defer unlock()

	scooter, err := s.scooters.FindByID(id)
	if err != nil {
		return err
	}
	if scooter == nil {
		return newError(ErrNotFound, "scooter not found")
	}

	openTrip, err := s.trips.FindOpenByScooterID(scooter.ID)
	if err != nil {
		return err
	}
	if openTrip != nil {
		return newError(ErrHasActiveTrip, "scooter has an active trip and cannot be removed")
	}

	active, err := s.maintenance.FindActiveByScooterID(scooter.ID, primitive.NilObjectID)
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return newError(ErrHasPendingMaintenance, "scooter has pending maintenance and cannot be removed")
	}

	if err := s.scooters.Delete(id); err != nil {
		return err
	}

	s.invalidateScooterCache(id)
	s.publish(EventScooterDeleted, map[string]string{"id": id})

	return nil
}
