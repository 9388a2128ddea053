package services

import (
	"time"

	"scooter-backend/internal/models"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ScheduleMaintenanceRequest struct {
	ScooterID   string `json:"scooterId" validate:"required"`
	Technician  string `json:"technician" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"required"`
	Priority    string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	ScheduledAt string `json:"scheduledAt" validate:"required"`
	Notes       string `json:"notes,omitempty"`
}

// UpdateMaintenanceRequest merges the supplied fields into a record. Status
// is deliberately absent: state moves only through the start/complete/cancel
// operations so the scooter recompute can never be bypassed.
type UpdateMaintenanceRequest struct {
	Technician  *string `json:"technician,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	ScheduledAt *string `json:"scheduledAt,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type CompleteMaintenanceRequest struct {
	Notes *string `json:"notes,omitempty"`
}

func (s *FleetService) GetAllMaintenance() ([]*models.MaintenanceRecord, error) {
	return s.maintenance.FindAll()
}

func (s *FleetService) GetMaintenanceByScooter(scooterID string) ([]*models.MaintenanceRecord, error) {
	scooter, err := s.scooters.FindByID(scooterID)
	if err != nil {
		return nil, err
	}
	if scooter == nil {
		return nil, newError(ErrNotFound, "scooter not found")
	}
	return s.maintenance.FindByScooterID(scooter.ID)
}

// ScheduleMaintenance creates a pending record and moves the scooter to
// maintenance. Scheduling is rejected while the scooter has an open trip;
// a rental in progress cannot be overridden from the maintenance side.
// Emits maintenance:created then scooter:updated.
func (s *FleetService) ScheduleMaintenance(req *ScheduleMaintenanceRequest) (*models.MaintenanceRecord, error) {
	scheduledAt, err := parseTimestamp(req.ScheduledAt)
	if err != nil {
		return nil, newError(ErrInvalidInput, "scheduledAt must be an RFC 3339 timestamp")
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	unlock := s.lockScooter(req.ScooterID)
	defer unlock()

	scooter, err := s.scooters.FindByID(req.ScooterID)
	if err != nil {
		return nil, err
	}
	if scooter == nil {
		return nil, newError(ErrNotFound, "scooter not found")
	}

	openTrip, err := s.trips.FindOpenByScooterID(scooter.ID)
	if err != nil {
		return nil, err
	}
	if openTrip != nil {
		return nil, newError(ErrInvalidState, "scooter has an active trip; finalize it before scheduling maintenance")
	}

	record := &models.MaintenanceRecord{
		ScooterID:   scooter.ID,
		Technician:  req.Technician,
		Description: req.Description,
		Priority:    priority,
		Status:      models.MaintenanceStatusPending,
		ScheduledAt: scheduledAt,
		Notes:       req.Notes,
	}

	created, err := s.maintenance.Insert(record)
	if err != nil {
		return nil, err
	}

	scooter.Status = models.ScooterStatusMaintenance
	scooter.LastUpdated = now()
	updatedScooter, err := s.scooters.Update(req.ScooterID, scooter)
	if err != nil || updatedScooter == nil {
		if delErr := s.maintenance.Delete(created.ID.Hex()); delErr != nil {
			log.Printf("Failed to roll back maintenance record %s after scooter update failure: %v", created.ID.Hex(), delErr)
		}
		if err != nil {
			return nil, err
		}
		return nil, newError(ErrNotFound, "scooter not found")
	}

	s.invalidateScooterCache(req.ScooterID)
	s.publish(EventMaintenanceCreated, created)
	s.publish(EventScooterUpdated, updatedScooter)

	return created, nil
}

// UpdateMaintenance applies a partial field merge (never status).
// Emits maintenance:updated.
func (s *FleetService) UpdateMaintenance(id string, req *UpdateMaintenanceRequest) (*models.MaintenanceRecord, error) {
	record, err := s.maintenance.FindByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, newError(ErrNotFound, "maintenance record not found")
	}

	unlock := s.lockScooter(record.ScooterID.Hex())
	defer unlock()

	if req.Technician != nil {
		record.Technician = *req.Technician
	}
	if req.Description != nil {
		record.Description = *req.Description
	}
	if req.Priority != nil {
		record.Priority = *req.Priority
	}
	if req.ScheduledAt != nil {
		scheduledAt, err := parseTimestamp(*req.ScheduledAt)
		if err != nil {
			return nil, newError(ErrInvalidInput, "scheduledAt must be an RFC 3339 timestamp")
		}
		record.ScheduledAt = scheduledAt
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}

	updated, err := s.maintenance.Update(id, record)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, newError(ErrNotFound, "maintenance record not found")
	}

	s.publish(EventMaintenanceUpdated, updated)

	return updated, nil
}

// StartMaintenance moves a pending record to in_progress.
// Emits maintenance:updated.
func (s *FleetService) StartMaintenance(id string) (*models.MaintenanceRecord, error) {
	record, err := s.maintenance.FindByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, newError(ErrNotFound, "maintenance record not found")
	}

	unlock := s.lockScooter(record.ScooterID.Hex())
	defer unlock()

	record, err = s.maintenance.FindByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, newError(ErrNotFound, "maintenance record not found")
	}
	if record.Status != models.MaintenanceStatusPending {
		return nil, newError(ErrInvalidState, "only pending maintenance can be started")
	}

	record.Status = models.MaintenanceStatusInProgress
	updated, err := s.maintenance.Update(id, record)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, newError(ErrNotFound, "maintenance record not found")
	}

	s.publish(EventMaintenanceUpdated, updated)

	return updated, nil
}

// CompleteMaintenance moves any non-terminal record to completed, stamps the
// completion time and re-derives the scooter status. Emits
// maintenance:completed then, if the scooter changed, scooter:updated.
func (s *FleetService) CompleteMaintenance(id string, req *CompleteMaintenanceRequest) (*models.MaintenanceRecord, error) {
	record, err := s.maintenance.FindByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, newError(ErrNotFound, "maintenance record not found")
	}

	unlock := s.lockScooter(record.ScooterID.Hex())
	defer unlock()

	record, err = s.maintenance.FindByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, newError(ErrNotFound, "maintenance record not found")
	}
	if record.IsTerminal() {
		return nil, newError(ErrInvalidState, "maintenance has already been closed")
	}

	completedAt := now()
	record.Status = models.MaintenanceStatusCompleted
	record.CompletedAt = &completedAt
	if req != nil && req.Notes != nil {
		record.Notes = *req.Notes
	}

	updated, err := s.maintenance.Update(id, record)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, newError(ErrNotFound, "maintenance record not found")
	}

	changedScooter, err := s.recomputeScooterStatus(record.ScooterID, record.ID)
	if err != nil {
		return nil, err
	}

	s.publish(EventMaintenanceCompleted, updated)
	if changedScooter != nil {
		s.publish(EventScooterUpdated, changedScooter)
	}

	return updated, nil
}

// CancelMaintenance moves a non-terminal record to cancelled and re-derives
// the scooter status. Emits maintenance:cancelled then, if the scooter
// changed, scooter:updated.
func (s *FleetService) CancelMaintenance(id string) (*models.MaintenanceRecord, error) {
	record, err := s.maintenance.FindByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, newError(ErrNotFound, "maintenance record not found")
	}

	unlock := s.lockScooter(record.ScooterID.Hex())
	defer unlock()

	record, err = s.maintenance.FindByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, newError(ErrNotFound, "maintenance record not found")
	}
	if record.IsTerminal() {
		return nil, newError(ErrInvalidState, "maintenance has already been closed")
	}

	record.Status = models.MaintenanceStatusCancelled
	updated, err := s.maintenance.Update(id, record)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, newError(ErrNotFound, "maintenance record not found")
	}

	changedScooter, err := s.recomputeScooterStatus(record.ScooterID, record.ID)
	if err != nil {
		return nil, err
	}

	s.publish(EventMaintenanceCancelled, updated)
	if changedScooter != nil {
		s.publish(EventScooterUpdated, changedScooter)
	}

	return updated, nil
}

// DeleteMaintenance removes a non-completed record and re-derives the
// scooter status. Completed records are service history and stay. Emits
// maintenance:deleted then, if the scooter changed, scooter:updated.
func (s *FleetService) DeleteMaintenance(id string) error {
	record, err := s.maintenance.FindByID(id)
	if err != nil {
		return err
	}
	if record == nil {
		return newError(ErrNotFound, "maintenance record not found")
	}

	unlock := s.lockScooter(record.ScooterID.Hex())
	defer unlock()

	record, err = s.maintenance.FindByID(id)
	if err != nil {
		return err
	}
	if record == nil {
		return newError(ErrNotFound, "maintenance record not found")
	}
	if record.Status == models.MaintenanceStatusCompleted {
		return newError(ErrInvalidState, "completed maintenance cannot be deleted")
	}

	if err := s.maintenance.Delete(id); err != nil {
		return err
	}

	changedScooter, err := s.recomputeScooterStatus(record.ScooterID, record.ID)
	if err != nil {
		return err
	}

	s.publish(EventMaintenanceDeleted, map[string]string{"id": id})
	if changedScooter != nil {
		s.publish(EventScooterUpdated, changedScooter)
	}

	return nil
}

// recomputeScooterStatus re-derives a scooter's status after a maintenance
// record left the active set. Only a scooter currently in maintenance with
// no remaining pending/in_progress records (excluding the record just
// closed) moves back to free; rented scooters are never touched. Returns
// the updated scooter when it changed, nil otherwise.
func (s *FleetService) recomputeScooterStatus(scooterID, excludeID primitive.ObjectID) (*models.Scooter, error) {
	scooter, err := s.scooters.FindByID(scooterID.Hex())
	if err != nil {
		return nil, err
	}
	if scooter == nil || scooter.Status != models.ScooterStatusMaintenance {
		return nil, nil
	}

	remaining, err := s.maintenance.FindActiveByScooterID(scooterID, excludeID)
	if err != nil {
		return nil, err
	}
	if len(remaining) > 0 {
		return nil, nil
	}

	scooter.Status = models.ScooterStatusFree
	scooter.LastUpdated = now()
	updated, err := s.scooters.Update(scooterID.Hex(), scooter)
	if err != nil {
		return nil, err
	}

	s.invalidateScooterCache(scooterID.Hex())
	return updated, nil
}

// parseTimestamp accepts RFC 3339 with or without sub-second precision, and
// the bare "2006-01-02T15:04" form browser datetime inputs produce.
func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	_, err := time.Parse(time.RFC3339, value)
	return time.Time{}, err
}
