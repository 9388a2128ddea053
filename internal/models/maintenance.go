package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for maintenance status
const (
	MaintenanceStatusPending    = "pending"
	MaintenanceStatusInProgress = "in_progress"
	MaintenanceStatusCompleted  = "completed"
	MaintenanceStatusCancelled  = "cancelled"
)

// Constants for priority levels
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type MaintenanceRecord struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ScooterID   primitive.ObjectID `json:"scooterId" bson:"scooter_id"`
	Technician  string             `json:"technician" bson:"technician"`
	Description string             `json:"description" bson:"description"`
	Priority    string             `json:"priority" bson:"priority"`
	Status      string             `json:"status" bson:"status"`
	ScheduledAt time.Time          `json:"scheduledAt" bson:"scheduled_at"`
	CompletedAt *time.Time         `json:"completedAt,omitempty" bson:"completed_at,omitempty"`
	Notes       string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updated_at"`
}

// IsActive reports whether the record still holds its scooter out of
// service (pending or in_progress).
func (m *MaintenanceRecord) IsActive() bool {
	return m.Status == MaintenanceStatusPending || m.Status == MaintenanceStatusInProgress
}

// IsTerminal reports whether the record reached a final state.
func (m *MaintenanceRecord) IsTerminal() bool {
	return m.Status == MaintenanceStatusCompleted || m.Status == MaintenanceStatusCancelled
}
