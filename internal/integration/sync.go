package integration

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"scooter-backend/internal/models"
	"scooter-backend/internal/services"
)

// SheetSyncService mirrors the scooter fleet to and from an Airtable table.
// Export pushes the current fleet; import replays spreadsheet rows through
// the fleet engine so validation and events apply to each row.
type SheetSyncService struct {
	fleet  *services.FleetService
	client *AirtableClient
}

// SyncResult summarizes one export or import run. Failures are collected
// per item; a partial run is still a successful HTTP call.
type SyncResult struct {
	Processed int          `json:"processed"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Errors    []ItemResult `json:"errors,omitempty"`
}

// ItemResult names the item that failed and why.
type ItemResult struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// NewSheetSyncService creates a sync service over the fleet engine.
func NewSheetSyncService(fleet *services.FleetService, client *AirtableClient) *SheetSyncService {
	return &SheetSyncService{fleet: fleet, client: client}
}

// ExportAll pushes every scooter to the mirror table, upserting on the ID
// column so repeated exports stay idempotent.
func (s *SheetSyncService) ExportAll(ctx context.Context) (*SyncResult, error) {
	scooters, err := s.fleet.GetAllScooters()
	if err != nil {
		return nil, fmt.Errorf("failed to load scooters: %w", err)
	}

	result := &SyncResult{Processed: len(scooters)}

	records := make([]AirtableRecord, 0, len(scooters))
	for _, scooter := range scooters {
		records = append(records, AirtableRecord{
			Fields: ScooterFields{
				ScooterID: scooter.ID.Hex(),
				Model:     scooter.Model,
				Battery:   scooter.Battery,
				Status:    scooter.Status,
				Location:  scooter.Location,
			},
		})
	}

	if err := s.client.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to push records: %w", err)
	}

	result.Succeeded = len(records)
	log.Infof("Exported %d scooters to mirror table", result.Succeeded)
	return result, nil
}

// ImportAll pulls every row from the mirror table and applies it through
// the engine: rows with a known scooter id update that scooter, rows
// without one create a new scooter. Row failures do not abort the run.
func (s *SheetSyncService) ImportAll(ctx context.Context) (*SyncResult, error) {
	records, err := s.client.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	result := &SyncResult{Processed: len(records)}

	for _, record := range records {
		if err := s.applyRecord(record); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ItemResult{
				ID:    record.ID,
				Error: err.Error(),
			})
			continue
		}
		result.Succeeded++
	}

	log.Infof("Imported %d/%d rows from mirror table", result.Succeeded, result.Processed)
	return result, nil
}

func (s *SheetSyncService) applyRecord(record AirtableRecord) error {
	fields := record.Fields

	// Rows carry free-form text; the status column must land inside the
	// engine's value set just as it would through the primary API.
	status, err := normalizeStatus(fields.Status)
	if err != nil {
		return err
	}

	if fields.ScooterID != "" {
		existing, err := s.fleet.GetScooter(fields.ScooterID)
		if err != nil && services.KindOf(err) != services.ErrNotFound {
			return err
		}
		if existing != nil {
			battery := fields.Battery
			req := &services.UpdateScooterRequest{Battery: &battery}
			if fields.Model != "" {
				req.Model = &fields.Model
			}
			if status != "" {
				req.Status = &status
			}
			if fields.Location != "" {
				req.Location = &fields.Location
			}
			_, err := s.fleet.UpdateScooter(fields.ScooterID, req)
			return err
		}
	}

	if fields.Model == "" || fields.Location == "" {
		return fmt.Errorf("row is missing model or location")
	}

	battery := fields.Battery
	_, err = s.fleet.CreateScooter(&services.CreateScooterRequest{
		Model:    fields.Model,
		Battery:  &battery,
		Status:   status,
		Location: fields.Location,
	})
	return err
}

func normalizeStatus(status string) (string, error) {
	switch status {
	case "", models.ScooterStatusFree, models.ScooterStatusRented, models.ScooterStatusMaintenance:
		return status, nil
	default:
		return "", fmt.Errorf("unrecognized status %q", status)
	}
}
