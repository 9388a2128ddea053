package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"scooter-backend/internal/services"
	"scooter-backend/pkg/utils"
)

type MaintenanceHandler struct {
	fleet     *services.FleetService
	validator *validator.Validate
}

func NewMaintenanceHandler(fleet *services.FleetService) *MaintenanceHandler {
	return &MaintenanceHandler{
		fleet:     fleet,
		validator: validator.New(),
	}
}

// GetMaintenanceRecords retrieves all maintenance records, optionally
// filtered by scooter
func (h *MaintenanceHandler) GetMaintenanceRecords(c *gin.Context) {
	if scooterID := c.Query("scooterId"); scooterID != "" {
		records, err := h.fleet.GetMaintenanceByScooter(scooterID)
		if err != nil {
			utils.EngineErrorResponse(c, err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Maintenance records retrieved successfully", records)
		return
	}

	records, err := h.fleet.GetAllMaintenance()
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance records retrieved successfully", records)
}

// ScheduleMaintenance creates a maintenance record and takes the scooter
// out of service
func (h *MaintenanceHandler) ScheduleMaintenance(c *gin.Context) {
	var req services.ScheduleMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	record, err := h.fleet.ScheduleMaintenance(&req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Maintenance scheduled successfully", record)
}

// UpdateMaintenance updates descriptive fields of a maintenance record
func (h *MaintenanceHandler) UpdateMaintenance(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Maintenance record ID is required", nil)
		return
	}

	var req services.UpdateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	record, err := h.fleet.UpdateMaintenance(recordID, &req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance record updated successfully", record)
}

// StartMaintenance moves a pending record to in_progress
func (h *MaintenanceHandler) StartMaintenance(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Maintenance record ID is required", nil)
		return
	}

	record, err := h.fleet.StartMaintenance(recordID)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance started successfully", record)
}

// CompleteMaintenance closes a record and frees the scooter when nothing
// else is pending
func (h *MaintenanceHandler) CompleteMaintenance(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Maintenance record ID is required", nil)
		return
	}

	req := &services.CompleteMaintenanceRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
			return
		}
	}

	record, err := h.fleet.CompleteMaintenance(recordID, req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance completed successfully", record)
}

// CancelMaintenance cancels an active record
func (h *MaintenanceHandler) CancelMaintenance(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Maintenance record ID is required", nil)
		return
	}

	record, err := h.fleet.CancelMaintenance(recordID)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance cancelled successfully", record)
}

// DeleteMaintenance removes a non-completed maintenance record
func (h *MaintenanceHandler) DeleteMaintenance(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Maintenance record ID is required", nil)
		return
	}

	if err := h.fleet.DeleteMaintenance(recordID); err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance record deleted successfully", nil)
}
