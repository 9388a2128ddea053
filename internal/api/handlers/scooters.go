package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"scooter-backend/internal/services"
	"scooter-backend/pkg/utils"
)

type ScooterHandler struct {
	fleet     *services.FleetService
	validator *validator.Validate
}

func NewScooterHandler(fleet *services.FleetService) *ScooterHandler {
	return &ScooterHandler{
		fleet:     fleet,
		validator: validator.New(),
	}
}

// GetScooters retrieves all scooters
func (h *ScooterHandler) GetScooters(c *gin.Context) {
	scooters, err := h.fleet.GetAllScooters()
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scooters retrieved successfully", scooters)
}

// GetAvailableScooters retrieves scooters that can be rented right now
func (h *ScooterHandler) GetAvailableScooters(c *gin.Context) {
	scooters, err := h.fleet.GetAvailableScooters()
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Available scooters retrieved successfully", scooters)
}

// GetScooter retrieves a specific scooter by ID
func (h *ScooterHandler) GetScooter(c *gin.Context) {
	scooterID := c.Param("id")
	if scooterID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Scooter ID is required", nil)
		return
	}

	scooter, err := h.fleet.GetScooter(scooterID)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scooter retrieved successfully", scooter)
}

// CreateScooter creates a new scooter
func (h *ScooterHandler) CreateScooter(c *gin.Context) {
	var req services.CreateScooterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	scooter, err := h.fleet.CreateScooter(&req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Scooter created successfully", scooter)
}

// UpdateScooter updates an existing scooter
func (h *ScooterHandler) UpdateScooter(c *gin.Context) {
	scooterID := c.Param("id")
	if scooterID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Scooter ID is required", nil)
		return
	}

	var req services.UpdateScooterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	scooter, err := h.fleet.UpdateScooter(scooterID, &req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scooter updated successfully", scooter)
}

// UpdateBattery sets a scooter's battery level
func (h *ScooterHandler) UpdateBattery(c *gin.Context) {
	scooterID := c.Param("id")
	if scooterID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Scooter ID is required", nil)
		return
	}

	var req struct {
		Battery *int `json:"battery" validate:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	scooter, err := h.fleet.UpdateBattery(scooterID, *req.Battery)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scooter battery updated successfully", scooter)
}

// DeleteScooter deletes a scooter
func (h *ScooterHandler) DeleteScooter(c *gin.Context) {
	scooterID := c.Param("id")
	if scooterID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Scooter ID is required", nil)
		return
	}

	if err := h.fleet.DeleteScooter(scooterID); err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scooter deleted successfully", nil)
}
