package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"scooter-backend/internal/services"
	"scooter-backend/pkg/utils"
)

type TripHandler struct {
	fleet     *services.FleetService
	validator *validator.Validate
}

func NewTripHandler(fleet *services.FleetService) *TripHandler {
	return &TripHandler{
		fleet:     fleet,
		validator: validator.New(),
	}
}

// GetTrips retrieves all trips
func (h *TripHandler) GetTrips(c *gin.Context) {
	trips, err := h.fleet.GetAllTrips()
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trips retrieved successfully", trips)
}

// GetActiveTrips retrieves trips that have not been finalized
func (h *TripHandler) GetActiveTrips(c *gin.Context) {
	trips, err := h.fleet.GetActiveTrips()
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Active trips retrieved successfully", trips)
}

// RentScooter opens a trip on a free scooter
func (h *TripHandler) RentScooter(c *gin.Context) {
	var req services.RentScooterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	trip, err := h.fleet.RentScooter(&req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Scooter rented successfully", trip)
}

// FinalizeTrip closes an open trip and frees its scooter
func (h *TripHandler) FinalizeTrip(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Trip ID is required", nil)
		return
	}

	// Distance is optional; an empty body finalizes with the default
	var req services.FinalizeTripRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
			return
		}
	}

	trip, err := h.fleet.FinalizeTrip(tripID, &req)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip finalized successfully", trip)
}
