package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"scooter-backend/internal/services"
)

// APIResponse represents a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// SuccessResponse sends a successful response
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse sends an error response
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	response := APIResponse{
		Success: false,
		Message: message,
	}

	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(statusCode, response)
}

// ValidationErrorResponse sends a validation error response
func ValidationErrorResponse(c *gin.Context, err error) {
	var errors []string

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			errors = append(errors, getValidationErrorMessage(fieldError))
		}
	} else {
		errors = append(errors, err.Error())
	}

	c.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Message: "Validation failed",
		Error:   errors,
	})
}

// EngineErrorResponse maps a fleet engine error to an HTTP response.
func EngineErrorResponse(c *gin.Context, err error) {
	switch services.KindOf(err) {
	case services.ErrNotFound:
		ErrorResponse(c, http.StatusNotFound, "Resource not found", err)
	case services.ErrStoreUnavailable:
		ErrorResponse(c, http.StatusServiceUnavailable, "Storage unavailable", err)
	case services.ErrInvalidState,
		services.ErrAlreadyClosed,
		services.ErrInsufficientBattery,
		services.ErrInvalidBattery,
		services.ErrInvalidInput,
		services.ErrHasActiveTrip,
		services.ErrHasPendingMaintenance:
		ErrorResponse(c, http.StatusBadRequest, "Request rejected", err)
	default:
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

// getValidationErrorMessage returns a user-friendly validation error message
func getValidationErrorMessage(fieldError validator.FieldError) string {
	field := fieldError.Field()
	tag := fieldError.Tag()

	switch tag {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + fieldError.Param()
	case "max":
		return field + " must be at most " + fieldError.Param()
	case "oneof":
		return field + " must be one of: " + fieldError.Param()
	default:
		return field + " is invalid"
	}
}
