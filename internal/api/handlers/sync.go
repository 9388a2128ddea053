package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scooter-backend/internal/integration"
	"scooter-backend/pkg/utils"
)

// SyncHandler exposes the spreadsheet mirror export/import endpoints.
// A nil sync service means the mirror credentials were not configured.
type SyncHandler struct {
	sync *integration.SheetSyncService
}

func NewSyncHandler(sync *integration.SheetSyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// ExportFleet pushes the current fleet to the mirror table
func (h *SyncHandler) ExportFleet(c *gin.Context) {
	if h.sync == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Sheet mirror is not configured", nil)
		return
	}

	result, err := h.sync.ExportAll(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "Failed to export fleet", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Fleet exported successfully", result)
}

// ImportFleet pulls mirror rows and applies them through the fleet engine
func (h *SyncHandler) ImportFleet(c *gin.Context) {
	if h.sync == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Sheet mirror is not configured", nil)
		return
	}

	result, err := h.sync.ImportAll(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "Failed to import fleet", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Fleet imported successfully", result)
}
