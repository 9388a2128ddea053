package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"scooter-backend/internal/websocket"
)

// WebSocketHandler upgrades HTTP connections for the real-time event feed
type WebSocketHandler struct {
	hub *websocket.Hub
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleWebSocket upgrades the connection and registers the client with
// its requested event filters. `types` accepts full event names
// (trip:created) or entity prefixes (scooter).
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	clientID := uuid.New().String()

	filters := websocket.EventFilters{}
	if types := c.QueryArray("types"); len(types) > 0 {
		filters.Types = types
	}

	conn, err := h.hub.GetUpgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("Failed to upgrade connection to WebSocket: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to upgrade to WebSocket"})
		return
	}

	if err := h.hub.RegisterClient(clientID, conn, filters); err != nil {
		log.Warnf("Failed to register WebSocket client: %v", err)
		conn.Close()
		return
	}

	log.Infof("WebSocket client %s connected with filters: %+v", clientID, filters)
}

// GetConnectedClients returns the number of connected WebSocket clients
func (h *WebSocketHandler) GetConnectedClients(c *gin.Context) {
	count := h.hub.GetConnectedClients()
	stats := h.hub.GetClientStats()

	c.JSON(http.StatusOK, gin.H{
		"connectedClients": count,
		"stats":            stats,
	})
}
