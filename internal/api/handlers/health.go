package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"scooter-backend/internal/websocket"
	"scooter-backend/pkg/redis"
)

type HealthHandler struct {
	db          *mongo.Database
	redisClient *redis.Client
	hub         *websocket.Hub
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

func NewHealthHandler(db *mongo.Database, redisClient *redis.Client, hub *websocket.Hub) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		hub:         hub,
	}
}

// HealthCheck reports the status of the backing services. Redis is treated
// as optional: cache downtime degrades reads but the API still works.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Timestamp: time.Now().UTC(),
		Services:  make(map[string]interface{}),
	}

	overallHealthy := true

	mongoStatus := h.checkMongoDB()
	response.Services["mongodb"] = mongoStatus
	if !mongoStatus["healthy"].(bool) {
		overallHealthy = false
	}

	response.Services["redis"] = h.checkRedis()

	if h.hub != nil {
		response.Services["websocket"] = map[string]interface{}{
			"healthy":          true,
			"connectedClients": h.hub.GetConnectedClients(),
		}
	}

	if overallHealthy {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

func (h *HealthHandler) checkMongoDB() map[string]interface{} {
	status := map[string]interface{}{
		"service": "mongodb",
		"healthy": false,
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := h.db.Client().Ping(ctx, nil)
		if err == nil {
			status["healthy"] = true
			status["message"] = "Connected"
		} else {
			status["error"] = err.Error()
		}
	} else {
		status["error"] = "Database client not initialized"
	}

	return status
}

func (h *HealthHandler) checkRedis() map[string]interface{} {
	status := map[string]interface{}{
		"service": "redis",
		"healthy": false,
	}

	if h.redisClient != nil {
		healthStatus := h.redisClient.HealthCheck()
		status["healthy"] = healthStatus.IsConnected
		status["connectionInfo"] = healthStatus.ConnectionInfo
		status["responseTime"] = healthStatus.ResponseTime.String()
		status["lastPing"] = healthStatus.LastPing

		if healthStatus.Error != "" {
			status["error"] = healthStatus.Error
		}
	} else {
		status["error"] = "Redis client not initialized"
	}

	return status
}
