package routes

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"scooter-backend/internal/api/handlers"
	"scooter-backend/internal/config"
	"scooter-backend/internal/integration"
	"scooter-backend/internal/repository"
	"scooter-backend/internal/services"
	"scooter-backend/internal/websocket"
	"scooter-backend/pkg/cache"
	"scooter-backend/pkg/redis"
)

// Dependencies carries the process-wide resources the routes need.
type Dependencies struct {
	DB          *mongo.Database
	RedisClient *redis.Client
	Hub         *websocket.Hub
	Airtable    config.AirtableConfig
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	// Initialize repositories
	scooterRepo := repository.NewScooterRepository(deps.DB)
	tripRepo := repository.NewTripRepository(deps.DB)
	maintenanceRepo := repository.NewMaintenanceRepository(deps.DB)

	for _, idx := range []interface{ CreateIndexes() error }{scooterRepo, tripRepo, maintenanceRepo} {
		if err := idx.CreateIndexes(); err != nil {
			log.Warnf("Failed to create indexes: %v", err)
		}
	}

	// Initialize the fleet engine
	fleet := services.NewFleetService(scooterRepo, tripRepo, maintenanceRepo)
	if deps.Hub != nil {
		fleet.SetBroadcaster(deps.Hub)
	}
	if deps.RedisClient != nil {
		fleet.SetCacheManager(cache.NewDefaultCacheManager(deps.RedisClient))
	}

	// Sheet mirror is optional; endpoints answer 503 when unconfigured
	var syncService *integration.SheetSyncService
	if deps.Airtable.Configured() {
		syncService = integration.NewSheetSyncService(fleet, integration.NewAirtableClient(deps.Airtable))
	}

	// Initialize handlers
	scooterHandler := handlers.NewScooterHandler(fleet)
	tripHandler := handlers.NewTripHandler(fleet)
	maintenanceHandler := handlers.NewMaintenanceHandler(fleet)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.RedisClient, deps.Hub)
	syncHandler := handlers.NewSyncHandler(syncService)

	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ws", wsHandler.HandleWebSocket)
	router.GET("/ws/stats", wsHandler.GetConnectedClients)

	// API routes
	api := router.Group("/api/v1")
	{
		scooters := api.Group("/scooters")
		{
			scooters.GET("", scooterHandler.GetScooters)
			scooters.POST("", scooterHandler.CreateScooter)
			scooters.GET("/available", scooterHandler.GetAvailableScooters)
			scooters.GET("/:id", scooterHandler.GetScooter)
			scooters.PATCH("/:id", scooterHandler.UpdateScooter)
			scooters.PATCH("/:id/battery", scooterHandler.UpdateBattery)
			scooters.DELETE("/:id", scooterHandler.DeleteScooter)
		}

		trips := api.Group("/trips")
		{
			trips.GET("", tripHandler.GetTrips)
			trips.GET("/active", tripHandler.GetActiveTrips)
			trips.POST("/rent", tripHandler.RentScooter)
			trips.POST("/:id/finalize", tripHandler.FinalizeTrip)
		}

		maintenance := api.Group("/maintenance")
		{
			maintenance.GET("", maintenanceHandler.GetMaintenanceRecords)
			maintenance.POST("", maintenanceHandler.ScheduleMaintenance)
			maintenance.PATCH("/:id", maintenanceHandler.UpdateMaintenance)
			maintenance.POST("/:id/start", maintenanceHandler.StartMaintenance)
			maintenance.POST("/:id/complete", maintenanceHandler.CompleteMaintenance)
			maintenance.POST("/:id/cancel", maintenanceHandler.CancelMaintenance)
			maintenance.DELETE("/:id", maintenanceHandler.DeleteMaintenance)
		}

		sheet := api.Group("/sheet")
		{
			sheet.POST("/export", syncHandler.ExportFleet)
			sheet.POST("/import", syncHandler.ImportFleet)
		}
	}
}
