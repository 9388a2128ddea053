package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"scooter-backend/internal/api/routes"
	"scooter-backend/internal/config"
	"scooter-backend/internal/websocket"
	"scooter-backend/pkg/database"
	"scooter-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to MongoDB
	db, err := database.Connect(cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Disconnect(db.Client())

	// Initialize Redis client
	redisClient := redis.NewClient(cfg.Redis)
	defer redisClient.Close()

	healthStatus := redisClient.HealthCheck()
	if healthStatus.IsConnected {
		log.Infof("Redis connected successfully at %s", healthStatus.ConnectionInfo)
	} else {
		log.Warnf("Redis connection failed: %s (will retry automatically)", healthStatus.Error)
	}

	// Start the event hub
	hub := websocket.NewHub()
	if err := hub.Start(); err != nil {
		log.Fatalf("Failed to start event hub: %v", err)
	}
	defer hub.Stop()

	// Setup Gin router
	router := gin.Default()

	// CORS middleware
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length"},
	}

	// Handle wildcard origin for development
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}

	router.Use(cors.New(corsConfig))

	// Setup routes
	routes.SetupRoutes(router, routes.Dependencies{
		DB:          db,
		RedisClient: redisClient,
		Hub:         hub,
		Airtable:    cfg.Airtable,
	})

	// Start server
	log.Infof("Server starting on port %s", cfg.Port)
	log.Fatal(router.Run(":" + cfg.Port))
}
