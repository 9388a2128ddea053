package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port           string
	MongoURI       string
	DatabaseName   string
	AllowedOrigins []string
	Redis          RedisConfig
	Airtable       AirtableConfig
}

// RedisConfig holds Redis connection and pool settings. Either URL or
// Host/Port is used; URL wins when both are set.
type RedisConfig struct {
	URL                string
	Host               string
	Port               string
	Password           string
	DB                 int
	PoolSize           int
	MinIdleConns       int
	MaxRetries         int
	RetryDelay         time.Duration
	DialTimeout        time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	PoolTimeout        time.Duration
	IdleTimeout        time.Duration
	IdleCheckFrequency time.Duration
}

// AirtableConfig holds credentials for the spreadsheet mirror. All three
// values must be set for export/import to be enabled.
type AirtableConfig struct {
	APIKey  string
	BaseID  string
	TableID string
}

// Configured reports whether the mirror integration can be used.
func (a AirtableConfig) Configured() bool {
	return a.APIKey != "" && a.BaseID != "" && a.TableID != ""
}

func Load() *Config {
	// load .env variables; absence is fine in containerized deployments
	if err := godotenv.Load(); err != nil {
		log.Warnf("No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal("MONGO_URI environment variable is not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "scooters"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173"
	}

	return &Config{
		Port:           port,
		MongoURI:       mongoURI,
		DatabaseName:   dbName,
		AllowedOrigins: strings.Split(allowedOrigins, ","),
		Redis:          loadRedisConfig(),
		Airtable: AirtableConfig{
			APIKey:  os.Getenv("AIRTABLE_API_KEY"),
			BaseID:  os.Getenv("AIRTABLE_BASE_ID"),
			TableID: os.Getenv("AIRTABLE_TABLE_ID"),
		},
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:                os.Getenv("REDIS_URL"),
		Host:               envOrDefault("REDIS_HOST", "localhost"),
		Port:               envOrDefault("REDIS_PORT", "6379"),
		Password:           os.Getenv("REDIS_PASSWORD"),
		DB:                 envIntOrDefault("REDIS_DB", 0),
		PoolSize:           envIntOrDefault("REDIS_POOL_SIZE", 10),
		MinIdleConns:       envIntOrDefault("REDIS_MIN_IDLE_CONNS", 5),
		MaxRetries:         envIntOrDefault("REDIS_MAX_RETRIES", 3),
		RetryDelay:         time.Second,
		DialTimeout:        5 * time.Second,
		ReadTimeout:        3 * time.Second,
		WriteTimeout:       3 * time.Second,
		PoolTimeout:        4 * time.Second,
		IdleTimeout:        5 * time.Minute,
		IdleCheckFrequency: time.Minute,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("Invalid value for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
