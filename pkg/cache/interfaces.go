package cache

import (
	"time"

	"scooter-backend/internal/models"
)

// Well-known scooter list cache keys.
const (
	ListKeyAll       = "all"
	ListKeyAvailable = "available"
)

// CacheManager defines the interface for caching operations
type CacheManager interface {
	// Scooter operations
	GetScooter(scooterID string) (*models.Scooter, error)
	SetScooter(scooterID string, scooter *models.Scooter, ttl time.Duration) error
	InvalidateScooter(scooterID string) error

	// Scooter list operations
	GetScooterList(key string) ([]*models.Scooter, error)
	SetScooterList(key string, scooters []*models.Scooter, ttl time.Duration) error
	DeleteScooterList(key string) error

	// Generic operations
	Get(key string, dest interface{}) error
	Set(key string, value interface{}, ttl time.Duration) error
	Delete(key string) error

	// Tag operations for intelligent invalidation
	TagKey(key string, tags ...string) error
	InvalidateByTag(tag string) error

	// Statistics and health
	GetCacheStats() CacheStats
	HealthCheck() error
	Close() error
}

// CacheStats provides cache performance metrics
type CacheStats struct {
	HitRate       float64 `json:"hitRate"`
	MissRate      float64 `json:"missRate"`
	MemoryUsage   int64   `json:"memoryUsage"`
	KeyCount      int     `json:"keyCount"`
	EvictionCount int     `json:"evictionCount"`
	TotalHits     int64   `json:"totalHits"`
	TotalMisses   int64   `json:"totalMisses"`
}
