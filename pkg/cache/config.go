package cache

import "time"

// CacheConfig holds configuration for cache TTL values and behavior
type CacheConfig struct {
	ScooterDataTTL time.Duration `json:"scooterDataTTL"` // single scooter reads
	ScooterListTTL time.Duration `json:"scooterListTTL"` // all/available list reads
	TripDataTTL    time.Duration `json:"tripDataTTL"`    // trip history reads
	MaxMemoryUsage int64         `json:"maxMemoryUsage"`
	EvictionPolicy string        `json:"evictionPolicy"`
	KeyPrefix      string        `json:"keyPrefix"` // prefix for all cache keys
	TagPrefix      string        `json:"tagPrefix"` // prefix for tag keys
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		ScooterDataTTL: 30 * time.Second,
		ScooterListTTL: 2 * time.Minute,
		TripDataTTL:    5 * time.Minute,
		MaxMemoryUsage: 100 * 1024 * 1024, // 100MB
		EvictionPolicy: "lru",
		KeyPrefix:      "scooter:",
		TagPrefix:      "tag:",
	}
}

// GetTTLForDataType returns appropriate TTL based on data type
func (c CacheConfig) GetTTLForDataType(dataType string) time.Duration {
	switch dataType {
	case "scooter":
		return c.ScooterDataTTL
	case "scooter_list":
		return c.ScooterListTTL
	case "trip":
		return c.TripDataTTL
	default:
		return c.ScooterDataTTL
	}
}
