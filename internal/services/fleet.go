package services

import (
	"sync"
	"time"

	"scooter-backend/internal/models"
	"scooter-backend/pkg/cache"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScooterStore is the persistence surface the engine needs for scooters.
// Lookups return (nil, nil) when the id does not resolve.
type ScooterStore interface {
	Insert(scooter *models.Scooter) (*models.Scooter, error)
	FindByID(id string) (*models.Scooter, error)
	FindAll() ([]*models.Scooter, error)
	FindByStatus(status string) ([]*models.Scooter, error)
	FindAvailable(minBattery int) ([]*models.Scooter, error)
	Update(id string, scooter *models.Scooter) (*models.Scooter, error)
	Delete(id string) error
}

// TripStore is the persistence surface the engine needs for trips.
type TripStore interface {
	Insert(trip *models.Trip) (*models.Trip, error)
	FindByID(id string) (*models.Trip, error)
	FindAll() ([]*models.Trip, error)
	FindOpen() ([]*models.Trip, error)
	FindOpenByScooterID(scooterID primitive.ObjectID) (*models.Trip, error)
	Update(id string, trip *models.Trip) (*models.Trip, error)
	Delete(id string) error
}

// MaintenanceStore is the persistence surface the engine needs for
// maintenance records.
type MaintenanceStore interface {
	Insert(record *models.MaintenanceRecord) (*models.MaintenanceRecord, error)
	FindByID(id string) (*models.MaintenanceRecord, error)
	FindAll() ([]*models.MaintenanceRecord, error)
	FindByScooterID(scooterID primitive.ObjectID) ([]*models.MaintenanceRecord, error)
	FindActiveByScooterID(scooterID, excludeID primitive.ObjectID) ([]*models.MaintenanceRecord, error)
	Update(id string, record *models.MaintenanceRecord) (*models.MaintenanceRecord, error)
	Delete(id string) error
}

// Broadcaster fans a typed event out to every connected observer.
// Delivery is fire-and-forget.
type Broadcaster interface {
	Publish(eventType string, payload interface{})
}

// Event types emitted by the engine. Events from a single mutation are
// published in the documented order; a failed mutation publishes nothing.
const (
	EventScooterCreated       = "scooter:created"
	EventScooterUpdated       = "scooter:updated"
	EventScooterDeleted       = "scooter:deleted"
	EventTripCreated          = "trip:created"
	EventTripFinalized        = "trip:finalized"
	EventMaintenanceCreated   = "maintenance:created"
	EventMaintenanceUpdated   = "maintenance:updated"
	EventMaintenanceCompleted = "maintenance:completed"
	EventMaintenanceCancelled = "maintenance:cancelled"
	EventMaintenanceDeleted   = "maintenance:deleted"
)

// FleetService is the state-transition engine for the scooter fleet. Every
// mutation runs its precondition checks and writes inside a per-scooter
// critical section, so concurrent operations on the same scooter serialize
// while different scooters proceed independently.
type FleetService struct {
	scooters    ScooterStore
	trips       TripStore
	maintenance MaintenanceStore

	broadcaster  Broadcaster
	cacheManager cache.CacheManager
	cacheConfig  cache.CacheConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFleetService(scooters ScooterStore, trips TripStore, maintenance MaintenanceStore) *FleetService {
	return &FleetService{
		scooters:    scooters,
		trips:       trips,
		maintenance: maintenance,
		cacheConfig: cache.DefaultCacheConfig(),
		locks:       make(map[string]*sync.Mutex),
	}
}

// SetBroadcaster allows setting the broadcaster for real-time updates
func (s *FleetService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetCacheManager allows setting the cache manager for caching operations
func (s *FleetService) SetCacheManager(cm cache.CacheManager) {
	s.cacheManager = cm
}

// SetCacheConfig allows setting custom cache configuration
func (s *FleetService) SetCacheConfig(config cache.CacheConfig) {
	s.cacheConfig = config
}

// lockScooter acquires the mutex for one scooter id and returns its unlock
// function. Mutexes live for the process lifetime; the map is bounded by
// fleet size.
func (s *FleetService) lockScooter(id string) func() {
	// ObjectID hex is case-insensitive, so mixed-case spellings of one id
	// must map to the same mutex.
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		id = oid.Hex()
	}

	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *FleetService) publish(eventType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.Publish(eventType, payload)
	}
}

func now() time.Time {
	return time.Now().UTC()
}

// Cache invalidation helpers. Cache errors never fail a mutation.

func (s *FleetService) invalidateScooterCache(scooterID string) {
	if s.cacheManager == nil {
		return
	}
	if err := s.cacheManager.InvalidateScooter(scooterID); err != nil {
		log.Printf("Failed to invalidate scooter cache for %s: %v", scooterID, err)
	}
	s.invalidateScooterLists()
}

func (s *FleetService) invalidateScooterLists() {
	if s.cacheManager == nil {
		return
	}
	for _, key := range []string{cache.ListKeyAll, cache.ListKeyAvailable} {
		if err := s.cacheManager.DeleteScooterList(key); err != nil {
			log.Printf("Failed to invalidate scooter list cache %s: %v", key, err)
		}
	}
}
