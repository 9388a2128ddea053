package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"scooter-backend/internal/config"
	"scooter-backend/internal/models"
	"scooter-backend/pkg/redis"
)

func setupTestManager(t *testing.T) (*miniredis.Miniredis, *RedisCacheManager) {
	t.Helper()

	mr := miniredis.RunT(t)

	host, port, ok := strings.Cut(mr.Addr(), ":")
	require.True(t, ok)

	client := redis.NewClient(config.RedisConfig{
		Host:         host,
		Port:         port,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})
	t.Cleanup(func() { client.Close() })

	cfg := DefaultCacheConfig()
	cfg.KeyPrefix = "test:"
	cfg.TagPrefix = "test_tag:"

	return mr, NewRedisCacheManager(client, cfg)
}

func testScooter(battery int, status string) *models.Scooter {
	return &models.Scooter{
		ID:       primitive.NewObjectID(),
		Model:    "Ninebot Max",
		Battery:  battery,
		Status:   status,
		Location: "52.2297,21.0122",
	}
}

func TestRedisCacheManager_ScooterOperations(t *testing.T) {
	_, manager := setupTestManager(t)

	scooter := testScooter(80, models.ScooterStatusFree)
	id := scooter.ID.Hex()

	t.Run("SetScooter", func(t *testing.T) {
		err := manager.SetScooter(id, scooter, 30*time.Second)
		assert.NoError(t, err)
	})

	t.Run("GetScooter", func(t *testing.T) {
		got, err := manager.GetScooter(id)
		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, scooter.Model, got.Model)
		assert.Equal(t, scooter.Battery, got.Battery)
		assert.Equal(t, scooter.Status, got.Status)
	})

	t.Run("GetScooter_NotFound", func(t *testing.T) {
		got, err := manager.GetScooter(primitive.NewObjectID().Hex())
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("InvalidateScooter", func(t *testing.T) {
		err := manager.InvalidateScooter(id)
		assert.NoError(t, err)

		got, err := manager.GetScooter(id)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestRedisCacheManager_TTLBehavior(t *testing.T) {
	mr, manager := setupTestManager(t)

	scooter := testScooter(55, models.ScooterStatusFree)
	id := scooter.ID.Hex()

	err := manager.SetScooter(id, scooter, 100*time.Millisecond)
	require.NoError(t, err)

	got, err := manager.GetScooter(id)
	assert.NoError(t, err)
	assert.NotNil(t, got)

	// Fast-forward time in miniredis past the TTL
	mr.FastForward(200 * time.Millisecond)

	got, err = manager.GetScooter(id)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheManager_TaggingSystem(t *testing.T) {
	_, manager := setupTestManager(t)

	free1 := testScooter(90, models.ScooterStatusFree)
	free2 := testScooter(70, models.ScooterStatusFree)
	rented := testScooter(60, models.ScooterStatusRented)

	for _, s := range []*models.Scooter{free1, free2, rented} {
		err := manager.SetScooter(s.ID.Hex(), s, 5*time.Minute)
		require.NoError(t, err)
	}

	// Invalidating by status tag drops only scooters with that status
	err := manager.InvalidateByTag("status:free")
	assert.NoError(t, err)

	got, err := manager.GetScooter(free1.ID.Hex())
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = manager.GetScooter(free2.ID.Hex())
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = manager.GetScooter(rented.ID.Hex())
	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.ScooterStatusRented, got.Status)
}

func TestRedisCacheManager_ScooterListOperations(t *testing.T) {
	_, manager := setupTestManager(t)

	scooters := []*models.Scooter{
		testScooter(100, models.ScooterStatusFree),
		testScooter(40, models.ScooterStatusMaintenance),
	}

	t.Run("SetScooterList", func(t *testing.T) {
		err := manager.SetScooterList(ListKeyAll, scooters, 2*time.Minute)
		assert.NoError(t, err)
	})

	t.Run("GetScooterList", func(t *testing.T) {
		got, err := manager.GetScooterList(ListKeyAll)
		assert.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, scooters[0].ID, got[0].ID)
		assert.Equal(t, scooters[1].ID, got[1].ID)
	})

	t.Run("GetScooterList_NotFound", func(t *testing.T) {
		got, err := manager.GetScooterList("nonexistent_list")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DeleteScooterList", func(t *testing.T) {
		err := manager.DeleteScooterList(ListKeyAll)
		assert.NoError(t, err)

		got, err := manager.GetScooterList(ListKeyAll)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestRedisCacheManager_GenericOperations(t *testing.T) {
	_, manager := setupTestManager(t)

	t.Run("SetAndGet", func(t *testing.T) {
		err := manager.Set("sync_cursor", "rec123", time.Minute)
		require.NoError(t, err)

		var value string
		err = manager.Get("sync_cursor", &value)
		assert.NoError(t, err)
		assert.Equal(t, "rec123", value)
	})

	t.Run("Get_Miss", func(t *testing.T) {
		var value string
		err := manager.Get("missing", &value)
		assert.NoError(t, err)
		assert.Empty(t, value)
	})
}

func TestRedisCacheManager_Stats(t *testing.T) {
	_, manager := setupTestManager(t)

	scooter := testScooter(65, models.ScooterStatusFree)
	id := scooter.ID.Hex()

	stats := manager.GetCacheStats()
	assert.Equal(t, int64(0), stats.TotalHits)
	assert.Equal(t, int64(0), stats.TotalMisses)

	// Cache miss
	_, err := manager.GetScooter(id)
	require.NoError(t, err)

	stats = manager.GetCacheStats()
	assert.Equal(t, int64(0), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMisses)
	assert.Equal(t, 1.0, stats.MissRate)

	// Cache set and hit
	err = manager.SetScooter(id, scooter, time.Minute)
	require.NoError(t, err)

	_, err = manager.GetScooter(id)
	require.NoError(t, err)

	stats = manager.GetCacheStats()
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMisses)
	assert.Equal(t, 0.5, stats.HitRate)
	assert.Equal(t, 0.5, stats.MissRate)
}

func TestRedisCacheManager_HealthCheck(t *testing.T) {
	mr, manager := setupTestManager(t)

	err := manager.HealthCheck()
	assert.NoError(t, err)

	mr.Close()
	err = manager.HealthCheck()
	assert.Error(t, err)
}
