package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"scooter-backend/internal/models"
	"scooter-backend/internal/services"
	"scooter-backend/internal/websocket"
)

// In-memory stores backing a real fleet engine, so handler tests exercise
// the actual status-code mapping end to end.

type stubScooters struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Scooter
}

func newStubScooters() *stubScooters {
	return &stubScooters{items: make(map[primitive.ObjectID]*models.Scooter)}
}

func (m *stubScooters) Insert(s *models.Scooter) (*models.Scooter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	c := *s
	m.items[c.ID] = &c
	out := c
	return &out, nil
}

func (m *stubScooters) FindByID(id string) (*models.Scooter, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[oid]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (m *stubScooters) FindAll() ([]*models.Scooter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Scooter, 0, len(m.items))
	for _, s := range m.items {
		c := *s
		out = append(out, &c)
	}
	return out, nil
}

func (m *stubScooters) FindByStatus(string) ([]*models.Scooter, error) { return nil, nil }

func (m *stubScooters) FindAvailable(minBattery int) ([]*models.Scooter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Scooter
	for _, s := range m.items {
		if s.Status == models.ScooterStatusFree && s.Battery > minBattery {
			c := *s
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *stubScooters) Update(id string, s *models.Scooter) (*models.Scooter, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[oid]; !ok {
		return nil, nil
	}
	c := *s
	c.ID = oid
	m.items[oid] = &c
	out := c
	return &out, nil
}

func (m *stubScooters) Delete(id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, oid)
	return nil
}

type stubTrips struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Trip
}

func newStubTrips() *stubTrips {
	return &stubTrips{items: make(map[primitive.ObjectID]*models.Trip)}
}

func (m *stubTrips) Insert(t *models.Trip) (*models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	c := *t
	m.items[c.ID] = &c
	out := c
	return &out, nil
}

func (m *stubTrips) FindByID(id string) (*models.Trip, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[oid]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (m *stubTrips) FindAll() ([]*models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Trip, 0, len(m.items))
	for _, t := range m.items {
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

func (m *stubTrips) FindOpen() ([]*models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Trip
	for _, t := range m.items {
		if t.EndTime == nil {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *stubTrips) FindOpenByScooterID(scooterID primitive.ObjectID) (*models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.items {
		if t.ScooterID == scooterID && t.EndTime == nil {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (m *stubTrips) Update(id string, t *models.Trip) (*models.Trip, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[oid]; !ok {
		return nil, nil
	}
	c := *t
	c.ID = oid
	m.items[oid] = &c
	out := c
	return &out, nil
}

func (m *stubTrips) Delete(id string) error { return nil }

type stubMaintenance struct{}

func (stubMaintenance) Insert(*models.MaintenanceRecord) (*models.MaintenanceRecord, error) {
	return nil, nil
}
func (stubMaintenance) FindByID(string) (*models.MaintenanceRecord, error) { return nil, nil }
func (stubMaintenance) FindAll() ([]*models.MaintenanceRecord, error)      { return nil, nil }
func (stubMaintenance) FindByScooterID(primitive.ObjectID) ([]*models.MaintenanceRecord, error) {
	return nil, nil
}
func (stubMaintenance) FindActiveByScooterID(primitive.ObjectID, primitive.ObjectID) ([]*models.MaintenanceRecord, error) {
	return nil, nil
}
func (stubMaintenance) Update(string, *models.MaintenanceRecord) (*models.MaintenanceRecord, error) {
	return nil, nil
}
func (stubMaintenance) Delete(string) error { return nil }

func setupRouter(t *testing.T) (*gin.Engine, *stubScooters, *services.FleetService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newStubScooters()
	fleet := services.NewFleetService(store, newStubTrips(), stubMaintenance{})

	scooterHandler := NewScooterHandler(fleet)
	tripHandler := NewTripHandler(fleet)

	router := gin.New()
	api := router.Group("/api/v1")
	api.GET("/scooters", scooterHandler.GetScooters)
	api.POST("/scooters", scooterHandler.CreateScooter)
	api.GET("/scooters/available", scooterHandler.GetAvailableScooters)
	api.GET("/scooters/:id", scooterHandler.GetScooter)
	api.PATCH("/scooters/:id/battery", scooterHandler.UpdateBattery)
	api.DELETE("/scooters/:id", scooterHandler.DeleteScooter)
	api.POST("/trips/rent", tripHandler.RentScooter)
	api.POST("/trips/:id/finalize", tripHandler.FinalizeTrip)

	return router, store, fleet
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetScooter(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/scooters", gin.H{
		"model":    "Ninebot Max",
		"location": "depot-1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Success bool           `json:"success"`
		Data    models.Scooter `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, 100, created.Data.Battery)
	assert.Equal(t, models.ScooterStatusFree, created.Data.Status)

	w = doJSON(router, http.MethodGet, "/api/v1/scooters/"+created.Data.ID.Hex(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateScooterValidation(t *testing.T) {
	router, _, _ := setupRouter(t)

	// Missing required fields
	w := doJSON(router, http.MethodPost, "/api/v1/scooters", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Validation failed", resp.Message)

	// Invalid status value
	w = doJSON(router, http.MethodPost, "/api/v1/scooters", gin.H{
		"model":    "Ninebot Max",
		"location": "depot-1",
		"status":   "broken",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetScooterNotFoundStatus(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/scooters/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBatteryUpdateStatusCodes(t *testing.T) {
	router, store, _ := setupRouter(t)

	scooter, err := store.Insert(&models.Scooter{
		Model:    "Ninebot Max",
		Battery:  50,
		Status:   models.ScooterStatusFree,
		Location: "depot-1",
	})
	require.NoError(t, err)

	w := doJSON(router, http.MethodPatch, "/api/v1/scooters/"+scooter.ID.Hex()+"/battery", gin.H{"battery": 15})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPatch, "/api/v1/scooters/"+scooter.ID.Hex()+"/battery", gin.H{"battery": 130})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRentalFlowStatusCodes(t *testing.T) {
	router, store, _ := setupRouter(t)

	low, err := store.Insert(&models.Scooter{
		Model:    "Ninebot Max",
		Battery:  15,
		Status:   models.ScooterStatusFree,
		Location: "depot-1",
	})
	require.NoError(t, err)

	// Battery too low is a client error, not a server one
	w := doJSON(router, http.MethodPost, "/api/v1/trips/rent", gin.H{
		"scooterId": low.ID.Hex(),
		"riderName": "alice",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ready, err := store.Insert(&models.Scooter{
		Model:    "Ninebot Max",
		Battery:  90,
		Status:   models.ScooterStatusFree,
		Location: "depot-1",
	})
	require.NoError(t, err)

	w = doJSON(router, http.MethodPost, "/api/v1/trips/rent", gin.H{
		"scooterId": ready.ID.Hex(),
		"riderName": "alice",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var rented struct {
		Data models.Trip `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rented))

	// Scooter is no longer rentable while the trip is open
	w = doJSON(router, http.MethodDelete, "/api/v1/scooters/"+ready.ID.Hex(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/trips/"+rented.Data.ID.Hex()+"/finalize", gin.H{"distanceKm": "2.75"})
	assert.Equal(t, http.StatusOK, w.Code)

	// A second finalize is rejected
	w = doJSON(router, http.MethodPost, "/api/v1/trips/"+rented.Data.ID.Hex()+"/finalize", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinalizeTripWithoutBody(t *testing.T) {
	router, store, _ := setupRouter(t)

	scooter, err := store.Insert(&models.Scooter{
		Model:    "Ninebot Max",
		Battery:  90,
		Status:   models.ScooterStatusFree,
		Location: "depot-1",
	})
	require.NoError(t, err)

	w := doJSON(router, http.MethodPost, "/api/v1/trips/rent", gin.H{
		"scooterId": scooter.ID.Hex(),
		"riderName": "alice",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var rented struct {
		Data models.Trip `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rented))

	// No body at all: distance falls back to the default
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/trips/"+rented.Data.ID.Hex()+"/finalize", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var finalized struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &finalized))
	assert.Equal(t, "0.00", finalized.Data["distanceKm"])
	assert.NotNil(t, finalized.Data["endTime"])
}

func TestSyncEndpointsUnconfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handler := NewSyncHandler(nil)
	router.POST("/api/v1/sheet/export", handler.ExportFleet)
	router.POST("/api/v1/sheet/import", handler.ImportFleet)

	w := doJSON(router, http.MethodPost, "/api/v1/sheet/export", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/sheet/import", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWebSocketStatsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hub := websocket.NewHub()
	require.NoError(t, hub.Start())
	defer hub.Stop()

	handler := NewWebSocketHandler(hub)
	router := gin.New()
	router.GET("/ws/stats", handler.GetConnectedClients)

	w := doJSON(router, http.MethodGet, "/ws/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "connectedClients")
	assert.Contains(t, response, "stats")
	assert.Equal(t, float64(0), response["connectedClients"])
}
