package services

import (
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"scooter-backend/internal/models"
)

// In-memory stores mirroring the repository contract: lookups return
// (nil, nil) when the id is unknown or not a valid hex ObjectID.

type fakeScooterStore struct {
	mu        sync.Mutex
	items     map[primitive.ObjectID]*models.Scooter
	findErr   error
	updateErr error
}

func newFakeScooterStore() *fakeScooterStore {
	return &fakeScooterStore{items: make(map[primitive.ObjectID]*models.Scooter)}
}

func cloneScooter(s *models.Scooter) *models.Scooter {
	c := *s
	return &c
}

func (f *fakeScooterStore) Insert(scooter *models.Scooter) (*models.Scooter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if scooter.ID.IsZero() {
		scooter.ID = primitive.NewObjectID()
	}
	f.items[scooter.ID] = cloneScooter(scooter)
	return cloneScooter(scooter), nil
}

func (f *fakeScooterStore) FindByID(id string) (*models.Scooter, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.items[oid]
	if !ok {
		return nil, nil
	}
	return cloneScooter(s), nil
}

func (f *fakeScooterStore) FindAll() ([]*models.Scooter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Scooter, 0, len(f.items))
	for _, s := range f.items {
		out = append(out, cloneScooter(s))
	}
	return out, nil
}

func (f *fakeScooterStore) FindByStatus(status string) ([]*models.Scooter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Scooter
	for _, s := range f.items {
		if s.Status == status {
			out = append(out, cloneScooter(s))
		}
	}
	return out, nil
}

func (f *fakeScooterStore) FindAvailable(minBattery int) ([]*models.Scooter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Scooter
	for _, s := range f.items {
		if s.Status == models.ScooterStatusFree && s.Battery > minBattery {
			out = append(out, cloneScooter(s))
		}
	}
	return out, nil
}

func (f *fakeScooterStore) Update(id string, scooter *models.Scooter) (*models.Scooter, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[oid]; !ok {
		return nil, nil
	}
	c := cloneScooter(scooter)
	c.ID = oid
	f.items[oid] = c
	return cloneScooter(c), nil
}

func (f *fakeScooterStore) Delete(id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, oid)
	return nil
}

type fakeTripStore struct {
	mu        sync.Mutex
	items     map[primitive.ObjectID]*models.Trip
	updateErr error
}

func newFakeTripStore() *fakeTripStore {
	return &fakeTripStore{items: make(map[primitive.ObjectID]*models.Trip)}
}

func cloneTrip(t *models.Trip) *models.Trip {
	c := *t
	if t.EndTime != nil {
		end := *t.EndTime
		c.EndTime = &end
	}
	if t.DistanceKm != nil {
		d := *t.DistanceKm
		c.DistanceKm = &d
	}
	return &c
}

func (f *fakeTripStore) Insert(trip *models.Trip) (*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	f.items[trip.ID] = cloneTrip(trip)
	return cloneTrip(trip), nil
}

func (f *fakeTripStore) FindByID(id string) (*models.Trip, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[oid]
	if !ok {
		return nil, nil
	}
	return cloneTrip(t), nil
}

func (f *fakeTripStore) FindAll() ([]*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Trip, 0, len(f.items))
	for _, t := range f.items {
		out = append(out, cloneTrip(t))
	}
	return out, nil
}

func (f *fakeTripStore) FindOpen() ([]*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Trip
	for _, t := range f.items {
		if t.EndTime == nil {
			out = append(out, cloneTrip(t))
		}
	}
	return out, nil
}

func (f *fakeTripStore) FindOpenByScooterID(scooterID primitive.ObjectID) (*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.items {
		if t.ScooterID == scooterID && t.EndTime == nil {
			return cloneTrip(t), nil
		}
	}
	return nil, nil
}

func (f *fakeTripStore) Update(id string, trip *models.Trip) (*models.Trip, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[oid]; !ok {
		return nil, nil
	}
	c := cloneTrip(trip)
	c.ID = oid
	f.items[oid] = c
	return cloneTrip(c), nil
}

func (f *fakeTripStore) Delete(id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, oid)
	return nil
}

type fakeMaintenanceStore struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.MaintenanceRecord
}

func newFakeMaintenanceStore() *fakeMaintenanceStore {
	return &fakeMaintenanceStore{items: make(map[primitive.ObjectID]*models.MaintenanceRecord)}
}

func cloneRecord(r *models.MaintenanceRecord) *models.MaintenanceRecord {
	c := *r
	if r.CompletedAt != nil {
		done := *r.CompletedAt
		c.CompletedAt = &done
	}
	return &c
}

func (f *fakeMaintenanceStore) Insert(record *models.MaintenanceRecord) (*models.MaintenanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	ts := time.Now().UTC()
	record.CreatedAt = ts
	record.UpdatedAt = ts
	f.items[record.ID] = cloneRecord(record)
	return cloneRecord(record), nil
}

func (f *fakeMaintenanceStore) FindByID(id string) (*models.MaintenanceRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[oid]
	if !ok {
		return nil, nil
	}
	return cloneRecord(r), nil
}

func (f *fakeMaintenanceStore) FindAll() ([]*models.MaintenanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.MaintenanceRecord, 0, len(f.items))
	for _, r := range f.items {
		out = append(out, cloneRecord(r))
	}
	return out, nil
}

func (f *fakeMaintenanceStore) FindByScooterID(scooterID primitive.ObjectID) ([]*models.MaintenanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.MaintenanceRecord
	for _, r := range f.items {
		if r.ScooterID == scooterID {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

func (f *fakeMaintenanceStore) FindActiveByScooterID(scooterID, excludeID primitive.ObjectID) ([]*models.MaintenanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.MaintenanceRecord
	for _, r := range f.items {
		if r.ScooterID != scooterID || !r.IsActive() {
			continue
		}
		if !excludeID.IsZero() && r.ID == excludeID {
			continue
		}
		out = append(out, cloneRecord(r))
	}
	return out, nil
}

func (f *fakeMaintenanceStore) Update(id string, record *models.MaintenanceRecord) (*models.MaintenanceRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[oid]; !ok {
		return nil, nil
	}
	c := cloneRecord(record)
	c.ID = oid
	c.UpdatedAt = time.Now().UTC()
	f.items[oid] = c
	return cloneRecord(c), nil
}

func (f *fakeMaintenanceStore) Delete(id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, oid)
	return nil
}

// recordingBroadcaster captures published events in order.

type recordedEvent struct {
	Type    string
	Payload interface{}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) Publish(eventType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{Type: eventType, Payload: payload})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.Type
	}
	return out
}

func (b *recordingBroadcaster) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

// fixture wires a fleet engine over the in-memory stores.

type fixture struct {
	scooters    *fakeScooterStore
	trips       *fakeTripStore
	maintenance *fakeMaintenanceStore
	events      *recordingBroadcaster
	fleet       *FleetService
}

func newFixture() *fixture {
	f := &fixture{
		scooters:    newFakeScooterStore(),
		trips:       newFakeTripStore(),
		maintenance: newFakeMaintenanceStore(),
		events:      &recordingBroadcaster{},
	}
	f.fleet = NewFleetService(f.scooters, f.trips, f.maintenance)
	f.fleet.SetBroadcaster(f.events)
	return f
}

// addScooter seeds a scooter directly into the store, bypassing the engine.
func (f *fixture) addScooter(battery int, status string) *models.Scooter {
	s, _ := f.scooters.Insert(&models.Scooter{
		Model:    "Xiaomi Pro 2",
		Battery:  battery,
		Status:   status,
		Location: "52.2297,21.0122",
	})
	return s
}

func (f *fixture) addOpenTrip(scooterID primitive.ObjectID) *models.Trip {
	t, _ := f.trips.Insert(&models.Trip{
		ScooterID: scooterID,
		RiderName: "alice",
		StartTime: time.Now().UTC(),
	})
	return t
}

func (f *fixture) addRecord(scooterID primitive.ObjectID, status string) *models.MaintenanceRecord {
	r, _ := f.maintenance.Insert(&models.MaintenanceRecord{
		ScooterID:   scooterID,
		Technician:  "bob",
		Description: "brake check",
		Priority:    models.PriorityMedium,
		Status:      status,
		ScheduledAt: time.Now().UTC(),
	})
	return r
}
