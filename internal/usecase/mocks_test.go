package usecase_test

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/parkwhere/internal/domain"
)

// MockSpotRepository is a mock of repository.SpotRepository
type MockSpotRepository struct {
	mock.Mock
}

func (m *MockSpotRepository) Upsert(ctx context.Context, spot domain.ParkingSpot) error {
	args := m.Called(ctx, spot)
	return args.Error(0)
}

func (m *MockSpotRepository) UpsertBatch(ctx context.Context, spots []domain.ParkingSpot) error {
	args := m.Called(ctx, spots)
	return args.Error(0)
}

func (m *MockSpotRepository) Get(ctx context.Context, id string) (*domain.ParkingSpot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParkingSpot), args.Error(1)
}

func (m *MockSpotRepository) GetMany(ctx context.Context, ids []string) (map[string]domain.ParkingSpot, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.ParkingSpot), args.Error(1)
}

func (m *MockSpotRepository) All(ctx context.Context) iter.Seq2[domain.ParkingSpot, error] {
	args := m.Called(ctx)
	return args.Get(0).(iter.Seq2[domain.ParkingSpot, error])
}

func (m *MockSpotRepository) MarkInactive(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// fakeTracker is a LocationSource with a settable fix
type fakeTracker struct {
	mu  sync.Mutex
	fix *domain.LocationFix
}

func (f *fakeTracker) Set(lat, lon float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fix = &domain.LocationFix{Latitude: lat, Longitude: lon, AccuracyMeters: 5, ObservedAt: time.Now()}
}

func (f *fakeTracker) Current() (domain.LocationFix, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fix == nil {
		return domain.LocationFix{}, false
	}
	return *f.fix, true
}

func (f *fakeTracker) Snapshot() domain.TrackedLocation {
	fix, ok := f.Current()
	if !ok {
		return domain.TrackedLocation{State: domain.FixUnknown}
	}
	return domain.TrackedLocation{State: domain.FixFresh, Fix: &fix}
}

// recordingTrigger counts refresh hooks
type recordingTrigger struct {
	mu      sync.Mutex
	imports int
	changes int
}

func (r *recordingTrigger) TriggerImport() {
	r.mu.Lock()
	r.imports++
	r.mu.Unlock()
}

func (r *recordingTrigger) NoteAvailabilityChanges(n int) {
	r.mu.Lock()
	r.changes += n
	r.mu.Unlock()
}

func (r *recordingTrigger) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.imports, r.changes
}
