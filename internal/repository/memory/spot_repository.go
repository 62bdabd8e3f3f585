package memory

import (
	"context"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/domain/repository"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/parkwhere/internal/pkg/validator"
)

// SpotRepository keeps the catalog in a map guarded by a RWMutex. Values are
// stored by copy so callers can never mutate a record in place.
type SpotRepository struct {
	mu    sync.RWMutex
	spots map[string]domain.ParkingSpot
}

var _ repository.SpotRepository = (*SpotRepository)(nil)

func NewSpotRepository() *SpotRepository {
	return &SpotRepository{
		spots: make(map[string]domain.ParkingSpot),
	}
}

func (r *SpotRepository) Upsert(ctx context.Context, spot domain.ParkingSpot) error {
	if err := validator.ValidateSpot(spot); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.spots[spot.ID] = spot
	return nil
}

// UpsertBatch validates every spot before touching the map, so a bad spot
// leaves the store unchanged.
func (r *SpotRepository) UpsertBatch(ctx context.Context, spots []domain.ParkingSpot) error {
	for _, s := range spots {
		if err := validator.ValidateSpot(s); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return errors.ErrStore.Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range spots {
		r.spots[s.ID] = s
	}
	return nil
}

func (r *SpotRepository) Get(ctx context.Context, id string) (*domain.ParkingSpot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spot, ok := r.spots[id]
	if !ok {
		return nil, errors.ErrSpotNotFound
	}
	return &spot, nil
}

func (r *SpotRepository) GetMany(ctx context.Context, ids []string) (map[string]domain.ParkingSpot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.ParkingSpot, len(ids))
	for _, id := range ids {
		if spot, ok := r.spots[id]; ok {
			out[id] = spot
		}
	}
	return out, nil
}

// All copies the catalog under the read lock when ranging starts and yields
// it ordered by id.
func (r *SpotRepository) All(ctx context.Context) iter.Seq2[domain.ParkingSpot, error] {
	return func(yield func(domain.ParkingSpot, error) bool) {
		r.mu.RLock()
		snapshot := make([]domain.ParkingSpot, 0, len(r.spots))
		for _, s := range r.spots {
			snapshot = append(snapshot, s)
		}
		r.mu.RUnlock()

		sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ID < snapshot[j].ID })

		for _, s := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(domain.ParkingSpot{}, errors.ErrStore.Wrap(err))
				return
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

func (r *SpotRepository) MarkInactive(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	spot, ok := r.spots[id]
	if !ok {
		return errors.ErrSpotNotFound
	}
	spot.Active = false
	spot.LastUpdatedAt = at
	r.spots[id] = spot
	return nil
}

// Len returns the number of stored records, active or not.
func (r *SpotRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.spots)
}
