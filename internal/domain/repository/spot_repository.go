package repository

import (
	"context"
	"iter"
	"time"

	"github.com/parkwhere/internal/domain"
)

// SpotRepository is the durable record store for parking spots. Writes are
// atomic per record; UpsertBatch is atomic for the whole slice.
type SpotRepository interface {
	// Upsert inserts or replaces a spot by id after validation
	Upsert(ctx context.Context, spot domain.ParkingSpot) error

	// UpsertBatch commits all spots or none
	UpsertBatch(ctx context.Context, spots []domain.ParkingSpot) error

	// Get returns the spot or errors.ErrSpotNotFound
	Get(ctx context.Context, id string) (*domain.ParkingSpot, error)

	// GetMany resolves ids in one round trip; unknown ids are absent from the map
	GetMany(ctx context.Context, ids []string) (map[string]domain.ParkingSpot, error)

	// All yields every stored spot; each range over the sequence reads the store again
	All(ctx context.Context) iter.Seq2[domain.ParkingSpot, error]

	// MarkInactive keeps the record but removes it from matching
	MarkInactive(ctx context.Context, id string, at time.Time) error
}
