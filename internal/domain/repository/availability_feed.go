package repository

import (
	"context"

	"github.com/parkwhere/internal/domain"
)

// AvailabilityFeed - remote source of car park availability snapshots
type AvailabilityFeed interface {
	FetchAvailability(ctx context.Context) ([]domain.AvailabilityUpdate, error)
}
