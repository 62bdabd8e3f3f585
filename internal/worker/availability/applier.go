// Package availability keeps catalog availability current from the live
// feeds: the polled HTTP API and the pushed Redis Stream.
package availability

import (
	"context"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/usecase"
)

// Applier merges availability updates into the catalog
type Applier interface {
	ApplyAvailability(ctx context.Context, updates []domain.AvailabilityUpdate) (usecase.AvailabilityResult, error)
}

var _ Applier = (*usecase.ParkingUseCase)(nil)
