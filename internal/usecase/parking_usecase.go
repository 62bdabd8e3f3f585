package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/domain/repository"
	"github.com/parkwhere/internal/metrics"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/parkwhere/internal/pkg/validator"
)

// AvailabilityResult - per-batch tally of ApplyAvailability
type AvailabilityResult struct {
	Received        int `json:"received"`
	Applied         int `json:"applied"`
	UnknownSpot     int `json:"unknown_spot"`
	LotTypeMismatch int `json:"lot_type_mismatch"`
	Stale           int `json:"stale"`
	Invalid         int `json:"invalid"`
}

// ParkingUseCase - record level operations that keep store and index in step.
// Writes are serialised so every read-check-write sees the latest record.
type ParkingUseCase struct {
	store   repository.SpotRepository
	index   SpotIndex
	refresh RefreshTrigger
	logger  *zap.Logger
	now     func() time.Time

	writeMu sync.Mutex
}

// NewParkingUseCase - creates a ParkingUseCase; index and refresh may be nil
// in processes that only write the store
func NewParkingUseCase(
	store repository.SpotRepository,
	index SpotIndex,
	refresh RefreshTrigger,
	logger *zap.Logger,
) *ParkingUseCase {
	if index == nil {
		index = noopIndex{}
	}
	if refresh == nil {
		refresh = noopTrigger{}
	}
	return &ParkingUseCase{
		store:   store,
		index:   index,
		refresh: refresh,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ParkingUseCase) Get(ctx context.Context, id string) (*domain.ParkingSpot, error) {
	return uc.store.Get(ctx, id)
}

func (uc *ParkingUseCase) GetMany(ctx context.Context, ids []string) (map[string]domain.ParkingSpot, error) {
	return uc.store.GetMany(ctx, ids)
}

// Upsert stores a spot and moves it in the index straight away. A zero
// LastUpdatedAt is stamped with the current time and an empty source means
// the record was entered by hand, i.e. imported. Timestamps are stored in UTC.
func (uc *ParkingUseCase) Upsert(ctx context.Context, spot domain.ParkingSpot) (*domain.ParkingSpot, error) {
	if spot.LastUpdatedAt.IsZero() {
		spot.LastUpdatedAt = uc.now()
	}
	spot.LastUpdatedAt = spot.LastUpdatedAt.UTC()
	if spot.Source == "" {
		spot.Source = domain.SourceImported
	}
	spot.LotType = spot.LotType.Normalize()

	uc.writeMu.Lock()
	defer uc.writeMu.Unlock()

	if err := uc.store.Upsert(ctx, spot); err != nil {
		return nil, err
	}
	uc.index.Upsert(spot)
	uc.refresh.NoteAvailabilityChanges(1)

	return &spot, nil
}

// MarkInactive keeps the record but drops it from matching.
func (uc *ParkingUseCase) MarkInactive(ctx context.Context, id string) error {
	uc.writeMu.Lock()
	defer uc.writeMu.Unlock()

	if err := uc.store.MarkInactive(ctx, id, uc.now()); err != nil {
		return err
	}
	uc.index.Remove(id)
	uc.refresh.NoteAvailabilityChanges(1)

	uc.logger.Info("Parking spot marked inactive", zap.String("id", id))
	return nil
}

// SetAvailability applies a manual availability change observed now.
func (uc *ParkingUseCase) SetAvailability(ctx context.Context, id string, available int, capacity *int) (*domain.ParkingSpot, error) {
	uc.writeMu.Lock()
	defer uc.writeMu.Unlock()

	spot, err := uc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *spot
	next.AvailableCount = available
	if capacity != nil {
		next.Capacity = *capacity
	}
	next.Source = domain.SourceLive
	next.LastUpdatedAt = uc.now()

	if err := validator.ValidateSpot(next); err != nil {
		return nil, err
	}
	if err := uc.store.Upsert(ctx, next); err != nil {
		return nil, err
	}
	uc.index.Upsert(next)
	uc.refresh.NoteAvailabilityChanges(1)

	return &next, nil
}

// ApplyAvailability merges live availability into the catalog. Updates for
// unknown spots, for another lot type or older than the stored record are
// skipped, as are updates that would break the record invariants. Only a
// store failure is returned as an error.
func (uc *ParkingUseCase) ApplyAvailability(ctx context.Context, updates []domain.AvailabilityUpdate) (AvailabilityResult, error) {
	res := AvailabilityResult{Received: len(updates)}
	if len(updates) == 0 {
		return res, nil
	}

	ids := make([]string, 0, len(updates))
	for _, u := range updates {
		ids = append(ids, u.SpotID)
	}

	uc.writeMu.Lock()
	defer uc.writeMu.Unlock()

	current, err := uc.store.GetMany(ctx, ids)
	if err != nil {
		metrics.AvailabilityUpdatesTotal.WithLabelValues("error").Add(float64(len(updates)))
		return res, err
	}

	changed := make(map[string]domain.ParkingSpot)
	order := make([]string, 0, len(updates))

	for _, u := range updates {
		spot, ok := current[u.SpotID]
		if !ok {
			res.UnknownSpot++
			metrics.AvailabilityUpdatesTotal.WithLabelValues("unknown_spot").Inc()
			continue
		}
		if u.LotType.Normalize() != spot.LotType.Normalize() {
			res.LotTypeMismatch++
			metrics.AvailabilityUpdatesTotal.WithLabelValues("lot_type_mismatch").Inc()
			continue
		}
		if u.ObservedAt.Before(spot.LastUpdatedAt) {
			res.Stale++
			metrics.AvailabilityUpdatesTotal.WithLabelValues("stale").Inc()
			continue
		}

		next := spot
		next.AvailableCount = u.AvailableCount
		if u.Capacity != nil {
			next.Capacity = *u.Capacity
		}
		next.Source = domain.SourceLive
		next.LastUpdatedAt = u.ObservedAt.UTC()

		if err := validator.ValidateSpot(next); err != nil {
			res.Invalid++
			metrics.AvailabilityUpdatesTotal.WithLabelValues("invalid").Inc()
			uc.logger.Warn("Skipping invalid availability update",
				zap.String("spot_id", u.SpotID),
				zap.Strings("reasons", errors.Reasons(err)),
			)
			continue
		}

		if _, seen := changed[next.ID]; !seen {
			order = append(order, next.ID)
		}
		changed[next.ID] = next
		// later updates in the same batch compare against this one
		current[next.ID] = next
	}

	if len(changed) == 0 {
		return res, nil
	}

	batch := make([]domain.ParkingSpot, 0, len(order))
	for _, id := range order {
		batch = append(batch, changed[id])
	}
	if err := uc.store.UpsertBatch(ctx, batch); err != nil {
		metrics.AvailabilityUpdatesTotal.WithLabelValues("error").Add(float64(len(batch)))
		uc.logger.Error("Failed to store availability updates", zap.Int("spots", len(batch)), zap.Error(err))
		return res, err
	}

	for _, s := range batch {
		uc.index.Upsert(s)
	}
	res.Applied = len(batch)
	metrics.AvailabilityUpdatesTotal.WithLabelValues("applied").Add(float64(len(batch)))
	uc.refresh.NoteAvailabilityChanges(len(batch))

	uc.logger.Debug("Availability applied",
		zap.Int("received", res.Received),
		zap.Int("applied", res.Applied),
		zap.Int("unknown", res.UnknownSpot),
		zap.Int("stale", res.Stale),
	)
	return res, nil
}
