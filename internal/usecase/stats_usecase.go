package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/parkwhere/internal/domain"
)

// StatsUseCase reports the health of the matching engine
type StatsUseCase struct {
	index   SpotIndex
	tracker LocationSource
	refresh RefreshStatusSource
	logger  *zap.Logger
}

// NewStatsUseCase creates a StatsUseCase; refresh may be nil when no
// coordinator runs in the process
func NewStatsUseCase(
	index SpotIndex,
	tracker LocationSource,
	refresh RefreshStatusSource,
	logger *zap.Logger,
) *StatsUseCase {
	return &StatsUseCase{
		index:   index,
		tracker: tracker,
		refresh: refresh,
		logger:  logger,
	}
}

// GetStatistics returns index size, location state and refresh status
func (uc *StatsUseCase) GetStatistics(ctx context.Context) (*domain.CatalogStats, error) {
	stats := &domain.CatalogStats{
		IndexedSpots: uc.index.Len(),
		Location:     uc.tracker.Snapshot().State,
	}
	if uc.refresh != nil {
		stats.Refresh = uc.refresh.Status()
	} else {
		stats.Refresh = domain.RefreshStatus{State: domain.RefreshIdle, IndexedSpots: stats.IndexedSpots}
	}

	uc.logger.Debug("Statistics collected", zap.Int("indexed_spots", stats.IndexedSpots))
	return stats, nil
}
