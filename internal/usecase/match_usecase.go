package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/domain/repository"
	"github.com/parkwhere/internal/metrics"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/parkwhere/internal/pkg/utils"
)

// MatchConfig - defaults and bounds applied to search options
type MatchConfig struct {
	DefaultRadiusMeters float64
	MaxRadiusMeters     float64
	DefaultLimit        int
	MaxLimit            int
}

// MatchOptions - caller supplied search options; zero values take defaults
type MatchOptions struct {
	MaxResults        int
	MaxDistanceMeters float64
	// LotType restricts results to one vehicle class; empty matches any
	LotType domain.LotType
}

// MatchUseCase - ranks nearby parking against the tracked or a given position
type MatchUseCase struct {
	store   repository.SpotRepository
	index   SpotIndex
	tracker LocationSource
	cfg     MatchConfig
	logger  *zap.Logger
}

// NewMatchUseCase - creates a MatchUseCase
func NewMatchUseCase(
	store repository.SpotRepository,
	index SpotIndex,
	tracker LocationSource,
	cfg MatchConfig,
	logger *zap.Logger,
) *MatchUseCase {
	if cfg.DefaultRadiusMeters <= 0 {
		cfg.DefaultRadiusMeters = 1000
	}
	if cfg.MaxRadiusMeters < cfg.DefaultRadiusMeters {
		cfg.MaxRadiusMeters = math.Max(50000, cfg.DefaultRadiusMeters)
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit * 10
	}
	return &MatchUseCase{
		store:   store,
		index:   index,
		tracker: tracker,
		cfg:     cfg,
		logger:  logger,
	}
}

// FindNearby ranks eligible spots around the current fix. It fails with
// ErrNoLocation when the tracker has no fresh fix; an empty slice is a valid
// answer.
func (uc *MatchUseCase) FindNearby(ctx context.Context, opts MatchOptions) ([]domain.MatchResult, error) {
	fix, ok := uc.tracker.Current()
	if !ok {
		metrics.MatchQueriesTotal.WithLabelValues("no_location").Inc()
		return nil, errors.ErrNoLocation
	}
	return uc.FindNearbyAt(ctx, domain.Point{Lat: fix.Latitude, Lon: fix.Longitude}, opts)
}

// FindNearbyAt ranks eligible spots around an explicit point.
func (uc *MatchUseCase) FindNearbyAt(ctx context.Context, at domain.Point, opts MatchOptions) ([]domain.MatchResult, error) {
	start := time.Now()
	defer func() {
		metrics.MatchDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	matches, opts, err := uc.collect(ctx, at, opts)
	if err != nil {
		metrics.MatchQueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	results := make([]domain.MatchResult, 0, len(matches))
	for _, m := range matches {
		if !m.spot.Eligible() {
			continue
		}
		results = append(results, domain.MatchResult{
			SpotID:         m.spot.ID,
			DistanceMeters: m.distance,
			Rank:           len(results) + 1,
			Eligible:       true,
		})
		if len(results) == opts.MaxResults {
			break
		}
	}

	if len(results) == 0 {
		metrics.MatchQueriesTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.MatchQueriesTotal.WithLabelValues("ok").Inc()
	}
	return results, nil
}

// ScanNearby returns every active in-range spot, eligible or not, in the same
// order FindNearbyAt ranks them. Only eligible entries get a rank.
func (uc *MatchUseCase) ScanNearby(ctx context.Context, at domain.Point, opts MatchOptions) ([]domain.MatchResult, error) {
	matches, opts, err := uc.collect(ctx, at, opts)
	if err != nil {
		return nil, err
	}

	results := make([]domain.MatchResult, 0, len(matches))
	rank := 0
	for _, m := range matches {
		r := domain.MatchResult{
			SpotID:         m.spot.ID,
			DistanceMeters: m.distance,
			Eligible:       m.spot.Eligible(),
		}
		if r.Eligible {
			rank++
			r.Rank = rank
		}
		results = append(results, r)
		if len(results) == opts.MaxResults {
			break
		}
	}
	return results, nil
}

type match struct {
	spot     domain.ParkingSpot
	distance float64
}

// collect runs the index query, resolves the candidates against the store and
// orders active in-range spots by distance, availability desc, id.
func (uc *MatchUseCase) collect(ctx context.Context, at domain.Point, opts MatchOptions) ([]match, MatchOptions, error) {
	opts, err := uc.normalize(opts)
	if err != nil {
		return nil, opts, err
	}
	if !utils.ValidateCoordinates(at.Lat, at.Lon) {
		return nil, opts, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"reasons": []string{"coordinates_out_of_range"},
		})
	}

	candidates := uc.index.Query(at.Lat, at.Lon, opts.MaxDistanceMeters, 0)
	if len(candidates) == 0 {
		return nil, opts, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.SpotID
	}
	spots, err := uc.store.GetMany(ctx, ids)
	if err != nil {
		uc.logger.Error("Failed to resolve match candidates", zap.Int("candidates", len(ids)), zap.Error(err))
		return nil, opts, err
	}

	matches := make([]match, 0, len(candidates))
	for _, c := range candidates {
		spot, ok := spots[c.SpotID]
		if !ok || !spot.Active {
			continue
		}
		if opts.LotType != "" && spot.LotType.Normalize() != opts.LotType {
			continue
		}
		// the store wins over an index generation that has not caught up yet
		d := c.DistanceMeters
		if spot.Latitude != c.Latitude || spot.Longitude != c.Longitude {
			d = utils.HaversineMeters(at.Lat, at.Lon, spot.Latitude, spot.Longitude)
			if d > opts.MaxDistanceMeters {
				continue
			}
		}
		matches = append(matches, match{spot: spot, distance: d})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if a.spot.AvailableCount != b.spot.AvailableCount {
			return a.spot.AvailableCount > b.spot.AvailableCount
		}
		return a.spot.ID < b.spot.ID
	})

	return matches, opts, nil
}

func (uc *MatchUseCase) normalize(opts MatchOptions) (MatchOptions, error) {
	var reasons []string

	switch {
	case opts.MaxResults == 0:
		opts.MaxResults = uc.cfg.DefaultLimit
	case opts.MaxResults < 0 || opts.MaxResults > uc.cfg.MaxLimit:
		reasons = append(reasons, "limit_out_of_range")
	}

	switch {
	case opts.MaxDistanceMeters == 0:
		opts.MaxDistanceMeters = uc.cfg.DefaultRadiusMeters
	case !utils.ValidateRadius(opts.MaxDistanceMeters) || opts.MaxDistanceMeters > uc.cfg.MaxRadiusMeters:
		reasons = append(reasons, "max_distance_out_of_range")
	}

	switch opts.LotType {
	case "", domain.LotTypeCar, domain.LotTypeMotorcycle, domain.LotTypeHeavy:
	default:
		reasons = append(reasons, "lot_type_unknown")
	}

	if len(reasons) > 0 {
		return opts, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"reasons": reasons})
	}
	return opts, nil
}
