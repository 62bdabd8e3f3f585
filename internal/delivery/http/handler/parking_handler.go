package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/parkwhere/internal/pkg/utils"
	"github.com/parkwhere/internal/pkg/validator"
	"github.com/parkwhere/internal/usecase"
	"github.com/parkwhere/internal/usecase/dto"
)

// ParkingHandler - nearby search and record level operations
type ParkingHandler struct {
	matchUC   *usecase.MatchUseCase
	parkingUC *usecase.ParkingUseCase
	logger    *zap.Logger
}

func NewParkingHandler(matchUC *usecase.MatchUseCase, parkingUC *usecase.ParkingUseCase, logger *zap.Logger) *ParkingHandler {
	return &ParkingHandler{
		matchUC:   matchUC,
		parkingUC: parkingUC,
		logger:    logger,
	}
}

// Nearby godoc
// @Summary Nearby parking
// @Description Ranks available parking around the last reported device position: nearest first, more free lots first on equal distance.
// @Tags Parking
// @Produce json
// @Param limit query int false "Maximum number of results"
// @Param max_distance query number false "Search radius in meters"
// @Param lot_type query string false "Vehicle class (C, Y, H)"
// @Success 200 {object} utils.SuccessResponse{data=dto.NearbyResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse "No fresh location"
// @Router /api/v1/parking/nearby [get]
func (h *ParkingHandler) Nearby(c *fiber.Ctx) error {
	var req dto.NearbyRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.Wrap(err))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	start := time.Now()
	results, err := h.matchUC.FindNearby(c.Context(), usecase.MatchOptions{
		MaxResults:        req.Limit,
		MaxDistanceMeters: req.MaxDistance,
		LotType:           domain.LotType(req.LotType),
	})
	if err != nil {
		return utils.SendError(c, err)
	}

	return h.sendResults(c, nil, results, start)
}

// Scan godoc
// @Summary Scan an area
// @Description Lists every active spot around a point, including full car parks, ranked like the nearby search.
// @Tags Parking
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param limit query int false "Maximum number of results"
// @Param max_distance query number false "Search radius in meters"
// @Param lot_type query string false "Vehicle class (C, Y, H)"
// @Success 200 {object} utils.SuccessResponse{data=dto.NearbyResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/parking/scan [get]
func (h *ParkingHandler) Scan(c *fiber.Ctx) error {
	var req dto.ScanRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.Wrap(err))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	origin := domain.Point{Lat: *req.Lat, Lon: *req.Lon}
	start := time.Now()
	results, err := h.matchUC.ScanNearby(c.Context(), origin, usecase.MatchOptions{
		MaxResults:        req.Limit,
		MaxDistanceMeters: req.MaxDistance,
		LotType:           domain.LotType(req.LotType),
	})
	if err != nil {
		return utils.SendError(c, err)
	}

	return h.sendResults(c, &origin, results, start)
}

func (h *ParkingHandler) sendResults(c *fiber.Ctx, origin *domain.Point, results []domain.MatchResult, start time.Time) error {
	spots, err := h.resolve(c.Context(), results)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, dto.NearbyResponse{Origin: origin, Results: spots}, &utils.Meta{
		Total:    len(spots),
		TimeMSec: float64(time.Since(start).Microseconds()) / 1000,
	})
}

// resolve attaches the current record to each result; a spot removed in the
// meantime is returned without one.
func (h *ParkingHandler) resolve(ctx context.Context, results []domain.MatchResult) ([]dto.NearbySpot, error) {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.SpotID
	}
	records, err := h.parkingUC.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]dto.NearbySpot, len(results))
	for i, r := range results {
		out[i] = dto.NearbySpot{
			Rank:           r.Rank,
			SpotID:         r.SpotID,
			DistanceMeters: r.DistanceMeters,
			Eligible:       r.Eligible,
		}
		if spot, ok := records[r.SpotID]; ok {
			out[i].Spot = &spot
		}
	}
	return out, nil
}

// GetSpot godoc
// @Summary Get a parking spot
// @Tags Parking
// @Produce json
// @Param id path string true "Spot ID"
// @Success 200 {object} utils.SuccessResponse{data=domain.ParkingSpot}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/parking/{id} [get]
func (h *ParkingHandler) GetSpot(c *fiber.Ctx) error {
	spot, err := h.parkingUC.Get(c.Context(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, spot, nil)
}

// PutSpot godoc
// @Summary Create or replace a parking spot
// @Tags Parking
// @Accept json
// @Produce json
// @Param id path string true "Spot ID"
// @Param request body dto.UpsertSpotRequest true "Spot"
// @Success 200 {object} utils.SuccessResponse{data=domain.ParkingSpot}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/parking/{id} [put]
func (h *ParkingHandler) PutSpot(c *fiber.Ctx) error {
	var req dto.UpsertSpotRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.Wrap(err))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	spot, err := h.parkingUC.Upsert(c.Context(), domain.ParkingSpot{
		ID:             c.Params("id"),
		Latitude:       *req.Lat,
		Longitude:      *req.Lon,
		Capacity:       req.Capacity,
		AvailableCount: req.AvailableCount,
		LotType:        domain.LotType(req.LotType),
		Address:        req.Address,
		Active:         active,
	})
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, spot, nil)
}

// DeleteSpot godoc
// @Summary Mark a parking spot inactive
// @Description Records are never deleted; the spot stops appearing in searches.
// @Tags Parking
// @Param id path string true "Spot ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/parking/{id} [delete]
func (h *ParkingHandler) DeleteSpot(c *fiber.Ctx) error {
	if err := h.parkingUC.MarkInactive(c.Context(), c.Params("id")); err != nil {
		return utils.SendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PatchAvailability godoc
// @Summary Correct availability of a parking spot
// @Tags Parking
// @Accept json
// @Produce json
// @Param id path string true "Spot ID"
// @Param request body dto.AvailabilityPatchRequest true "Availability"
// @Success 200 {object} utils.SuccessResponse{data=domain.ParkingSpot}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/parking/{id}/availability [patch]
func (h *ParkingHandler) PatchAvailability(c *fiber.Ctx) error {
	var req dto.AvailabilityPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.Wrap(err))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	spot, err := h.parkingUC.SetAvailability(c.Context(), c.Params("id"), *req.AvailableCount, req.Capacity)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, spot, nil)
}
