package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/parkwhere/internal/pkg/utils"
	"github.com/parkwhere/internal/pkg/validator"
	"github.com/parkwhere/internal/tracker"
	"github.com/parkwhere/internal/usecase/dto"
)

// LocationHandler - device position reports
type LocationHandler struct {
	tracker *tracker.LocationTracker
	logger  *zap.Logger
}

func NewLocationHandler(t *tracker.LocationTracker, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{
		tracker: t,
		logger:  logger,
	}
}

// ReportLocation godoc
// @Summary Report device position
// @Description Feeds a position fix to the tracker. Out-of-order, inaccurate and future fixes are dropped and reported in the outcome.
// @Tags Location
// @Accept json
// @Produce json
// @Param request body dto.LocationRequest true "Position fix"
// @Success 200 {object} utils.SuccessResponse{data=dto.LocationResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/location [post]
func (h *LocationHandler) ReportLocation(c *fiber.Ctx) error {
	var req dto.LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.Wrap(err))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	observed := time.Now().UTC()
	if req.ObservedAt != nil {
		observed = *req.ObservedAt
	}

	res, err := h.tracker.Record(domain.LocationFix{
		Latitude:       *req.Lat,
		Longitude:      *req.Lon,
		AccuracyMeters: req.Accuracy,
		ObservedAt:     observed,
	})
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, dto.LocationResponse{
		Outcome:  res.Outcome,
		Moved:    res.Moved,
		Location: h.tracker.Snapshot(),
	}, nil)
}

// GetLocation godoc
// @Summary Current device position
// @Tags Location
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=domain.TrackedLocation}
// @Router /api/v1/location [get]
func (h *LocationHandler) GetLocation(c *fiber.Ctx) error {
	return utils.SendSuccess(c, h.tracker.Snapshot(), nil)
}
