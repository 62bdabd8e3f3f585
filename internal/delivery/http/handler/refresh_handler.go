package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/pkg/utils"
	"github.com/parkwhere/internal/usecase"
)

// RefreshController - the index refresh coordinator as seen by the API
type RefreshController interface {
	Status() domain.RefreshStatus
	TriggerManual()
}

// AvailabilityFetcher - on-demand pull of the availability feed
type AvailabilityFetcher interface {
	FetchIfStale(ctx context.Context) (bool, error)
}

// RefreshHandler - index refresh and engine statistics
type RefreshHandler struct {
	refresh RefreshController
	feed    AvailabilityFetcher
	statsUC *usecase.StatsUseCase
	logger  *zap.Logger
}

// NewRefreshHandler creates a RefreshHandler; feed may be nil when the
// availability feed is disabled
func NewRefreshHandler(refresh RefreshController, feed AvailabilityFetcher, statsUC *usecase.StatsUseCase, logger *zap.Logger) *RefreshHandler {
	return &RefreshHandler{
		refresh: refresh,
		feed:    feed,
		statsUC: statsUC,
		logger:  logger,
	}
}

// GetStatus godoc
// @Summary Index refresh status
// @Tags Refresh
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=domain.RefreshStatus}
// @Router /api/v1/refresh [get]
func (h *RefreshHandler) GetStatus(c *fiber.Ctx) error {
	return utils.SendSuccess(c, h.refresh.Status(), nil)
}

// Refresh godoc
// @Summary Request an index refresh
// @Description Schedules a rebuild of the spatial index. With availability=true the availability feed is pulled first unless it was fetched within the minimum interval.
// @Tags Refresh
// @Produce json
// @Param availability query bool false "Pull the availability feed first"
// @Success 202 {object} utils.SuccessResponse{data=domain.RefreshStatus}
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/refresh [post]
func (h *RefreshHandler) Refresh(c *fiber.Ctx) error {
	if c.QueryBool("availability") && h.feed != nil {
		fetched, err := h.feed.FetchIfStale(c.Context())
		if err != nil {
			h.logger.Warn("Availability fetch failed", zap.Error(err))
			return utils.SendError(c, err)
		}
		h.logger.Debug("Availability fetch on refresh", zap.Bool("fetched", fetched))
	}

	h.refresh.TriggerManual()
	return c.Status(fiber.StatusAccepted).JSON(utils.SuccessResponse{Data: h.refresh.Status()})
}

// GetStatistics godoc
// @Summary Engine statistics
// @Description Indexed spot count, location state and refresh status.
// @Tags Refresh
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=domain.CatalogStats}
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/stats [get]
func (h *RefreshHandler) GetStatistics(c *fiber.Ctx) error {
	stats, err := h.statsUC.GetStatistics(c.Context())
	if err != nil {
		h.logger.Error("Failed to get statistics", zap.Error(err))
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, stats, nil)
}
