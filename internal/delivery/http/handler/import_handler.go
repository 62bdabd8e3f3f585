package handler

import (
	"bytes"
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parkwhere/internal/importer/csvsource"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/parkwhere/internal/pkg/utils"
	"github.com/parkwhere/internal/usecase"
	"github.com/parkwhere/internal/usecase/dto"
)

// ImportHandler - bulk catalog import from CSV
type ImportHandler struct {
	importUC *usecase.ImportUseCase
	logger   *zap.Logger
}

func NewImportHandler(importUC *usecase.ImportUseCase, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		importUC: importUC,
		logger:   logger,
	}
}

// Import godoc
// @Summary Import parking spots
// @Description Imports a CSV file (header row required). Invalid rows are rejected one by one, the accepted rows are committed atomically. With async=true the import runs in the background and its batch id can be polled on /api/v1/import/{id}.
// @Tags Import
// @Accept text/csv
// @Produce json
// @Param async query bool false "Run in the background"
// @Success 200 {object} utils.SuccessResponse{data=dto.ImportResponse}
// @Success 202 {object} utils.SuccessResponse{data=dto.ImportAcceptedResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/import [post]
func (h *ImportHandler) Import(c *fiber.Ctx) error {
	rows, err := csvsource.ReadRows(bytes.NewReader(c.Body()))
	if err != nil {
		return utils.SendError(c, err)
	}

	if c.QueryBool("async") {
		id, done := h.importUC.ImportAsync(context.Background(), rows)
		go func() {
			res := <-done
			if res.Err != nil {
				h.logger.Error("Async import failed",
					zap.String("batch_id", id.String()),
					zap.Error(res.Err))
				return
			}
			h.logger.Info("Async import finished",
				zap.String("batch_id", id.String()),
				zap.Int("accepted", res.Batch.AcceptedCount()),
				zap.Int("rejected", res.Batch.RejectedCount()))
		}()
		return c.Status(fiber.StatusAccepted).JSON(utils.SuccessResponse{
			Data: dto.ImportAcceptedResponse{BatchID: id, Status: string(usecase.JobPending), Rows: len(rows)},
		})
	}

	batch, err := h.importUC.Import(c.Context(), rows)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.NewImportResponse(batch), nil)
}

// GetImport godoc
// @Summary Asynchronous import status
// @Description Returns the state of a recent asynchronous import: pending, done or failed, with the batch summary once finished.
// @Tags Import
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} utils.SuccessResponse{data=dto.ImportStatusResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/import/{id} [get]
func (h *ImportHandler) GetImport(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"reasons": []string{"id_invalid"},
		}))
	}

	job, ok := h.importUC.Job(id)
	if !ok {
		return utils.SendError(c, errors.ErrImportNotFound)
	}
	return utils.SendSuccess(c, dto.NewImportStatusResponse(job), nil)
}
