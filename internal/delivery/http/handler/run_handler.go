package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/grid-proximity-microservice/internal/pkg/utils"
	"github.com/grid-proximity-microservice/internal/usecase"
)

// RunHandler - обработчик истории запусков
type RunHandler struct {
	runUC  *usecase.RunUseCase
	logger *zap.Logger
}

// NewRunHandler - создание нового RunHandler
func NewRunHandler(runUC *usecase.RunUseCase, logger *zap.Logger) *RunHandler {
	return &RunHandler{
		runUC:  runUC,
		logger: logger,
	}
}

// GetRun godoc
// @Summary Получение запуска по ID
// @Description Возвращает запуск детекции и все его хиты
// @Tags Runs
// @Produce json
// @Param id path string true "ID запуска"
// @Success 200 {object} utils.SuccessResponse{data=dto.RunResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/runs/{id} [get]
func (h *RunHandler) GetRun(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(400).JSON(fiber.Map{"error": "ID required"})
	}

	resp, err := h.runUC.GetRun(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, resp, &utils.Meta{
		Total: len(resp.Hits),
	})
}

// ListRuns godoc
// @Summary Список последних запусков
// @Description Возвращает последние запуски детекции
// @Tags Runs
// @Produce json
// @Param limit query int false "Максимальное количество записей" default(20)
// @Success 200 {object} utils.SuccessResponse{data=dto.RunListResponse}
// @Router /api/v1/runs [get]
func (h *RunHandler) ListRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	resp, err := h.runUC.ListRuns(c.Context(), limit)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, resp, &utils.Meta{
		Total: resp.Total,
		Limit: limit,
	})
}
