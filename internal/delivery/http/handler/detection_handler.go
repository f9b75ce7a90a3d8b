package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/grid-proximity-microservice/internal/pkg/utils"
	"github.com/grid-proximity-microservice/internal/pkg/validator"
	"github.com/grid-proximity-microservice/internal/usecase"
	"github.com/grid-proximity-microservice/internal/usecase/dto"
)

// DetectionHandler - обработчик запусков детекции
type DetectionHandler struct {
	detectionUC *usecase.DetectionUseCase
	logger      *zap.Logger
}

// NewDetectionHandler - создание нового DetectionHandler
func NewDetectionHandler(detectionUC *usecase.DetectionUseCase, logger *zap.Logger) *DetectionHandler {
	return &DetectionHandler{
		detectionUC: detectionUC,
		logger:      logger,
	}
}

// Detect godoc
// @Summary Синхронный запуск детекции
// @Description Загружает энергообъекты и жилые здания города из Overpass API, находит здания в опасной близости от объектов и сегментов ЛЭП и возвращает результат вместе с GeoJSON-слоем для карты
// @Tags Detection
// @Accept json
// @Produce json
// @Param request body dto.DetectRequest true "Город и набор категорий"
// @Success 200 {object} utils.SuccessResponse{data=dto.DetectResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/detect [post]
func (h *DetectionHandler) Detect(c *fiber.Ctx) error {
	var req dto.DetectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.detectionUC.Detect(c.Context(), req)
	if err != nil {
		h.logger.Error("Detection failed", zap.String("city", req.City), zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:    len(result.Result.Hits),
		TimeMSec: float64(result.Result.TookMs),
	})
}

// DetectAsync godoc
// @Summary Асинхронный запуск детекции
// @Description Ставит задание на детекцию в очередь; результат доступен по run_id через /runs/{id}
// @Tags Detection
// @Accept json
// @Produce json
// @Param request body dto.DetectRequest true "Город и набор категорий"
// @Success 200 {object} utils.SuccessResponse{data=dto.EnqueueResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/detect/async [post]
func (h *DetectionHandler) DetectAsync(c *fiber.Ctx) error {
	var req dto.DetectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	resp, err := h.detectionUC.Enqueue(c.Context(), req)
	if err != nil {
		h.logger.Error("Failed to enqueue detection", zap.String("city", req.City), zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, resp, nil)
}
