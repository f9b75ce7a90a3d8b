package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/grid-proximity-microservice/internal/domain/repository"
	"github.com/grid-proximity-microservice/internal/pkg/errors"
	"github.com/grid-proximity-microservice/internal/usecase/dto"
)

// RunUseCase - use case для чтения истории запусков детекции
type RunUseCase struct {
	runRepo repository.RunRepository
	logger  *zap.Logger
}

// NewRunUseCase создает новый RunUseCase
func NewRunUseCase(runRepo repository.RunRepository, logger *zap.Logger) *RunUseCase {
	return &RunUseCase{
		runRepo: runRepo,
		logger:  logger,
	}
}

// GetRun возвращает запуск и его хиты
func (uc *RunUseCase) GetRun(ctx context.Context, runID string) (*dto.RunResponse, error) {
	run, err := uc.runRepo.GetRun(ctx, runID)
	if err != nil {
		uc.logger.Error("Failed to get run", zap.String("run_id", runID), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}
	if run == nil {
		return nil, errors.ErrRunNotFound
	}

	hits, err := uc.runRepo.GetHits(ctx, runID)
	if err != nil {
		uc.logger.Error("Failed to get hits", zap.String("run_id", runID), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	return &dto.RunResponse{
		Run:  *run,
		Hits: hits,
	}, nil
}

// ListRuns возвращает последние запуски
func (uc *RunUseCase) ListRuns(ctx context.Context, limit int) (*dto.RunListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	runs, err := uc.runRepo.ListRuns(ctx, limit)
	if err != nil {
		uc.logger.Error("Failed to list runs", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	return &dto.RunListResponse{
		Runs:  runs,
		Total: len(runs),
	}, nil
}
