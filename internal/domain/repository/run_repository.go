package repository

import (
	"context"

	"github.com/grid-proximity-microservice/internal/domain"
)

// RunRepository определяет методы для работы с историей запусков детекции
type RunRepository interface {
	// CreateRun создаёт запись о запуске
	CreateRun(ctx context.Context, run *domain.DetectionRun) error

	// CompleteRun помечает запуск завершённым и сохраняет счётчики
	CompleteRun(ctx context.Context, run *domain.DetectionRun) error

	// FailRun помечает запуск неуспешным
	FailRun(ctx context.Context, runID string, reason string) error

	// SaveHits сохраняет хиты запуска
	SaveHits(ctx context.Context, runID string, hits []domain.ProximityHit) error

	// GetRun возвращает запуск по ID
	GetRun(ctx context.Context, runID string) (*domain.DetectionRun, error)

	// ListRuns возвращает последние запуски
	ListRuns(ctx context.Context, limit int) ([]domain.DetectionRun, error)

	// GetHits возвращает хиты запуска
	GetHits(ctx context.Context, runID string) ([]domain.ProximityHit, error)
}
