package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grid-proximity-microservice/internal/domain"
	"github.com/grid-proximity-microservice/internal/domain/repository"
	apperrors "github.com/grid-proximity-microservice/internal/pkg/errors"
	"github.com/grid-proximity-microservice/internal/usecase/dto"
)

// DetectionUseCase - use case запуска детекции опасной близости.
// Оркестрирует выборку данных из Overpass (с кешированием в Redis),
// прогон движка и сохранение истории запусков в Postgres.
type DetectionUseCase struct {
	overpassRepo repository.OverpassRepository
	cacheRepo    repository.CacheRepository
	runRepo      repository.RunRepository
	streamRepo   repository.StreamRepository
	engine       *ProximityEngine
	logger       *zap.Logger
	cacheTTL     time.Duration
}

// NewDetectionUseCase создает новый DetectionUseCase.
// cacheRepo, runRepo и streamRepo могут быть nil - соответствующие
// возможности (кеш, история, асинхронные задания) просто отключаются.
func NewDetectionUseCase(
	overpassRepo repository.OverpassRepository,
	cacheRepo repository.CacheRepository,
	runRepo repository.RunRepository,
	streamRepo repository.StreamRepository,
	engine *ProximityEngine,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *DetectionUseCase {
	return &DetectionUseCase{
		overpassRepo: overpassRepo,
		cacheRepo:    cacheRepo,
		runRepo:      runRepo,
		streamRepo:   streamRepo,
		engine:       engine,
		logger:       logger,
		cacheTTL:     cacheTTL,
	}
}

// Detect выполняет синхронный запуск детекции для города
func (uc *DetectionUseCase) Detect(ctx context.Context, req dto.DetectRequest) (*dto.DetectResponse, error) {
	runID := uuid.NewString()
	result, err := uc.execute(ctx, runID, req.City, req.Options.ToDomain(), true)
	if err != nil {
		return nil, mapDetectionError(err)
	}

	return &dto.DetectResponse{
		Result: result,
		Map:    BuildMapLayer(result),
	}, nil
}

// Enqueue ставит асинхронное задание на детекцию в Redis-стрим
func (uc *DetectionUseCase) Enqueue(ctx context.Context, req dto.DetectRequest) (*dto.EnqueueResponse, error) {
	if uc.streamRepo == nil {
		return nil, fmt.Errorf("async detection is not configured")
	}

	runID := uuid.NewString()
	opts := req.Options.ToDomain()

	if uc.runRepo != nil {
		run := &domain.DetectionRun{
			ID:        runID,
			City:      req.City,
			Options:   encodeOptions(opts),
			Status:    domain.RunStatusQueued,
			CreatedAt: time.Now().UTC(),
		}
		if err := uc.runRepo.CreateRun(ctx, run); err != nil {
			return nil, err
		}
	}

	event := domain.DetectionJobEvent{
		RunID:   runID,
		City:    req.City,
		Options: opts,
	}
	if err := uc.streamRepo.PublishToStream(ctx, domain.StreamDetectionJobs, event); err != nil {
		return nil, err
	}

	uc.logger.Info("Detection job enqueued",
		zap.String("run_id", runID),
		zap.String("city", req.City))

	return &dto.EnqueueResponse{
		RunID:  runID,
		Status: domain.RunStatusQueued,
	}, nil
}

// ExecuteJob выполняет асинхронное задание, поставленное через Enqueue.
// Вызывается воркером; при ошибке запуск помечается неуспешным.
func (uc *DetectionUseCase) ExecuteJob(ctx context.Context, event domain.DetectionJobEvent) error {
	_, err := uc.execute(ctx, event.RunID, event.City, event.Options, false)
	if err != nil && uc.runRepo != nil {
		if failErr := uc.runRepo.FailRun(ctx, event.RunID, err.Error()); failErr != nil {
			uc.logger.Error("Failed to mark run as failed",
				zap.String("run_id", event.RunID),
				zap.Error(failErr))
		}
	}
	return err
}

// execute - общий путь синхронного и асинхронного запусков.
// createRun=true создаёт запись о запуске (асинхронный путь создаёт её
// ещё при постановке задания).
func (uc *DetectionUseCase) execute(ctx context.Context, runID, city string, opts domain.FetchOptions, createRun bool) (*domain.DetectionResult, error) {
	started := time.Now()

	uc.logger.Info("Starting detection run",
		zap.String("run_id", runID),
		zap.String("city", city))

	if uc.runRepo != nil && createRun {
		run := &domain.DetectionRun{
			ID:        runID,
			City:      city,
			Options:   encodeOptions(opts),
			Status:    domain.RunStatusRunning,
			CreatedAt: started.UTC(),
		}
		if err := uc.runRepo.CreateRun(ctx, run); err != nil {
			// История не критична для самого прогона
			uc.logger.Error("Failed to record run", zap.String("run_id", runID), zap.Error(err))
		}
	}

	set, err := uc.fetchInfrastructure(ctx, city, opts)
	if err != nil {
		return nil, err
	}

	// Без выбранных категорий детекция не запрашивалась - здания не грузим
	var buildings []domain.ResidentialBuilding
	if opts.Any() {
		buildings, err = uc.fetchBuildings(ctx, city)
		if err != nil {
			return nil, err
		}
	}

	hits, err := uc.engine.Run(set, buildings)
	if err != nil {
		return nil, err
	}

	result := &domain.DetectionResult{
		RunID:     runID,
		City:      city,
		Options:   opts,
		Objects:   set.Objects,
		Lines:     set.Lines,
		Buildings: len(buildings),
		Hits:      hits,
		StartedAt: started.UTC(),
		TookMs:    time.Since(started).Milliseconds(),
	}

	uc.persist(ctx, result)

	return result, nil
}

// persist сохраняет итог запуска в историю; ошибки истории логируются,
// но результат прогона не отменяют
func (uc *DetectionUseCase) persist(ctx context.Context, result *domain.DetectionResult) {
	if uc.runRepo == nil {
		return
	}

	run := &domain.DetectionRun{
		ID:          result.RunID,
		Status:      domain.RunStatusCompleted,
		ObjectCount: len(result.Objects),
		LineCount:   len(result.Lines),
		HitCount:    len(result.Hits),
	}

	if err := uc.runRepo.SaveHits(ctx, result.RunID, result.Hits); err != nil {
		uc.logger.Error("Failed to save hits", zap.String("run_id", result.RunID), zap.Error(err))
		return
	}
	if err := uc.runRepo.CompleteRun(ctx, run); err != nil {
		uc.logger.Error("Failed to complete run", zap.String("run_id", result.RunID), zap.Error(err))
	}
}

// fetchInfrastructure возвращает инфраструктуру из кеша или Overpass
func (uc *DetectionUseCase) fetchInfrastructure(ctx context.Context, city string, opts domain.FetchOptions) (*domain.InfrastructureSet, error) {
	key := fmt.Sprintf("overpass:infra:%s:%s", city, encodeOptions(opts))

	var cached domain.InfrastructureSet
	if uc.cacheLookup(ctx, key, &cached) {
		return &cached, nil
	}

	set, err := uc.overpassRepo.FetchInfrastructure(ctx, city, opts)
	if err != nil {
		return nil, err
	}

	uc.cacheStore(ctx, key, set)
	return set, nil
}

// fetchBuildings возвращает здания из кеша или Overpass
func (uc *DetectionUseCase) fetchBuildings(ctx context.Context, city string) ([]domain.ResidentialBuilding, error) {
	key := fmt.Sprintf("overpass:buildings:%s", city)

	var cached []domain.ResidentialBuilding
	if uc.cacheLookup(ctx, key, &cached) {
		return cached, nil
	}

	buildings, err := uc.overpassRepo.FetchBuildings(ctx, city)
	if err != nil {
		return nil, err
	}

	uc.cacheStore(ctx, key, buildings)
	return buildings, nil
}

// cacheLookup пытается прочитать значение из кеша; любая ошибка кеша
// трактуется как промах
func (uc *DetectionUseCase) cacheLookup(ctx context.Context, key string, dest interface{}) bool {
	if uc.cacheRepo == nil {
		return false
	}

	data, err := uc.cacheRepo.Get(ctx, key)
	if err != nil || data == nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		uc.logger.Warn("Failed to unmarshal cached payload", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (uc *DetectionUseCase) cacheStore(ctx context.Context, key string, value interface{}) {
	if uc.cacheRepo == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		uc.logger.Warn("Failed to marshal payload for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := uc.cacheRepo.Set(ctx, key, data, uc.cacheTTL); err != nil {
		uc.logger.Warn("Failed to store payload in cache", zap.String("key", key), zap.Error(err))
	}
}

// mapDetectionError переводит ошибки прогона в ошибки API: нераспознанный
// тип энергообъекта - это проблема данных источника (422), остальные
// ошибки выборки относятся к самому Overpass (502). Исходная причина
// к этому моменту уже записана в лог.
func mapDetectionError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, domain.ErrUnknownInfrastructureKind) {
		return apperrors.ErrUnknownInfrastructureKind
	}
	return apperrors.ErrOverpassUnavailable
}

// encodeOptions сериализует набор категорий в стабильный ключ
func encodeOptions(opts domain.FetchOptions) string {
	return fmt.Sprintf("lines=%t,towers=%t,substations=%t,transformers=%t,converters=%t",
		opts.PowerLines,
		opts.CommunicationTowers,
		opts.Substations,
		opts.Transformers,
		opts.Converters,
	)
}
