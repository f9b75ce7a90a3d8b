package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grid-proximity-microservice/internal/domain"
	apperrors "github.com/grid-proximity-microservice/internal/pkg/errors"
	"github.com/grid-proximity-microservice/internal/usecase"
	"github.com/grid-proximity-microservice/internal/usecase/dto"
)

// MockOverpassRepository is a mock of OverpassRepository
type MockOverpassRepository struct {
	mock.Mock
}

func (m *MockOverpassRepository) FetchInfrastructure(ctx context.Context, city string, opts domain.FetchOptions) (*domain.InfrastructureSet, error) {
	args := m.Called(ctx, city, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InfrastructureSet), args.Error(1)
}

func (m *MockOverpassRepository) FetchBuildings(ctx context.Context, city string) ([]domain.ResidentialBuilding, error) {
	args := m.Called(ctx, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ResidentialBuilding), args.Error(1)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockRunRepository is a mock of RunRepository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) CreateRun(ctx context.Context, run *domain.DetectionRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) CompleteRun(ctx context.Context, run *domain.DetectionRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) FailRun(ctx context.Context, runID string, reason string) error {
	args := m.Called(ctx, runID, reason)
	return args.Error(0)
}

func (m *MockRunRepository) SaveHits(ctx context.Context, runID string, hits []domain.ProximityHit) error {
	args := m.Called(ctx, runID, hits)
	return args.Error(0)
}

func (m *MockRunRepository) GetRun(ctx context.Context, runID string) (*domain.DetectionRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DetectionRun), args.Error(1)
}

func (m *MockRunRepository) ListRuns(ctx context.Context, limit int) ([]domain.DetectionRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DetectionRun), args.Error(1)
}

func (m *MockRunRepository) GetHits(ctx context.Context, runID string) ([]domain.ProximityHit, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProximityHit), args.Error(1)
}

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, maxCount int) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, maxCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

func testInfrastructureSet() *domain.InfrastructureSet {
	return &domain.InfrastructureSet{
		Objects: []domain.PowerObject{
			{ID: 100, Lat: 50.0, Lon: 40.0, Kind: domain.KindSubstation},
		},
	}
}

func testBuildings() []domain.ResidentialBuilding {
	return []domain.ResidentialBuilding{
		{ID: 1, Lat: 50.00005, Lon: 40.0}, // ~5.5 м от подстанции
		{ID: 2, Lat: 50.01, Lon: 40.0},
	}
}

func TestDetectionUseCase_Detect(t *testing.T) {
	logger := zap.NewNop()
	engine := usecase.NewProximityEngine(0.01, logger)

	overpassRepo := new(MockOverpassRepository)
	runRepo := new(MockRunRepository)

	opts := domain.FetchOptions{Substations: true}

	overpassRepo.On("FetchInfrastructure", mock.Anything, "Воронеж", opts).
		Return(testInfrastructureSet(), nil)
	overpassRepo.On("FetchBuildings", mock.Anything, "Воронеж").
		Return(testBuildings(), nil)

	runRepo.On("CreateRun", mock.Anything, mock.Anything).Return(nil)
	runRepo.On("SaveHits", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	runRepo.On("CompleteRun", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewDetectionUseCase(overpassRepo, nil, runRepo, nil, engine, logger, time.Minute)

	resp, err := uc.Detect(context.Background(), dto.DetectRequest{
		City:    "Воронеж",
		Options: dto.OptionsInput{Substations: true},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	result := resp.Result
	require.NotNil(t, result)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "Воронеж", result.City)
	assert.Equal(t, 2, result.Buildings)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, int64(1), result.Hits[0].Building.ID)

	// GeoJSON-слой содержит объект и хит
	require.NotNil(t, resp.Map)
	assert.Len(t, resp.Map.Features, 2)

	overpassRepo.AssertExpectations(t)
	runRepo.AssertExpectations(t)
}

func TestDetectionUseCase_DetectEmptyOptionsSkipsBuildings(t *testing.T) {
	logger := zap.NewNop()
	engine := usecase.NewProximityEngine(0.01, logger)

	overpassRepo := new(MockOverpassRepository)

	// Без выбранных категорий выполняется fallback-запрос,
	// а здания не загружаются вовсе
	overpassRepo.On("FetchInfrastructure", mock.Anything, "Воронеж", domain.FetchOptions{}).
		Return(&domain.InfrastructureSet{}, nil)

	uc := usecase.NewDetectionUseCase(overpassRepo, nil, nil, nil, engine, logger, time.Minute)

	resp, err := uc.Detect(context.Background(), dto.DetectRequest{City: "Воронеж"})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Result.Buildings)
	assert.Empty(t, resp.Result.Hits)

	overpassRepo.AssertExpectations(t)
	overpassRepo.AssertNotCalled(t, "FetchBuildings", mock.Anything, mock.Anything)
}

func TestDetectionUseCase_DetectUsesCache(t *testing.T) {
	logger := zap.NewNop()
	engine := usecase.NewProximityEngine(0.01, logger)

	overpassRepo := new(MockOverpassRepository)
	cacheRepo := new(MockCacheRepository)

	// Кеш отвечает на оба ключа - Overpass не вызывается
	cacheRepo.On("Get", mock.Anything, mock.MatchedBy(func(key string) bool {
		return key == "overpass:infra:Воронеж:lines=false,towers=false,substations=true,transformers=false,converters=false"
	})).Return([]byte(`{"objects":[{"id":100,"lat":50.0,"lon":40.0,"kind":"substation"}],"lines":[]}`), nil)
	cacheRepo.On("Get", mock.Anything, "overpass:buildings:Воронеж").
		Return([]byte(`[{"id":1,"lat":50.00005,"lon":40.0}]`), nil)

	uc := usecase.NewDetectionUseCase(overpassRepo, cacheRepo, nil, nil, engine, logger, time.Minute)

	resp, err := uc.Detect(context.Background(), dto.DetectRequest{
		City:    "Воронеж",
		Options: dto.OptionsInput{Substations: true},
	})
	require.NoError(t, err)
	require.Len(t, resp.Result.Hits, 1)

	overpassRepo.AssertNotCalled(t, "FetchInfrastructure", mock.Anything, mock.Anything, mock.Anything)
	overpassRepo.AssertNotCalled(t, "FetchBuildings", mock.Anything, mock.Anything)
}

func TestDetectionUseCase_DetectPropagatesOverpassError(t *testing.T) {
	logger := zap.NewNop()
	engine := usecase.NewProximityEngine(0.01, logger)

	overpassRepo := new(MockOverpassRepository)
	overpassRepo.On("FetchInfrastructure", mock.Anything, "Воронеж", mock.Anything).
		Return(nil, errors.New("overpass API error: status 504"))

	uc := usecase.NewDetectionUseCase(overpassRepo, nil, nil, nil, engine, logger, time.Minute)

	resp, err := uc.Detect(context.Background(), dto.DetectRequest{
		City:    "Воронеж",
		Options: dto.OptionsInput{Substations: true},
	})
	assert.Nil(t, resp)
	assert.Equal(t, apperrors.ErrOverpassUnavailable, err)
}

func TestDetectionUseCase_DetectMapsUnknownKind(t *testing.T) {
	logger := zap.NewNop()
	engine := usecase.NewProximityEngine(0.01, logger)

	overpassRepo := new(MockOverpassRepository)
	overpassRepo.On("FetchInfrastructure", mock.Anything, "Воронеж", mock.Anything).
		Return(nil, fmt.Errorf("node 42: %w", domain.ErrUnknownInfrastructureKind))

	uc := usecase.NewDetectionUseCase(overpassRepo, nil, nil, nil, engine, logger, time.Minute)

	resp, err := uc.Detect(context.Background(), dto.DetectRequest{
		City:    "Воронеж",
		Options: dto.OptionsInput{Substations: true},
	})
	assert.Nil(t, resp)
	assert.Equal(t, apperrors.ErrUnknownInfrastructureKind, err)
}

func TestDetectionUseCase_Enqueue(t *testing.T) {
	logger := zap.NewNop()
	engine := usecase.NewProximityEngine(0.01, logger)

	runRepo := new(MockRunRepository)
	streamRepo := new(MockStreamRepository)

	var createdRun *domain.DetectionRun
	runRepo.On("CreateRun", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			createdRun = args.Get(1).(*domain.DetectionRun)
		}).
		Return(nil)

	var publishedEvent domain.DetectionJobEvent
	streamRepo.On("PublishToStream", mock.Anything, domain.StreamDetectionJobs, mock.Anything).
		Run(func(args mock.Arguments) {
			publishedEvent = args.Get(2).(domain.DetectionJobEvent)
		}).
		Return(nil)

	uc := usecase.NewDetectionUseCase(nil, nil, runRepo, streamRepo, engine, logger, time.Minute)

	resp, err := uc.Enqueue(context.Background(), dto.DetectRequest{
		City:    "Воронеж",
		Options: dto.OptionsInput{PowerLines: true},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, domain.RunStatusQueued, resp.Status)
	assert.NotEmpty(t, resp.RunID)

	require.NotNil(t, createdRun)
	assert.Equal(t, resp.RunID, createdRun.ID)
	assert.Equal(t, domain.RunStatusQueued, createdRun.Status)

	assert.Equal(t, resp.RunID, publishedEvent.RunID)
	assert.Equal(t, "Воронеж", publishedEvent.City)
	assert.True(t, publishedEvent.Options.PowerLines)

	runRepo.AssertExpectations(t)
	streamRepo.AssertExpectations(t)
}

func TestDetectionUseCase_EnqueueWithoutStreamFails(t *testing.T) {
	logger := zap.NewNop()
	engine := usecase.NewProximityEngine(0.01, logger)

	uc := usecase.NewDetectionUseCase(nil, nil, nil, nil, engine, logger, time.Minute)

	resp, err := uc.Enqueue(context.Background(), dto.DetectRequest{City: "Воронеж"})
	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestDetectionUseCase_ExecuteJobMarksRunFailed(t *testing.T) {
	logger := zap.NewNop()
	engine := usecase.NewProximityEngine(0.01, logger)

	overpassRepo := new(MockOverpassRepository)
	runRepo := new(MockRunRepository)

	overpassRepo.On("FetchInfrastructure", mock.Anything, "Воронеж", mock.Anything).
		Return(nil, errors.New("overpass API error: status 429"))
	runRepo.On("FailRun", mock.Anything, "run-1", mock.Anything).Return(nil)

	uc := usecase.NewDetectionUseCase(overpassRepo, nil, runRepo, nil, engine, logger, time.Minute)

	err := uc.ExecuteJob(context.Background(), domain.DetectionJobEvent{
		RunID:   "run-1",
		City:    "Воронеж",
		Options: domain.FetchOptions{Substations: true},
	})
	assert.Error(t, err)

	runRepo.AssertCalled(t, "FailRun", mock.Anything, "run-1", mock.Anything)
}

func TestDetectionUseCase_ExecuteJobCompletesRun(t *testing.T) {
	logger := zap.NewNop()
	engine := usecase.NewProximityEngine(0.01, logger)

	overpassRepo := new(MockOverpassRepository)
	runRepo := new(MockRunRepository)

	opts := domain.FetchOptions{Substations: true}

	overpassRepo.On("FetchInfrastructure", mock.Anything, "Воронеж", opts).
		Return(testInfrastructureSet(), nil)
	overpassRepo.On("FetchBuildings", mock.Anything, "Воронеж").
		Return(testBuildings(), nil)

	runRepo.On("SaveHits", mock.Anything, "run-2", mock.Anything).Return(nil)

	var completedRun *domain.DetectionRun
	runRepo.On("CompleteRun", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			completedRun = args.Get(1).(*domain.DetectionRun)
		}).
		Return(nil)

	uc := usecase.NewDetectionUseCase(overpassRepo, nil, runRepo, nil, engine, logger, time.Minute)

	err := uc.ExecuteJob(context.Background(), domain.DetectionJobEvent{
		RunID:   "run-2",
		City:    "Воронеж",
		Options: opts,
	})
	require.NoError(t, err)

	// Асинхронный путь не создаёт запись о запуске повторно
	runRepo.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything)

	require.NotNil(t, completedRun)
	assert.Equal(t, "run-2", completedRun.ID)
	assert.Equal(t, domain.RunStatusCompleted, completedRun.Status)
	assert.Equal(t, 1, completedRun.ObjectCount)
	assert.Equal(t, 1, completedRun.HitCount)
}
