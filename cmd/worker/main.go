package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/grid-proximity-microservice/internal/config"
	"github.com/grid-proximity-microservice/internal/infrastructure/overpass"
	"github.com/grid-proximity-microservice/internal/pkg/logger"
	"github.com/grid-proximity-microservice/internal/repository/cache"
	"github.com/grid-proximity-microservice/internal/repository/postgres"
	redisRepo "github.com/grid-proximity-microservice/internal/repository/redis"
	"github.com/grid-proximity-microservice/internal/usecase"
	"github.com/grid-proximity-microservice/internal/worker"
	"github.com/grid-proximity-microservice/internal/worker/detection"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Detection Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries))

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	ctx, cancelInit := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.EnsureSchema(ctx); err != nil {
		cancelInit()
		log.Fatal("Failed to ensure database schema", zap.Error(err))
	}
	cancelInit()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories
	overpassRepo := overpass.NewClient(&cfg.Overpass, log)
	cacheRepo := cache.NewCacheRepository(redisClient)
	runRepo := postgres.NewRunRepository(db, log)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)

	// 6. Initialize use cases
	engine := usecase.NewProximityEngine(cfg.Detection.BBoxPaddingDeg, log)
	detectionUC := usecase.NewDetectionUseCase(
		overpassRepo,
		cacheRepo,
		runRepo,
		nil, // воркер не ставит задания сам
		engine,
		log,
		cfg.Cache.OverpassCacheTTL,
	)

	// 7. Initialize workers
	detectionWorker := detection.NewDetectionWorker(
		streamRepo,
		detectionUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.MaxRetries,
		log,
	)

	// 8. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(detectionWorker)

	// 9. Setup graceful shutdown
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(runCtx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker stopped successfully")
}
