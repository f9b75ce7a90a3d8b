package main

// @title Grid Proximity Microservice API
// @version 1.0.0
// @description Микросервис детекции жилых зданий в опасной близости от объектов электроэнергетической инфраструктуры (ЛЭП, подстанции, трансформаторы, преобразователи, вышки связи). Данные загружаются из Overpass API, близость определяется через пространственный R-tree индекс с уточнением геодезическим расстоянием.
// @description
// @description Основные возможности:
// @description - Синхронный запуск детекции для города с GeoJSON-слоем для карты
// @description - Асинхронные задания на детекцию через Redis Streams
// @description - История запусков и хитов в PostgreSQL

// @contact.name API Support
// @contact.email support@grid-proximity-microservice.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/grid-proximity-microservice/docs"
	"github.com/grid-proximity-microservice/internal/config"
	httpDelivery "github.com/grid-proximity-microservice/internal/delivery/http"
	"github.com/grid-proximity-microservice/internal/delivery/http/handler"
	"github.com/grid-proximity-microservice/internal/infrastructure/overpass"
	"github.com/grid-proximity-microservice/internal/pkg/logger"
	"github.com/grid-proximity-microservice/internal/repository/cache"
	"github.com/grid-proximity-microservice/internal/repository/postgres"
	redisRepo "github.com/grid-proximity-microservice/internal/repository/redis"
	"github.com/grid-proximity-microservice/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Grid Proximity Microservice")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.Float64("bbox_padding_deg", cfg.Detection.BBoxPaddingDeg),
	)

	// 3. Connect to PostgreSQL (run history)
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

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

	// 5. Health checks and schema
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		log.Fatal("PostgreSQL health check failed", zap.Error(err))
	}
	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}
	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure database schema", zap.Error(err))
	}

	log.Info("All connections healthy")

	// 6. Initialize repositories
	overpassRepo := overpass.NewClient(&cfg.Overpass, log)
	cacheRepo := cache.NewCacheRepository(redisClient)
	runRepo := postgres.NewRunRepository(db, log)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)

	log.Info("Repositories initialized")

	// 7. Initialize use cases
	engine := usecase.NewProximityEngine(cfg.Detection.BBoxPaddingDeg, log)

	detectionUC := usecase.NewDetectionUseCase(
		overpassRepo,
		cacheRepo,
		runRepo,
		streamRepo,
		engine,
		log,
		cfg.Cache.OverpassCacheTTL,
	)

	runUC := usecase.NewRunUseCase(runRepo, log)

	log.Info("Use cases initialized")

	// 8. Initialize HTTP handlers
	detectionHandler := handler.NewDetectionHandler(detectionUC, log)
	runHandler := handler.NewRunHandler(runUC, log)

	// 9. Initialize HTTP server
	server := httpDelivery.NewServer(
		cfg,
		log,
		detectionHandler,
		runHandler,
	)

	log.Info("HTTP server initialized")

	// 10. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
