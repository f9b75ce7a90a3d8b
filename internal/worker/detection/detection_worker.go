package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/grid-proximity-microservice/internal/domain"
	"github.com/grid-proximity-microservice/internal/domain/repository"
	"github.com/grid-proximity-microservice/internal/worker"
)

// DetectionExecutor - интерфейс выполнения задания детекции
type DetectionExecutor interface {
	ExecuteJob(ctx context.Context, event domain.DetectionJobEvent) error
}

const (
	maxBatchSize    = 5                      // детекция тяжёлая, батч небольшой
	emptyQueueSleep = 200 * time.Millisecond // пауза если очередь пуста
)

// DetectionWorker обрабатывает асинхронные задания на детекцию из
// Redis-стрима: выполняет прогон и сохраняет результат в историю
type DetectionWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	detectionUC  DetectionExecutor
	consumerName string
	maxRetries   int
}

// NewDetectionWorker создает новый DetectionWorker
func NewDetectionWorker(
	streamRepo repository.StreamRepository,
	detectionUC DetectionExecutor,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *DetectionWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	return &DetectionWorker{
		BaseWorker:   worker.NewBaseWorker("detection", consumerGroup, logger),
		streamRepo:   streamRepo,
		detectionUC:  detectionUC,
		consumerName: consumerName,
		maxRetries:   maxRetries,
	}
}

// Start запускает воркер
func (w *DetectionWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting DetectionWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("max_batch_size", maxBatchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamDetectionJobs, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.processBatch(ctx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				time.Sleep(time.Second) // пауза при ошибке
				continue
			}

			if processed == 0 {
				time.Sleep(emptyQueueSleep)
			}
		}
	}
}

// processBatch читает и обрабатывает пачку заданий.
// Возвращает количество прочитанных сообщений.
func (w *DetectionWorker) processBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streamRepo.ConsumeBatch(
		ctx,
		domain.StreamDetectionJobs,
		w.ConsumerGroup(),
		w.consumerName,
		maxBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}

	if len(messages) == 0 {
		return 0, nil // очередь пуста
	}

	logger.Info("Processing detection jobs", zap.Int("message_count", len(messages)))

	for _, msg := range messages {
		event, err := w.parseMessage(msg)
		if err != nil {
			logger.Warn("Failed to parse message, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			// ACK битое сообщение чтобы не застревало
			_ = w.streamRepo.AckMessage(ctx, domain.StreamDetectionJobs, w.ConsumerGroup(), msg.ID)
			continue
		}

		if err := w.detectionUC.ExecuteJob(ctx, *event); err != nil {
			logger.Error("Detection job failed",
				zap.String("run_id", event.RunID),
				zap.String("city", event.City),
				zap.Error(err))
			// Запуск уже помечен failed в истории; повтор не даст
			// другого результата на тех же данных
		}

		if err := w.streamRepo.AckMessage(ctx, domain.StreamDetectionJobs, w.ConsumerGroup(), msg.ID); err != nil {
			logger.Error("Failed to ack message",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}

	return len(messages), nil
}

// parseMessage десериализует событие задания из сообщения стрима
func (w *DetectionWorker) parseMessage(msg domain.StreamMessage) (*domain.DetectionJobEvent, error) {
	var event domain.DetectionJobEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.RunID == "" {
		return nil, fmt.Errorf("event has no run_id")
	}
	return &event, nil
}
