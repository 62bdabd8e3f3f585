package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/domain/repository"
	"github.com/parkwhere/internal/worker"
)

const (
	DefaultBatchSize = 50
	errorPause       = time.Second
	emptyQueuePause  = 100 * time.Millisecond
)

// StreamWorker consumes pushed availability events from a Redis Stream
type StreamWorker struct {
	*worker.BaseWorker
	streamRepo    repository.StreamRepository
	applier       Applier
	stream        string
	consumerGroup string
	consumerName  string
	batchSize     int
}

func NewStreamWorker(
	streamRepo repository.StreamRepository,
	applier Applier,
	consumerGroup string,
	batchSize int,
	logger *zap.Logger,
) *StreamWorker {
	hostname, _ := os.Hostname()
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &StreamWorker{
		BaseWorker:    worker.NewBaseWorker("availability-stream", logger),
		streamRepo:    streamRepo,
		applier:       applier,
		stream:        domain.StreamParkingAvailability,
		consumerGroup: consumerGroup,
		consumerName:  fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8]),
		batchSize:     batchSize,
	}
}

func (w *StreamWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting availability stream worker",
		zap.String("stream", w.stream),
		zap.String("consumer_group", w.consumerGroup),
		zap.String("consumer_name", w.consumerName),
		zap.Int("batch_size", w.batchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, w.stream, w.consumerGroup); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil
		case <-ctx.Done():
			logger.Info("Context cancelled")
			return nil
		default:
		}

		processed, err := w.processBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error("Failed to process batch", zap.Error(err))
			w.Sleep(ctx, errorPause)
			continue
		}
		if processed == 0 {
			w.Sleep(ctx, emptyQueuePause)
		}
	}
}

// processBatch reads one batch and applies it. Malformed messages are acked
// right away; the rest are acked once the batch was applied.
func (w *StreamWorker) processBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streamRepo.ConsumeBatch(ctx, w.stream, w.consumerGroup, w.consumerName, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	updates := make([]domain.AvailabilityUpdate, 0, len(messages))
	okIDs := make([]string, 0, len(messages))
	var badIDs []string

	for _, msg := range messages {
		update, err := parseMessage(msg)
		if err != nil {
			logger.Warn("Failed to parse message, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			badIDs = append(badIDs, msg.ID)
			continue
		}
		updates = append(updates, update)
		okIDs = append(okIDs, msg.ID)
	}

	if len(badIDs) > 0 {
		if err := w.streamRepo.AckMessages(ctx, w.stream, w.consumerGroup, badIDs); err != nil {
			logger.Error("Failed to ack malformed messages", zap.Error(err))
		}
	}
	if len(updates) == 0 {
		return len(messages), nil
	}

	res, err := w.applier.ApplyAvailability(ctx, updates)
	if err != nil {
		return 0, fmt.Errorf("apply availability: %w", err)
	}

	if err := w.streamRepo.AckMessages(ctx, w.stream, w.consumerGroup, okIDs); err != nil {
		logger.Error("Failed to ack messages", zap.Error(err))
	}

	logger.Info("Batch processed",
		zap.Int("messages", len(messages)),
		zap.Int("malformed", len(badIDs)),
		zap.Int("applied", res.Applied),
		zap.Int("unknown_spot", res.UnknownSpot),
		zap.Int("stale", res.Stale))

	return len(messages), nil
}

func parseMessage(msg domain.StreamMessage) (domain.AvailabilityUpdate, error) {
	if msg.Data == "" {
		return domain.AvailabilityUpdate{}, fmt.Errorf("empty data field")
	}

	var event domain.AvailabilityEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return domain.AvailabilityUpdate{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.SpotID == "" {
		return domain.AvailabilityUpdate{}, fmt.Errorf("spot_id is required")
	}
	if event.ObservedAt.IsZero() {
		return domain.AvailabilityUpdate{}, fmt.Errorf("observed_at is required")
	}
	return event.ToUpdate(), nil
}
