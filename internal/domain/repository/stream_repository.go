package repository

import (
	"context"

	"github.com/parkwhere/internal/domain"
)

// StreamRepository - Redis Streams access for pushed availability events
type StreamRepository interface {
	// CreateConsumerGroup creates the group, an existing group is not an error
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// ConsumeBatch reads up to count new messages for the consumer
	ConsumeBatch(ctx context.Context, stream, group, consumer string, count int) ([]domain.StreamMessage, error)

	// AckMessages acknowledges processed messages
	AckMessages(ctx context.Context, stream, group string, ids []string) error

	// PublishToStream publishes data as JSON in the "data" field
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}
