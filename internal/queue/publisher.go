package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"listinghub/internal/ids"
)

// Publisher appends tasks to the redis stream read by the worker.
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewPublisher returns a publisher that trims the stream to roughly maxLen
// entries. Zero keeps every entry.
func NewPublisher(client *redis.Client, stream string, maxLen int64) *Publisher {
	return &Publisher{client: client, stream: stream, maxLen: maxLen}
}

// Enqueue adds a task. A nil publisher drops it silently.
func (p *Publisher) Enqueue(ctx context.Context, taskType string, fields map[string]any) error {
	if p == nil || p.client == nil {
		return nil
	}

	values := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		values[k] = v
	}
	values[fieldID] = ids.New()
	values[fieldType] = taskType
	values[fieldEnqueuedAt] = time.Now().UTC().Format(time.RFC3339)

	args := &redis.XAddArgs{Stream: p.stream, Values: values}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
