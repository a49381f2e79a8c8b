package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Handler processes one task. A returned error leaves the entry pending so it
// is claimed again later.
type Handler interface {
	HandleTask(ctx context.Context, task Task) error
}

type ConsumerOptions struct {
	Stream        string
	Group         string
	Name          string
	ClaimInterval time.Duration
	// MaxDeliveries drops an entry once it has been delivered this many times.
	// Zero retries forever.
	MaxDeliveries int64
	BatchSize     int64
	Block         time.Duration
}

// Consumer reads the task stream as a member of a consumer group.
type Consumer struct {
	client  *redis.Client
	opts    ConsumerOptions
	handler Handler
	log     zerolog.Logger
}

func NewConsumer(client *redis.Client, opts ConsumerOptions, handler Handler, log zerolog.Logger) *Consumer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.Block <= 0 {
		opts.Block = 5 * time.Second
	}
	return &Consumer{
		client:  client,
		opts:    opts,
		handler: handler,
		log:     log.With().Str("stream", opts.Stream).Str("consumer", opts.Name).Logger(),
	}
}

// Run consumes until ctx is cancelled. Stalled entries are reclaimed every
// ClaimInterval.
func (c *Consumer) Run(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.opts.Stream, c.opts.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}

	lastClaim := time.Now()
	for ctx.Err() == nil {
		if err := c.readNew(ctx); err != nil && ctx.Err() == nil {
			c.log.Error().Err(err).Msg("stream read failed")
			pause(ctx, 2*time.Second)
		}

		if time.Since(lastClaim) >= c.opts.ClaimInterval {
			lastClaim = time.Now()
			if err := c.reclaim(ctx); err != nil && ctx.Err() == nil {
				c.log.Error().Err(err).Msg("reclaim failed")
			}
		}
	}
	return ctx.Err()
}

func (c *Consumer) readNew(ctx context.Context) error {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.opts.Group,
		Consumer: c.opts.Name,
		Streams:  []string{c.opts.Stream, ">"},
		Count:    c.opts.BatchSize,
		Block:    c.opts.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			c.dispatch(ctx, decodeTask(msg))
		}
	}
	return nil
}

func (c *Consumer) reclaim(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.opts.Stream,
		Group:  c.opts.Group,
		Idle:   c.opts.ClaimInterval,
		Start:  "-",
		End:    "+",
		Count:  c.opts.BatchSize,
	}).Result()
	if err != nil {
		return err
	}

	for _, entry := range pending {
		if c.exhausted(entry.RetryCount) {
			c.log.Warn().
				Str("message_id", entry.ID).
				Int64("deliveries", entry.RetryCount).
				Msg("task dropped after repeated failures")
			c.ack(ctx, entry.ID)
			continue
		}

		msgs, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   c.opts.Stream,
			Group:    c.opts.Group,
			Consumer: c.opts.Name,
			MinIdle:  c.opts.ClaimInterval,
			Messages: []string{entry.ID},
		}).Result()
		if err != nil {
			c.log.Error().Err(err).Str("message_id", entry.ID).Msg("claim failed")
			continue
		}
		for _, msg := range msgs {
			c.dispatch(ctx, decodeTask(msg))
		}
	}
	return nil
}

func (c *Consumer) exhausted(deliveries int64) bool {
	return c.opts.MaxDeliveries > 0 && deliveries >= c.opts.MaxDeliveries
}

func (c *Consumer) dispatch(ctx context.Context, task Task) {
	if err := c.handler.HandleTask(ctx, task); err != nil {
		c.log.Error().
			Err(err).
			Str("message_id", task.MessageID).
			Str("task_id", task.ID).
			Str("type", task.Type).
			Msg("task failed")
		return
	}
	c.ack(ctx, task.MessageID)
}

func (c *Consumer) ack(ctx context.Context, messageID string) {
	if err := c.client.XAck(ctx, c.opts.Stream, c.opts.Group, messageID).Err(); err != nil {
		c.log.Error().Err(err).Str("message_id", messageID).Msg("ack failed")
	}
}

func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
