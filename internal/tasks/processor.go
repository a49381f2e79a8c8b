package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"listinghub/internal/models"
	"listinghub/internal/queue"
	"listinghub/internal/repository"
)

const expirySweepBatch = 500

type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
}

type ExpiredListings interface {
	ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Listing, error)
	Delete(ctx context.Context, id int64) error
}

type Processor struct {
	objects      ObjectRemover
	listings     ExpiredListings
	purgeExpired bool
	now          func() time.Time
	logger       zerolog.Logger
}

func NewProcessor(objects ObjectRemover, listings ExpiredListings, purgeExpired bool, logger zerolog.Logger) *Processor {
	return &Processor{
		objects:      objects,
		listings:     listings,
		purgeExpired: purgeExpired,
		now:          time.Now,
		logger:       logger,
	}
}

// HandleTask runs one queued task. Unknown types are logged and acknowledged.
func (p *Processor) HandleTask(ctx context.Context, task queue.Task) error {
	switch task.Type {
	case queue.TaskMediaDiscard:
		return p.discardMedia(ctx, task)
	case queue.TaskListingExpirySweep:
		return p.sweepExpired(ctx, task)
	default:
		p.logger.Warn().Str("type", task.Type).Str("message_id", task.MessageID).Msg("unknown task type")
		return nil
	}
}

func (p *Processor) discardMedia(ctx context.Context, task queue.Task) error {
	key := task.Field("key")
	if key == "" {
		p.logger.Warn().Str("task_id", task.ID).Msg("media discard without key")
		return nil
	}
	if err := p.objects.Delete(ctx, key); err != nil {
		return fmt.Errorf("discard %s: %w", key, err)
	}
	p.logger.Info().Str("task_id", task.ID).Str("key", key).Msg("media discarded")
	return nil
}

// sweepExpired reports expired listings; rows are only removed when purging is enabled.
func (p *Processor) sweepExpired(ctx context.Context, task queue.Task) error {
	expired, err := p.listings.ListExpired(ctx, p.now(), expirySweepBatch)
	if err != nil {
		return fmt.Errorf("list expired listings: %w", err)
	}

	purged := 0
	for _, listing := range expired {
		event := p.logger.Info().
			Int64("listing_id", listing.ID).
			Int64("created_by", listing.CreatedBy).
			Time("expires_at", *listing.ExpiresAt)

		if !p.purgeExpired {
			event.Msg("listing expired")
			continue
		}

		if err := p.listings.Delete(ctx, listing.ID); err != nil && !errors.Is(err, repository.ErrListingNotFound) {
			return fmt.Errorf("purge listing %d: %w", listing.ID, err)
		}
		purged++
		event.Msg("expired listing purged")
	}

	p.logger.Info().
		Str("task_id", task.ID).
		Int("expired", len(expired)).
		Int("purged", purged).
		Msg("expiry sweep finished")
	return nil
}
