package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"listinghub/internal/queue"
)

type TaskQueue interface {
	Enqueue(ctx context.Context, taskType string, fields map[string]any) error
}

// Scheduler enqueues periodic tasks; the worker does the actual work.
type Scheduler struct {
	cron        *cron.Cron
	queue       TaskQueue
	expirySweep string
	log         zerolog.Logger
}

func NewScheduler(queue TaskQueue, expirySweep string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds()),
		queue:       queue,
		expirySweep: expirySweep,
		log:         log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil || s.expirySweep == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.expirySweep, s.enqueueExpirySweep); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("expiry_sweep", s.expirySweep).Msg("scheduler started")
	return nil
}

// Stop waits up to five seconds for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) enqueueExpirySweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.queue.Enqueue(ctx, queue.TaskListingExpirySweep, nil); err != nil {
		s.log.Error().Err(err).Msg("enqueue expiry sweep failed")
	}
}
