package jobs

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listinghub/internal/queue"
)

type recordingQueue struct {
	mu    sync.Mutex
	types []string
}

func (q *recordingQueue) Enqueue(ctx context.Context, taskType string, fields map[string]any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.types = append(q.types, taskType)
	return nil
}

func TestEnqueueExpirySweep(t *testing.T) {
	q := &recordingQueue{}
	s := NewScheduler(q, "0 0 * * * *", zerolog.Nop())

	s.enqueueExpirySweep()

	assert.Equal(t, []string{queue.TaskListingExpirySweep}, q.types)
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := NewScheduler(&recordingQueue{}, "not a cron spec", zerolog.Nop())
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&recordingQueue{}, "@every 1h", zerolog.Nop())
	require.NoError(t, s.Start())
	s.Stop()
}

func TestStartWithoutQueueIsNoop(t *testing.T) {
	s := NewScheduler(nil, "0 0 * * * *", zerolog.Nop())
	assert.NoError(t, s.Start())
}
