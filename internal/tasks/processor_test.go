package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listinghub/internal/models"
	"listinghub/internal/queue"
)

type fakeObjects struct {
	deleted []string
	err     error
}

func (f *fakeObjects) Delete(ctx context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeListings struct {
	expired []models.Listing
	deleted []int64
	asOf    time.Time
}

func (f *fakeListings) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Listing, error) {
	f.asOf = now
	return f.expired, nil
}

func (f *fakeListings) Delete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func task(taskType string, fields map[string]string) queue.Task {
	return queue.Task{MessageID: "1-0", ID: "task-1", Type: taskType, Fields: fields}
}

func TestHandleMediaDiscard(t *testing.T) {
	objects := &fakeObjects{}
	p := NewProcessor(objects, &fakeListings{}, false, zerolog.Nop())

	err := p.HandleTask(context.Background(), task(queue.TaskMediaDiscard, map[string]string{
		"key": "1700000000000-avatar.png",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"1700000000000-avatar.png"}, objects.deleted)
}

func TestHandleMediaDiscardFailureKeepsMessagePending(t *testing.T) {
	objects := &fakeObjects{err: errors.New("storage offline")}
	p := NewProcessor(objects, &fakeListings{}, false, zerolog.Nop())

	err := p.HandleTask(context.Background(), task(queue.TaskMediaDiscard, map[string]string{"key": "a.png"}))
	assert.Error(t, err)
}

func TestHandleExpirySweepReportsWithoutPurging(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	listings := &fakeListings{expired: []models.Listing{
		{ID: 1, CreatedBy: 5, ExpiresAt: &past},
		{ID: 2, CreatedBy: 6, ExpiresAt: &past},
	}}
	p := NewProcessor(&fakeObjects{}, listings, false, zerolog.Nop())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	err := p.HandleTask(context.Background(), task(queue.TaskListingExpirySweep, nil))
	require.NoError(t, err)
	assert.Empty(t, listings.deleted)
	assert.Equal(t, fixed, listings.asOf)
}

func TestHandleExpirySweepPurges(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	listings := &fakeListings{expired: []models.Listing{
		{ID: 1, ExpiresAt: &past},
		{ID: 2, ExpiresAt: &past},
	}}
	p := NewProcessor(&fakeObjects{}, listings, true, zerolog.Nop())

	err := p.HandleTask(context.Background(), task(queue.TaskListingExpirySweep, nil))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, listings.deleted)
}

func TestHandleUnknownTaskIsAcked(t *testing.T) {
	p := NewProcessor(&fakeObjects{}, &fakeListings{}, false, zerolog.Nop())
	assert.NoError(t, p.HandleTask(context.Background(), task("thumbnail", nil)))
}

func TestHandleMediaDiscardWithoutKeyIsAcked(t *testing.T) {
	objects := &fakeObjects{}
	p := NewProcessor(objects, &fakeListings{}, false, zerolog.Nop())

	require.NoError(t, p.HandleTask(context.Background(), task(queue.TaskMediaDiscard, nil)))
	assert.Empty(t, objects.deleted)
}
