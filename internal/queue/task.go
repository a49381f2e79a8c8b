package queue

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	TaskMediaDiscard       = "media.discard"
	TaskListingExpirySweep = "listings.expiry_sweep"
)

const (
	fieldID         = "id"
	fieldType       = "type"
	fieldEnqueuedAt = "enqueuedAt"
)

// Task is one decoded stream entry. Fields holds everything except the
// envelope keys.
type Task struct {
	MessageID  string
	ID         string
	Type       string
	EnqueuedAt time.Time
	Fields     map[string]string
}

func (t Task) Field(name string) string {
	return t.Fields[name]
}

func decodeTask(msg redis.XMessage) Task {
	task := Task{MessageID: msg.ID, Fields: make(map[string]string, len(msg.Values))}
	for k, v := range msg.Values {
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		switch k {
		case fieldID:
			task.ID = s
		case fieldType:
			task.Type = s
		case fieldEnqueuedAt:
			task.EnqueuedAt, _ = time.Parse(time.RFC3339, s)
		default:
			task.Fields[k] = s
		}
	}
	return task
}
