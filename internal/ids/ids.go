package ids

import "github.com/segmentio/ksuid"

// New returns a time-sortable unique id used to tag queued tasks.
func New() string {
	return ksuid.New().String()
}
