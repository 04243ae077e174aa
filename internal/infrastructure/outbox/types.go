package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is a notification awaiting delivery. Entries are keyed by priority
// then enqueue time so urgent kinds drain first.
type Entry struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	AgentID      string          `json:"agent_id"`
	Notification json.RawMessage `json:"notification"`
	Priority     int             `json:"priority"`
	Retries      int             `json:"retries"`
	EnqueuedAt   time.Time       `json:"enqueued_at"`

	bucketKey []byte
}

func (e *Entry) normalize() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Priority <= 0 || e.Priority > 5 {
		e.Priority = 3
	}
	if e.EnqueuedAt.IsZero() {
		e.EnqueuedAt = time.Now()
	}
}
