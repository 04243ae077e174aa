package domain

import "time"

// Change-event tables published on the bus.
const (
	TableContacts     = "contacts"
	TableAppointments = "appointments"
	TableInteractions = "interactions"
	TableNotes        = "notes"
)

// Change operations.
const (
	ChangeInsert = "insert"
	ChangeUpdate = "update"
)

// ChangeEvent announces a mutation on one of the relationship stores. Keys
// carries every identifier the changed record is reachable under (contact id,
// account id, email key), so listeners can match without re-resolving.
type ChangeEvent struct {
	Table      string    `json:"table"`
	Op         string    `json:"op"`
	AgentID    string    `json:"agent_id"`
	RecordID   string    `json:"record_id"`
	Keys       []string  `json:"keys,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Matches reports whether the event concerns the given agent and any of the
// given contact keys.
func (e ChangeEvent) Matches(agentID string, keys []string) bool {
	if e.AgentID != agentID {
		return false
	}
	for _, want := range keys {
		if want == "" {
			continue
		}
		for _, have := range e.Keys {
			if have == want {
				return true
			}
		}
	}
	return false
}
