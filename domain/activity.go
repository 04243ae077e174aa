package domain

import "time"

// InteractionType classifies a logged touchpoint.
type InteractionType string

const (
	InteractionCall            InteractionType = "call"
	InteractionEmail           InteractionType = "email"
	InteractionMeeting         InteractionType = "meeting"
	InteractionPropertyViewing InteractionType = "property_viewing"
)

// Interaction is a logged non-appointment touchpoint, keyed directly on the
// contact record. Append-only.
type Interaction struct {
	ID              string          `json:"id"`
	ContactID       string          `json:"contact_id"`
	Type            InteractionType `json:"type"`
	Subject         string          `json:"subject,omitempty"`
	Content         string          `json:"content,omitempty"`
	Outcome         string          `json:"outcome,omitempty"`
	DurationMinutes int             `json:"duration_minutes,omitempty"`
	NextFollowUp    *time.Time      `json:"next_follow_up,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Note is a freeform annotation on a contact. Append-only.
type Note struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contact_id"`
	NoteType  string    `json:"note_type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivitySource names where a normalized activity came from.
type ActivitySource string

const (
	SourceAppointment ActivitySource = "appointment"
	SourceInteraction ActivitySource = "interaction"
	SourceNote        ActivitySource = "note"
)

// Activity is the source-agnostic shape that interactions, appointments and
// notes are normalized into before merging. Derived, never persisted.
type Activity struct {
	SourceType ActivitySource    `json:"source_type"`
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Title      string            `json:"title"`
	Body       string            `json:"body,omitempty"`
	Status     string            `json:"status,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// SourceFailure records a timeline sub-query that degraded to an empty result.
type SourceFailure struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Timeline is the aggregated per-contact view: the merged activity feed, the
// raw notes, and conversation summaries kept as a separate list.
type Timeline struct {
	ContactID     string                `json:"contact_id"`
	Activities    []Activity            `json:"activities"`
	Notes         []Note                `json:"notes"`
	Conversations []ConversationSummary `json:"conversations"`
	Diagnostics   []SourceFailure       `json:"diagnostics,omitempty"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// Degraded reports whether any source failed during aggregation.
func (t *Timeline) Degraded() bool {
	return t != nil && len(t.Diagnostics) > 0
}
