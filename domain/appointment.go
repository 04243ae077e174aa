package domain

import "time"

// AppointmentStatus enumerates the lifecycle states of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

// AppointmentType classifies the kind of meeting.
type AppointmentType string

const (
	AppointmentPropertyShowing AppointmentType = "property_showing"
	AppointmentConsultation    AppointmentType = "consultation"
	AppointmentContractReview  AppointmentType = "contract_review"
	AppointmentClosing         AppointmentType = "closing"
	AppointmentFollowUp        AppointmentType = "follow_up"
)

// Appointment is a scheduled meeting between an agent and a contact. The
// contact side is filed under whichever key was resolvable at creation time:
// ContactAccountKey when the contact had a registered account, ContactEmailKey
// otherwise. An appointment with neither key is unreachable from any contact
// and is a data defect.
type Appointment struct {
	ID               string            `json:"id"`
	AgentID          string            `json:"agent_id"`
	ContactAccountKey string           `json:"contact_account_key,omitempty"`
	ContactEmailKey  string            `json:"contact_email_key,omitempty"`
	Type             AppointmentType   `json:"type"`
	Date             time.Time         `json:"date"`
	Time             string            `json:"time"`
	DurationMinutes  int               `json:"duration_minutes"`
	Status           AppointmentStatus `json:"status"`
	Notes            string            `json:"notes,omitempty"`
	PropertyRef      string            `json:"property_ref,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// allowedTransitions is the expected lifecycle. Cancelled re-entering
// scheduled is the reschedule path and the only way out of a terminal state.
var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentScheduled: {AppointmentConfirmed, AppointmentCancelled, AppointmentNoShow},
	AppointmentConfirmed: {AppointmentCompleted, AppointmentCancelled, AppointmentNoShow},
	AppointmentCancelled: {AppointmentScheduled},
	AppointmentCompleted: {},
	AppointmentNoShow:    {},
}

// IsExpectedTransition reports whether moving from the current status to next
// follows the normal lifecycle. Transitions outside the table are tolerated by
// the lifecycle manager but flagged as caller error.
func (s AppointmentStatus) IsExpectedTransition(next AppointmentStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status normally ends the lifecycle.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled || s == AppointmentNoShow
}

// ValidStatus reports whether s is one of the known status values.
func ValidStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}
