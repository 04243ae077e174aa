package domain

import "time"

// NotificationKind selects the template sent for an appointment event. The
// kind is derived from the appointment's new status only; prior status never
// influences template selection.
type NotificationKind string

const (
	NotifyAppointmentCreated   NotificationKind = "appointment_created"
	NotifyAppointmentConfirmed NotificationKind = "appointment_confirmed"
	NotifyAppointmentCompleted NotificationKind = "appointment_completed"
	NotifyAppointmentCancelled NotificationKind = "appointment_cancelled"
	NotifyAppointmentNoShow    NotificationKind = "appointment_no_show"
	NotifyAppointmentUpdated   NotificationKind = "appointment_updated"
)

// KindForStatus maps an appointment status to the notification template for
// entering that status.
func KindForStatus(status AppointmentStatus) NotificationKind {
	switch status {
	case AppointmentScheduled:
		return NotifyAppointmentCreated
	case AppointmentConfirmed:
		return NotifyAppointmentConfirmed
	case AppointmentCompleted:
		return NotifyAppointmentCompleted
	case AppointmentCancelled:
		return NotifyAppointmentCancelled
	case AppointmentNoShow:
		return NotifyAppointmentNoShow
	}
	return NotifyAppointmentUpdated
}

// Notification is a pending message to the agent and/or contact about a
// relationship event. Dispatch is best-effort and decoupled from the write
// that produced it.
type Notification struct {
	ID        string            `json:"id"`
	Kind      NotificationKind  `json:"kind"`
	AgentID   string            `json:"agent_id"`
	ContactID string            `json:"contact_id,omitempty"`
	Recipient string            `json:"recipient,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
