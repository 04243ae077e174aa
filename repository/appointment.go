package repository

import (
	"context"

	"github.com/agentbook/backend/domain"
)

// AppointmentFilter scopes an appointment query. AnyKey carries the resolved
// candidate keys for a contact; a record matches when its account key, email
// key, or legacy contact-id filing equals any of them. AgentID is always
// required so one agent can never see another's book.
type AppointmentFilter struct {
	AgentID string
	AnyKey  []string
	Status  string
	Limit   int
	Offset  int
}

// StatusPatch is the single atomic update applied during a lifecycle
// transition. Notes ride along only when non-nil.
type StatusPatch struct {
	Status domain.AppointmentStatus
	Notes  *string
}

type AppointmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	Query(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error)
	Create(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error)
	UpdateStatus(ctx context.Context, id string, patch StatusPatch) (*domain.Appointment, error)
}
