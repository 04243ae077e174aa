// Package appointment drives the appointment status lifecycle and its
// notification side effects.
package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/repository"
	"github.com/agentbook/backend/usecase"
	"github.com/agentbook/backend/usecase/identity"
)

// CreateInput carries the fields needed to schedule an appointment.
type CreateInput struct {
	AgentID         string
	Contact         *domain.Contact
	Type            domain.AppointmentType
	Date            time.Time
	Time            string
	DurationMinutes int
	Notes           string
	PropertyRef     string
}

// TransitionResult is the outcome of a lifecycle transition. Warnings carry
// non-fatal problems: notification delivery failures and off-table
// transitions that were accepted anyway.
type TransitionResult struct {
	Appointment *domain.Appointment `json:"appointment"`
	Warnings    []string            `json:"warnings,omitempty"`
}

type UseCase struct {
	appointments repository.AppointmentRepository
	dispatcher   usecase.NotificationDispatcher
	events       usecase.ChangePublisher
	logger       *zap.Logger
	now          func() time.Time
}

func New(
	appointments repository.AppointmentRepository,
	dispatcher usecase.NotificationDispatcher,
	events usecase.ChangePublisher,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		appointments: appointments,
		dispatcher:   dispatcher,
		events:       events,
		logger:       logger,
		now:          time.Now,
	}
}

// Create schedules an appointment for the given contact. The contact keys are
// resolved once, at creation time; a later change to the contact's linked
// account does not re-file historical appointments.
func (uc *UseCase) Create(ctx context.Context, input CreateInput) (*TransitionResult, error) {
	if input.Contact == nil || input.AgentID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if input.Date.Before(startOfDay(uc.now())) {
		return nil, domain.ErrPastDate
	}

	keys := identity.ResolveKeys(input.Contact)
	if keys.AccountKey == "" && keys.EmailKey == "" {
		// Unreachable appointments cannot be filed: the contact needs a
		// linked account or at least an email before scheduling.
		return nil, domain.ErrContactUnreachable
	}
	appointment := &domain.Appointment{
		ID:                uuid.NewString(),
		AgentID:           input.AgentID,
		ContactAccountKey: keys.AccountKey,
		ContactEmailKey:   keys.EmailKey,
		Type:              input.Type,
		Date:              input.Date,
		Time:              input.Time,
		DurationMinutes:   input.DurationMinutes,
		Status:            domain.AppointmentScheduled,
		Notes:             input.Notes,
		PropertyRef:       input.PropertyRef,
	}

	created, err := uc.appointments.Create(ctx, appointment)
	if err != nil {
		return nil, err
	}

	result := &TransitionResult{Appointment: created}
	uc.notify(ctx, created, input.Contact.ID, domain.NotifyAppointmentCreated, result)
	uc.publish(ctx, created, domain.ChangeInsert)
	return result, nil
}

// List returns the agent's appointments, optionally narrowed by status. The
// filter's key set stays empty here; key-based lookup belongs to the timeline
// path.
func (uc *UseCase) List(ctx context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	if filter.AgentID == "" {
		return nil, domain.ErrInvalidPayload
	}
	return uc.appointments.Query(ctx, filter)
}

// Transition applies a status change atomically and dispatches the
// notification for the new status. The allowed-transition table is advisory:
// off-table moves are accepted with a warning since they signal caller error,
// not a rule that must block. Only self-transitions are rejected.
func (uc *UseCase) Transition(ctx context.Context, agentID, id string, newStatus domain.AppointmentStatus, notesUpdate *string) (*TransitionResult, error) {
	if !domain.ValidStatus(newStatus) {
		return nil, domain.ErrInvalidPayload
	}

	current, err := uc.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agentID != "" && current.AgentID != agentID {
		return nil, domain.ErrAppointmentNotFound
	}
	if current.Status == newStatus {
		return nil, domain.ErrSameStatus
	}

	result := &TransitionResult{}
	if !current.Status.IsExpectedTransition(newStatus) {
		warning := fmt.Sprintf("unexpected transition %s -> %s", current.Status, newStatus)
		result.Warnings = append(result.Warnings, warning)
		uc.logger.Warn("appointment transition outside lifecycle table",
			zap.String("appointment_id", id),
			zap.String("from", string(current.Status)),
			zap.String("to", string(newStatus)))
	}

	updated, err := uc.appointments.UpdateStatus(ctx, id, repository.StatusPatch{
		Status: newStatus,
		Notes:  notesUpdate,
	})
	if err != nil {
		// Aborted: no notification for a write that did not happen.
		return nil, err
	}
	result.Appointment = updated

	uc.notify(ctx, updated, "", domain.KindForStatus(newStatus), result)
	uc.publish(ctx, updated, domain.ChangeUpdate)
	return result, nil
}

// notify dispatches best-effort. A delivery failure attaches a warning to the
// otherwise-successful result and never unwinds the persisted change.
func (uc *UseCase) notify(ctx context.Context, appointment *domain.Appointment, contactID string, kind domain.NotificationKind, result *TransitionResult) {
	if uc.dispatcher == nil {
		return
	}

	notification := &domain.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		AgentID:   appointment.AgentID,
		ContactID: contactID,
		Recipient: appointment.ContactEmailKey,
		Payload: map[string]string{
			"appointment_id": appointment.ID,
			"type":           string(appointment.Type),
			"status":         string(appointment.Status),
			"date":           appointment.Date.Format("2006-01-02"),
			"time":           appointment.Time,
		},
		CreatedAt: uc.now(),
	}
	if appointment.PropertyRef != "" {
		notification.Payload["property_ref"] = appointment.PropertyRef
	}

	if err := uc.dispatcher.Dispatch(ctx, notification); err != nil {
		uc.logger.Warn("notification dispatch failed",
			zap.String("appointment_id", appointment.ID),
			zap.String("kind", string(kind)),
			zap.Error(err))
		result.Warnings = append(result.Warnings, fmt.Sprintf("notification %s not delivered", kind))
	}
}

func (uc *UseCase) publish(ctx context.Context, appointment *domain.Appointment, op string) {
	if uc.events == nil {
		return
	}
	event := domain.ChangeEvent{
		Table:      domain.TableAppointments,
		Op:         op,
		AgentID:    appointment.AgentID,
		RecordID:   appointment.ID,
		Keys:       appointmentKeys(appointment),
		OccurredAt: uc.now(),
	}
	if err := uc.events.PublishChange(ctx, event); err != nil {
		uc.logger.Warn("change event publish failed",
			zap.String("appointment_id", appointment.ID),
			zap.Error(err))
	}
}

func appointmentKeys(appointment *domain.Appointment) []string {
	var keys []string
	if appointment.ContactAccountKey != "" {
		keys = append(keys, appointment.ContactAccountKey)
	}
	if appointment.ContactEmailKey != "" {
		keys = append(keys, appointment.ContactEmailKey)
	}
	return keys
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
