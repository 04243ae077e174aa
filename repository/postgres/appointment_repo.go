package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/repository"
)

type appointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository returns a Postgres-backed implementation of AppointmentRepository.
func NewAppointmentRepository(pool *pgxpool.Pool) repository.AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

const appointmentColumns = `
	id, agent_id, contact_account_key, contact_email_key, type, date, time,
	duration_minutes, status, notes, property_ref, created_at, updated_at`

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	query := `SELECT` + appointmentColumns + ` FROM appointments WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanAppointment(row)
}

// Query matches an appointment when any of the candidate keys equals its
// account key, its email key, or its legacy contact-id filing. Records created
// before a lead registered, or by flows that only knew the contact record,
// end up under different keys for the same person; the OR across candidates
// reconciles them. An empty key set skips the key filter and lists the
// agent's whole book.
func (r *appointmentRepository) Query(ctx context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	if filter.AgentID == "" {
		return nil, domain.ErrInvalidPayload
	}

	query := `SELECT` + appointmentColumns + `
	FROM appointments
	WHERE agent_id = $1
	  AND ($2::text[] IS NULL OR cardinality($2::text[]) = 0
	       OR contact_account_key = ANY($2) OR contact_email_key = ANY($2))
	  AND ($3 = '' OR status = $3)
	ORDER BY date DESC, created_at DESC
	LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query,
		filter.AgentID,
		filter.AnyKey,
		filter.Status,
		clampLimit(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []domain.Appointment
	seen := make(map[string]struct{})
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[appointment.ID]; dup {
			continue
		}
		seen[appointment.ID] = struct{}{}
		appointments = append(appointments, *appointment)
	}
	return appointments, rows.Err()
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error) {
	if appointment == nil || appointment.AgentID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	if appointment.Status == "" {
		appointment.Status = domain.AppointmentScheduled
	}

	const query = `
	INSERT INTO appointments
		(id, agent_id, contact_account_key, contact_email_key, type, date, time, duration_minutes, status, notes, property_ref)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		appointment.ID,
		appointment.AgentID,
		nullString(appointment.ContactAccountKey),
		nullString(appointment.ContactEmailKey),
		appointment.Type,
		appointment.Date,
		appointment.Time,
		appointment.DurationMinutes,
		appointment.Status,
		nullString(appointment.Notes),
		nullString(appointment.PropertyRef),
	).Scan(&appointment.CreatedAt, &appointment.UpdatedAt); err != nil {
		return nil, domain.NewPersistenceError("appointment insert", err)
	}

	return appointment, nil
}

// UpdateStatus applies the status (and optional notes) as one write. Notes
// are left untouched when the patch carries none.
func (r *appointmentRepository) UpdateStatus(ctx context.Context, id string, patch repository.StatusPatch) (*domain.Appointment, error) {
	query := `
	UPDATE appointments
	SET status = $2,
		notes = COALESCE($3, notes),
		updated_at = NOW()
	WHERE id = $1
	RETURNING` + appointmentColumns
	var notes interface{}
	if patch.Notes != nil {
		notes = *patch.Notes
	}

	row := r.pool.QueryRow(ctx, query, id, patch.Status, notes)
	appointment, err := scanAppointment(row)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, domain.NewPersistenceError("appointment status update", err)
	}
	return appointment, nil
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var appointment domain.Appointment
	var (
		accountKey  *string
		emailKey    *string
		notes       *string
		propertyRef *string
	)

	if err := row.Scan(
		&appointment.ID,
		&appointment.AgentID,
		&accountKey,
		&emailKey,
		&appointment.Type,
		&appointment.Date,
		&appointment.Time,
		&appointment.DurationMinutes,
		&appointment.Status,
		&notes,
		&propertyRef,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, err
	}

	if accountKey != nil {
		appointment.ContactAccountKey = *accountKey
	}
	if emailKey != nil {
		appointment.ContactEmailKey = *emailKey
	}
	if notes != nil {
		appointment.Notes = *notes
	}
	if propertyRef != nil {
		appointment.PropertyRef = *propertyRef
	}

	return &appointment, nil
}
