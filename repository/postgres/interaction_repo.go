package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/repository"
)

type interactionRepository struct {
	pool *pgxpool.Pool
}

// NewInteractionRepository returns a Postgres-backed implementation of InteractionRepository.
func NewInteractionRepository(pool *pgxpool.Pool) repository.InteractionRepository {
	return &interactionRepository{pool: pool}
}

func (r *interactionRepository) ListByContact(ctx context.Context, contactID string) ([]domain.Interaction, error) {
	const query = `
	SELECT id, contact_id, type, subject, content, outcome, duration_minutes, next_follow_up, created_at
	FROM interactions
	WHERE contact_id = $1
	ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interactions []domain.Interaction
	for rows.Next() {
		var interaction domain.Interaction
		var (
			subject      *string
			content      *string
			outcome      *string
			nextFollowUp *time.Time
		)
		if err := rows.Scan(
			&interaction.ID,
			&interaction.ContactID,
			&interaction.Type,
			&subject,
			&content,
			&outcome,
			&interaction.DurationMinutes,
			&nextFollowUp,
			&interaction.CreatedAt,
		); err != nil {
			return nil, err
		}
		if subject != nil {
			interaction.Subject = *subject
		}
		if content != nil {
			interaction.Content = *content
		}
		if outcome != nil {
			interaction.Outcome = *outcome
		}
		interaction.NextFollowUp = nextFollowUp
		interactions = append(interactions, interaction)
	}
	return interactions, rows.Err()
}

func (r *interactionRepository) Create(ctx context.Context, interaction *domain.Interaction) (*domain.Interaction, error) {
	if interaction == nil || interaction.ContactID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if interaction.ID == "" {
		interaction.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO interactions (id, contact_id, type, subject, content, outcome, duration_minutes, next_follow_up)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at
	`

	if err := r.pool.QueryRow(ctx, query,
		interaction.ID,
		interaction.ContactID,
		interaction.Type,
		nullString(interaction.Subject),
		nullString(interaction.Content),
		nullString(interaction.Outcome),
		interaction.DurationMinutes,
		nullTime(interaction.NextFollowUp),
	).Scan(&interaction.CreatedAt); err != nil {
		return nil, domain.NewPersistenceError("interaction insert", err)
	}

	return interaction, nil
}
