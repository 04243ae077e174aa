package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/repository"
)

type noteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository returns a Postgres-backed implementation of NoteRepository.
func NewNoteRepository(pool *pgxpool.Pool) repository.NoteRepository {
	return &noteRepository{pool: pool}
}

func (r *noteRepository) ListByContact(ctx context.Context, contactID string) ([]domain.Note, error) {
	const query = `
	SELECT id, contact_id, note_type, content, created_at
	FROM notes
	WHERE contact_id = $1
	ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(&note.ID, &note.ContactID, &note.NoteType, &note.Content, &note.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	if note == nil || note.ContactID == "" || note.Content == "" {
		return nil, domain.ErrInvalidPayload
	}
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.NoteType == "" {
		note.NoteType = "general"
	}

	const query = `
	INSERT INTO notes (id, contact_id, note_type, content)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at
	`

	if err := r.pool.QueryRow(ctx, query,
		note.ID,
		note.ContactID,
		note.NoteType,
		note.Content,
	).Scan(&note.CreatedAt); err != nil {
		return nil, domain.NewPersistenceError("note insert", err)
	}

	return note, nil
}
