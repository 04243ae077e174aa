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

type contactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository returns a Postgres-backed implementation of ContactRepository.
func NewContactRepository(pool *pgxpool.Pool) repository.ContactRepository {
	return &contactRepository{pool: pool}
}

func (r *contactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	const query = `
	SELECT id, agent_id, linked_account_id, name, email, phone, status, metadata, created_at, updated_at
	FROM contacts
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanContact(row)
}

func (r *contactRepository) List(ctx context.Context, filter repository.ContactFilter) ([]domain.Contact, error) {
	const query = `
	SELECT id, agent_id, linked_account_id, name, email, phone, status, metadata, created_at, updated_at
	FROM contacts
	WHERE agent_id = $1
	  AND ($2 = '' OR status = $2)
	ORDER BY updated_at DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.AgentID, filter.Status, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *contact)
	}
	return contacts, rows.Err()
}

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	if contact == nil || contact.AgentID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	if contact.Status == "" {
		contact.Status = domain.ContactStatusLead
	}

	const query = `
	INSERT INTO contacts (id, agent_id, linked_account_id, name, email, phone, status, metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		contact.ID,
		contact.AgentID,
		nullString(contact.LinkedAccountID),
		contact.Name,
		nullString(contact.Email),
		nullString(contact.Phone),
		contact.Status,
		marshalMap(contact.Metadata),
	).Scan(&contact.CreatedAt, &contact.UpdatedAt); err != nil {
		return nil, domain.NewPersistenceError("contact insert", err)
	}

	return contact, nil
}

func (r *contactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	if contact == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE contacts
	SET linked_account_id = $2,
		name = $3,
		email = $4,
		phone = $5,
		status = $6,
		metadata = $7,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		contact.ID,
		nullString(contact.LinkedAccountID),
		contact.Name,
		nullString(contact.Email),
		nullString(contact.Phone),
		contact.Status,
		marshalMap(contact.Metadata),
	).Scan(&contact.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrContactNotFound
		}
		return domain.NewPersistenceError("contact update", err)
	}

	return nil
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	var contact domain.Contact
	var (
		linkedAccount *string
		email         *string
		phone         *string
		metadata      []byte
	)

	if err := row.Scan(
		&contact.ID,
		&contact.AgentID,
		&linkedAccount,
		&contact.Name,
		&email,
		&phone,
		&contact.Status,
		&metadata,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContactNotFound
		}
		return nil, err
	}

	if linkedAccount != nil {
		contact.LinkedAccountID = *linkedAccount
	}
	if email != nil {
		contact.Email = *email
	}
	if phone != nil {
		contact.Phone = *phone
	}
	contact.Metadata = unmarshalMap(metadata)

	return &contact, nil
}
