package repository

import (
	"context"

	"github.com/agentbook/backend/domain"
)

// InteractionRepository and NoteRepository are keyed directly on the contact
// record id; no fallback keys are needed for either store.

type InteractionRepository interface {
	ListByContact(ctx context.Context, contactID string) ([]domain.Interaction, error)
	Create(ctx context.Context, interaction *domain.Interaction) (*domain.Interaction, error)
}

type NoteRepository interface {
	ListByContact(ctx context.Context, contactID string) ([]domain.Note, error)
	Create(ctx context.Context, note *domain.Note) (*domain.Note, error)
}
