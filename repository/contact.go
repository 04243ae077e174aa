package repository

import (
	"context"

	"github.com/agentbook/backend/domain"
)

type ContactFilter struct {
	AgentID string
	Status  string
	Limit   int
	Offset  int
}

type ContactRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	List(ctx context.Context, filter ContactFilter) ([]domain.Contact, error)
	Create(ctx context.Context, contact *domain.Contact) (*domain.Contact, error)
	Update(ctx context.Context, contact *domain.Contact) error
}
