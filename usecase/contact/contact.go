// Package contact manages the agent's book: contact records and the
// append-only interaction/note log.
package contact

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/repository"
	"github.com/agentbook/backend/usecase"
	"github.com/agentbook/backend/usecase/identity"
)

type UseCase struct {
	contacts     repository.ContactRepository
	interactions repository.InteractionRepository
	notes        repository.NoteRepository
	events       usecase.ChangePublisher
	logger       *zap.Logger
}

func New(
	contacts repository.ContactRepository,
	interactions repository.InteractionRepository,
	notes repository.NoteRepository,
	events usecase.ChangePublisher,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		contacts:     contacts,
		interactions: interactions,
		notes:        notes,
		events:       events,
		logger:       logger,
	}
}

func (uc *UseCase) GetContact(ctx context.Context, agentID, id string) (*domain.Contact, error) {
	contact, err := uc.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if contact.AgentID != agentID {
		return nil, domain.ErrContactNotFound
	}
	return contact, nil
}

func (uc *UseCase) ListContacts(ctx context.Context, filter repository.ContactFilter) ([]domain.Contact, error) {
	return uc.contacts.List(ctx, filter)
}

func (uc *UseCase) CreateContact(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	created, err := uc.contacts.Create(ctx, contact)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, domain.TableContacts, domain.ChangeInsert, created.AgentID, created.ID, identity.AppointmentLookupKeys(created))
	return created, nil
}

func (uc *UseCase) UpdateContact(ctx context.Context, agentID string, contact *domain.Contact) (*domain.Contact, error) {
	if contact == nil {
		return nil, domain.ErrInvalidPayload
	}
	existing, err := uc.GetContact(ctx, agentID, contact.ID)
	if err != nil {
		return nil, err
	}
	contact.AgentID = existing.AgentID
	if err := uc.contacts.Update(ctx, contact); err != nil {
		return nil, err
	}
	uc.publish(ctx, domain.TableContacts, domain.ChangeUpdate, contact.AgentID, contact.ID, identity.AppointmentLookupKeys(contact))
	return contact, nil
}

// LogInteraction appends a touchpoint to the contact's history.
func (uc *UseCase) LogInteraction(ctx context.Context, agentID string, interaction *domain.Interaction) (*domain.Interaction, error) {
	if interaction == nil {
		return nil, domain.ErrInvalidPayload
	}
	contact, err := uc.GetContact(ctx, agentID, interaction.ContactID)
	if err != nil {
		return nil, err
	}
	created, err := uc.interactions.Create(ctx, interaction)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, domain.TableInteractions, domain.ChangeInsert, agentID, created.ID, identity.AppointmentLookupKeys(contact))
	return created, nil
}

// AddNote appends a freeform annotation to the contact.
func (uc *UseCase) AddNote(ctx context.Context, agentID string, note *domain.Note) (*domain.Note, error) {
	if note == nil {
		return nil, domain.ErrInvalidPayload
	}
	contact, err := uc.GetContact(ctx, agentID, note.ContactID)
	if err != nil {
		return nil, err
	}
	created, err := uc.notes.Create(ctx, note)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, domain.TableNotes, domain.ChangeInsert, agentID, created.ID, identity.AppointmentLookupKeys(contact))
	return created, nil
}

func (uc *UseCase) publish(ctx context.Context, table, op, agentID, recordID string, keys []string) {
	if uc.events == nil {
		return
	}
	event := domain.ChangeEvent{
		Table:      table,
		Op:         op,
		AgentID:    agentID,
		RecordID:   recordID,
		Keys:       keys,
		OccurredAt: time.Now(),
	}
	if err := uc.events.PublishChange(ctx, event); err != nil {
		uc.logger.Warn("change event publish failed",
			zap.String("table", table),
			zap.String("record_id", recordID),
			zap.Error(err))
	}
}
