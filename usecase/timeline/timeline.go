// Package timeline aggregates interactions, appointments, notes and
// conversation summaries into one consistent per-contact view.
package timeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/repository"
	"github.com/agentbook/backend/usecase/identity"
)

type UseCase struct {
	contacts      repository.ContactRepository
	appointments  repository.AppointmentRepository
	interactions  repository.InteractionRepository
	notes         repository.NoteRepository
	conversations repository.ConversationRepository
	cache         repository.TimelineCache
	logger        *zap.Logger
	now           func() time.Time
}

func New(
	contacts repository.ContactRepository,
	appointments repository.AppointmentRepository,
	interactions repository.InteractionRepository,
	notes repository.NoteRepository,
	conversations repository.ConversationRepository,
	cache repository.TimelineCache,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		contacts:      contacts,
		appointments:  appointments,
		interactions:  interactions,
		notes:         notes,
		conversations: conversations,
		cache:         cache,
		logger:        logger,
		now:           time.Now,
	}
}

// GetTimeline builds the merged view for one contact. The contact itself must
// exist; every other source degrades independently. Sub-queries fan out
// concurrently and each failure is recorded in Diagnostics instead of failing
// the call, so one misbehaving store never blanks the whole view.
func (uc *UseCase) GetTimeline(ctx context.Context, agentID, contactID string) (*domain.Timeline, error) {
	contact, err := uc.contacts.GetByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if contact.AgentID != agentID {
		return nil, domain.ErrContactNotFound
	}

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, agentID, contactID); err == nil && cached != nil {
			return cached, nil
		}
	}

	keys := identity.ResolveKeys(contact)

	var (
		interactions []domain.Interaction
		notes        []domain.Note
		appointments []domain.Appointment
		convs        []domain.Conversation
		failures     = make([]domain.SourceFailure, 0, 4)
		failuresCh   = make(chan domain.SourceFailure, 4)
	)

	// Each branch swallows its own error into the diagnostics channel; the
	// group exists for fan-out and join, never for cancellation of siblings.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		interactions, err = uc.interactions.ListByContact(gctx, contactID)
		if err != nil {
			failuresCh <- domain.SourceFailure{Source: string(domain.SourceInteraction), Reason: err.Error()}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		notes, err = uc.notes.ListByContact(gctx, contactID)
		if err != nil {
			failuresCh <- domain.SourceFailure{Source: string(domain.SourceNote), Reason: err.Error()}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		appointments, err = uc.appointments.Query(gctx, repository.AppointmentFilter{
			AgentID: agentID,
			AnyKey:  keys.Candidates(),
		})
		if err != nil {
			failuresCh <- domain.SourceFailure{Source: string(domain.SourceAppointment), Reason: err.Error()}
		}
		return nil
	})
	g.Go(func() error {
		if keys.AccountKey == "" {
			// No registered account, no threads to fetch.
			return nil
		}
		var err error
		convs, err = uc.conversations.ListByAccountKey(gctx, agentID, keys.AccountKey)
		if err != nil {
			failuresCh <- domain.SourceFailure{Source: "conversation", Reason: err.Error()}
		}
		return nil
	})

	_ = g.Wait()
	close(failuresCh)
	for failure := range failuresCh {
		uc.logger.Warn("timeline source degraded",
			zap.String("contact_id", contactID),
			zap.String("source", failure.Source),
			zap.String("reason", failure.Reason))
		failures = append(failures, failure)
	}

	timeline := uc.assemble(contactID, interactions, appointments, notes, convs, failures)

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, agentID, contactID, timeline); err != nil {
			uc.logger.Debug("timeline cache write failed", zap.Error(err))
		}
	}
	return timeline, nil
}

// Invalidate drops the cached view for one contact.
func (uc *UseCase) Invalidate(ctx context.Context, agentID, contactID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, agentID, contactID); err != nil {
		uc.logger.Debug("timeline cache invalidation failed", zap.Error(err))
	}
}

// ResolveWatchKeys exposes the candidate keys for a contact so callers can
// register live-refresh watches without loading the contact twice.
func (uc *UseCase) ResolveWatchKeys(ctx context.Context, agentID, contactID string) ([]string, error) {
	contact, err := uc.contacts.GetByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if contact.AgentID != agentID {
		return nil, domain.ErrContactNotFound
	}
	return identity.AppointmentLookupKeys(contact), nil
}

// assemble performs the deterministic merge. Appointments are de-duplicated
// by id across the multi-key query before normalization.
func (uc *UseCase) assemble(
	contactID string,
	interactions []domain.Interaction,
	appointments []domain.Appointment,
	notes []domain.Note,
	conversations []domain.Conversation,
	failures []domain.SourceFailure,
) *domain.Timeline {
	activities := make([]domain.Activity, 0, len(interactions)+len(appointments)+len(notes))

	seen := make(map[string]struct{}, len(appointments))
	for _, appointment := range appointments {
		if _, dup := seen[appointment.ID]; dup {
			continue
		}
		seen[appointment.ID] = struct{}{}
		activities = append(activities, NormalizeAppointment(appointment))
	}
	for _, interaction := range interactions {
		activities = append(activities, NormalizeInteraction(interaction))
	}
	for _, note := range notes {
		activities = append(activities, NormalizeNote(note))
	}
	SortActivities(activities)

	summaries := make([]domain.ConversationSummary, 0, len(conversations))
	for i := range conversations {
		summaries = append(summaries, conversations[i].Summarize())
	}

	if len(failures) == 0 {
		failures = nil
	}

	return &domain.Timeline{
		ContactID:     contactID,
		Activities:    activities,
		Notes:         notes,
		Conversations: summaries,
		Diagnostics:   failures,
		GeneratedAt:   uc.now(),
	}
}
