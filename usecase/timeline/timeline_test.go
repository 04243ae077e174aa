package timeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/internal/infrastructure/eventbus"
	"github.com/agentbook/backend/internal/services/refresh"
	"github.com/agentbook/backend/repository"
)

type fakeContactRepo struct {
	contact *domain.Contact
}

func (r *fakeContactRepo) GetByID(_ context.Context, id string) (*domain.Contact, error) {
	if r.contact == nil || r.contact.ID != id {
		return nil, domain.ErrContactNotFound
	}
	copied := *r.contact
	return &copied, nil
}

func (r *fakeContactRepo) List(_ context.Context, _ repository.ContactFilter) ([]domain.Contact, error) {
	return nil, nil
}

func (r *fakeContactRepo) Create(_ context.Context, contact *domain.Contact) (*domain.Contact, error) {
	return contact, nil
}

func (r *fakeContactRepo) Update(_ context.Context, _ *domain.Contact) error { return nil }

type fakeAppointmentQuerier struct {
	appointments []domain.Appointment
	err          error
	gotFilter    repository.AppointmentFilter
}

func (r *fakeAppointmentQuerier) GetByID(_ context.Context, _ string) (*domain.Appointment, error) {
	return nil, domain.ErrAppointmentNotFound
}

func (r *fakeAppointmentQuerier) Query(_ context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	r.gotFilter = filter
	if r.err != nil {
		return nil, r.err
	}
	return r.appointments, nil
}

func (r *fakeAppointmentQuerier) Create(_ context.Context, appointment *domain.Appointment) (*domain.Appointment, error) {
	return appointment, nil
}

func (r *fakeAppointmentQuerier) UpdateStatus(_ context.Context, _ string, _ repository.StatusPatch) (*domain.Appointment, error) {
	return nil, domain.ErrAppointmentNotFound
}

type fakeInteractionRepo struct {
	interactions []domain.Interaction
	err          error
}

func (r *fakeInteractionRepo) ListByContact(_ context.Context, _ string) ([]domain.Interaction, error) {
	return r.interactions, r.err
}

func (r *fakeInteractionRepo) Create(_ context.Context, interaction *domain.Interaction) (*domain.Interaction, error) {
	return interaction, nil
}

type fakeNoteRepo struct {
	notes []domain.Note
	err   error
}

func (r *fakeNoteRepo) ListByContact(_ context.Context, _ string) ([]domain.Note, error) {
	return r.notes, r.err
}

func (r *fakeNoteRepo) Create(_ context.Context, note *domain.Note) (*domain.Note, error) {
	return note, nil
}

type fakeConversationRepo struct {
	conversations []domain.Conversation
	err           error
	calls         int
}

func (r *fakeConversationRepo) ListByAccountKey(_ context.Context, _, _ string) ([]domain.Conversation, error) {
	r.calls++
	return r.conversations, r.err
}

func registeredContact() *domain.Contact {
	return &domain.Contact{
		ID:              "c1",
		AgentID:         "agent-1",
		LinkedAccountID: "u9",
		Name:            "Dana Reyes",
		Email:           "A@B.com",
		Status:          domain.ContactStatusActive,
	}
}

func newTestUseCase(
	contacts *fakeContactRepo,
	appointments *fakeAppointmentQuerier,
	interactions *fakeInteractionRepo,
	notes *fakeNoteRepo,
	conversations *fakeConversationRepo,
) *UseCase {
	return New(contacts, appointments, interactions, notes, conversations, nil, nil)
}

func TestGetTimelineMergesAcrossKeys(t *testing.T) {
	appointments := &fakeAppointmentQuerier{
		appointments: []domain.Appointment{
			{ID: "a1", AgentID: "agent-1", ContactAccountKey: "u9", Status: domain.AppointmentScheduled, CreatedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
			{ID: "a2", AgentID: "agent-1", ContactEmailKey: "a@b.com", Status: domain.AppointmentCompleted, CreatedAt: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)},
			// The multi-key query can return the same row twice.
			{ID: "a1", AgentID: "agent-1", ContactAccountKey: "u9", Status: domain.AppointmentScheduled, CreatedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
		},
	}
	interactions := &fakeInteractionRepo{interactions: []domain.Interaction{
		{ID: "i1", ContactID: "c1", Type: domain.InteractionCall, CreatedAt: time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)},
	}}
	conversations := &fakeConversationRepo{conversations: []domain.Conversation{
		{ID: "t1", AgentID: "agent-1", AccountKey: "u9", Subject: "Offer terms"},
	}}

	uc := newTestUseCase(&fakeContactRepo{contact: registeredContact()}, appointments, interactions, &fakeNoteRepo{}, conversations)
	timeline, err := uc.GetTimeline(context.Background(), "agent-1", "c1")

	require.NoError(t, err)
	assert.Equal(t, []string{"u9", "c1", "a@b.com"}, appointments.gotFilter.AnyKey)

	ids := make([]string, 0, len(timeline.Activities))
	for _, a := range timeline.Activities {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a1", "i1", "a2"}, ids)
	require.Len(t, timeline.Conversations, 1)
	assert.Equal(t, "Offer terms", timeline.Conversations[0].Subject)
	assert.False(t, timeline.Degraded())
}

func TestGetTimelineUnknownContact(t *testing.T) {
	uc := newTestUseCase(&fakeContactRepo{}, &fakeAppointmentQuerier{}, &fakeInteractionRepo{}, &fakeNoteRepo{}, &fakeConversationRepo{})

	_, err := uc.GetTimeline(context.Background(), "agent-1", "missing")

	assert.ErrorIs(t, err, domain.ErrContactNotFound)
}

func TestGetTimelineScopedToAgent(t *testing.T) {
	uc := newTestUseCase(&fakeContactRepo{contact: registeredContact()}, &fakeAppointmentQuerier{}, &fakeInteractionRepo{}, &fakeNoteRepo{}, &fakeConversationRepo{})

	_, err := uc.GetTimeline(context.Background(), "another-agent", "c1")

	assert.ErrorIs(t, err, domain.ErrContactNotFound)
}

func TestGetTimelineSkipsConversationsWithoutAccount(t *testing.T) {
	contact := registeredContact()
	contact.LinkedAccountID = ""
	conversations := &fakeConversationRepo{}

	uc := newTestUseCase(&fakeContactRepo{contact: contact}, &fakeAppointmentQuerier{}, &fakeInteractionRepo{}, &fakeNoteRepo{}, conversations)
	timeline, err := uc.GetTimeline(context.Background(), "agent-1", "c1")

	require.NoError(t, err)
	assert.Zero(t, conversations.calls)
	assert.Empty(t, timeline.Conversations)
	assert.False(t, timeline.Degraded())
}

func TestGetTimelineDegradesPerSource(t *testing.T) {
	appointments := &fakeAppointmentQuerier{err: errors.New("pg: connection refused")}
	interactions := &fakeInteractionRepo{interactions: []domain.Interaction{
		{ID: "i1", ContactID: "c1", Type: domain.InteractionEmail, CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
	}}

	uc := newTestUseCase(&fakeContactRepo{contact: registeredContact()}, appointments, interactions, &fakeNoteRepo{}, &fakeConversationRepo{})
	timeline, err := uc.GetTimeline(context.Background(), "agent-1", "c1")

	require.NoError(t, err)
	assert.True(t, timeline.Degraded())
	require.Len(t, timeline.Diagnostics, 1)
	assert.Equal(t, "appointment", timeline.Diagnostics[0].Source)
	// The healthy sources still populate the feed.
	require.Len(t, timeline.Activities, 1)
	assert.Equal(t, "i1", timeline.Activities[0].ID)
}

func TestGetTimelineNotesAppearTwice(t *testing.T) {
	notes := &fakeNoteRepo{notes: []domain.Note{
		{ID: "n1", ContactID: "c1", NoteType: "general", Content: "prefers email", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}}

	uc := newTestUseCase(&fakeContactRepo{contact: registeredContact()}, &fakeAppointmentQuerier{}, &fakeInteractionRepo{}, notes, &fakeConversationRepo{})
	timeline, err := uc.GetTimeline(context.Background(), "agent-1", "c1")

	require.NoError(t, err)
	// Notes feed the merged activity list and are also returned raw.
	require.Len(t, timeline.Activities, 1)
	assert.Equal(t, domain.SourceNote, timeline.Activities[0].SourceType)
	require.Len(t, timeline.Notes, 1)
	assert.Equal(t, "prefers email", timeline.Notes[0].Content)
}

type stubCache struct {
	stored  map[string]*domain.Timeline
	gets    int
	sets    int
	dropped int
}

func newStubCache() *stubCache {
	return &stubCache{stored: make(map[string]*domain.Timeline)}
}

func (c *stubCache) Get(_ context.Context, agentID, contactID string) (*domain.Timeline, error) {
	c.gets++
	return c.stored[agentID+"/"+contactID], nil
}

func (c *stubCache) Set(_ context.Context, agentID, contactID string, timeline *domain.Timeline) error {
	c.sets++
	c.stored[agentID+"/"+contactID] = timeline
	return nil
}

func (c *stubCache) Invalidate(_ context.Context, agentID, contactID string) error {
	c.dropped++
	delete(c.stored, agentID+"/"+contactID)
	return nil
}

func (c *stubCache) InvalidateAgent(_ context.Context, agentID string) error {
	for key := range c.stored {
		if strings.HasPrefix(key, agentID+"/") {
			delete(c.stored, key)
			c.dropped++
		}
	}
	return nil
}

func TestGetTimelineServesFromCache(t *testing.T) {
	appointments := &fakeAppointmentQuerier{}
	cache := newStubCache()
	uc := New(&fakeContactRepo{contact: registeredContact()}, appointments, &fakeInteractionRepo{}, &fakeNoteRepo{}, &fakeConversationRepo{}, cache, nil)

	first, err := uc.GetTimeline(context.Background(), "agent-1", "c1")
	require.NoError(t, err)
	second, err := uc.GetTimeline(context.Background(), "agent-1", "c1")
	require.NoError(t, err)

	assert.Equal(t, 1, cache.sets)
	assert.Same(t, first, second)

	uc.Invalidate(context.Background(), "agent-1", "c1")
	assert.Equal(t, 1, cache.dropped)
}

func TestGetTimelineRefreshesAfterWriteEvent(t *testing.T) {
	appointments := &fakeAppointmentQuerier{}
	cache := newStubCache()
	uc := New(&fakeContactRepo{contact: registeredContact()}, appointments, &fakeInteractionRepo{}, &fakeNoteRepo{}, &fakeConversationRepo{}, cache, nil)

	bus := eventbus.NewMemoryBus()
	invalidator, err := refresh.NewInvalidator(bus, cache, nil)
	require.NoError(t, err)
	defer invalidator.Close()

	first, err := uc.GetTimeline(context.Background(), "agent-1", "c1")
	require.NoError(t, err)
	assert.Empty(t, first.Activities)

	// A write lands in the store and its change event hits the bus.
	appointments.appointments = []domain.Appointment{
		{ID: "a1", AgentID: "agent-1", ContactAccountKey: "u9", Status: domain.AppointmentScheduled, CreatedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, bus.PublishChange(context.Background(), domain.ChangeEvent{
		Table:    domain.TableAppointments,
		Op:       domain.ChangeInsert,
		AgentID:  "agent-1",
		RecordID: "a1",
		Keys:     []string{"u9"},
	}))

	second, err := uc.GetTimeline(context.Background(), "agent-1", "c1")
	require.NoError(t, err)
	require.Len(t, second.Activities, 1)
	assert.Equal(t, "a1", second.Activities[0].ID)
	assert.NotSame(t, first, second)
}

func TestResolveWatchKeys(t *testing.T) {
	uc := newTestUseCase(&fakeContactRepo{contact: registeredContact()}, &fakeAppointmentQuerier{}, &fakeInteractionRepo{}, &fakeNoteRepo{}, &fakeConversationRepo{})

	keys, err := uc.ResolveWatchKeys(context.Background(), "agent-1", "c1")

	require.NoError(t, err)
	assert.Equal(t, []string{"u9", "c1", "a@b.com"}, keys)
}
