package notifier

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/internal/infrastructure/outbox"
)

type flakySender struct {
	failures int
	sent     []*domain.Notification
}

func (s *flakySender) Send(_ context.Context, notification *domain.Notification) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("delivery channel down")
	}
	s.sent = append(s.sent, notification)
	return nil
}

func openTestOutbox(t *testing.T) *outbox.Store {
	t.Helper()
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), "notifications")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testNotification(id string, kind domain.NotificationKind) *domain.Notification {
	return &domain.Notification{
		ID:        id,
		Kind:      kind,
		AgentID:   "agent-1",
		Recipient: "a@b.com",
		Payload:   map[string]string{"appointment_id": "a1"},
		CreatedAt: time.Now(),
	}
}

func TestDispatchDeliversImmediately(t *testing.T) {
	sender := &flakySender{}
	dispatcher := New(sender, openTestOutbox(t), nil, Config{})

	err := dispatcher.Dispatch(context.Background(), testNotification("n1", domain.NotifyAppointmentCreated))

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Zero(t, dispatcher.Size())
}

func TestDispatchFallsBackToOutbox(t *testing.T) {
	sender := &flakySender{failures: 1}
	dispatcher := New(sender, openTestOutbox(t), nil, Config{})

	err := dispatcher.Dispatch(context.Background(), testNotification("n1", domain.NotifyAppointmentConfirmed))

	require.NoError(t, err)
	assert.Empty(t, sender.sent)
	assert.Equal(t, 1, dispatcher.Size())
}

func TestDrainDeliversQueued(t *testing.T) {
	sender := &flakySender{failures: 1}
	dispatcher := New(sender, openTestOutbox(t), nil, Config{})

	notification := testNotification("n1", domain.NotifyAppointmentCancelled)
	require.NoError(t, dispatcher.Dispatch(context.Background(), notification))
	require.Equal(t, 1, dispatcher.Size())

	require.NoError(t, dispatcher.Drain(context.Background()))

	assert.Zero(t, dispatcher.Size())
	require.Len(t, sender.sent, 1)
	assert.Equal(t, notification.ID, sender.sent[0].ID)
	assert.Equal(t, domain.NotifyAppointmentCancelled, sender.sent[0].Kind)
}

func TestDrainRequeuesUntilRetryBudget(t *testing.T) {
	sender := &flakySender{failures: 10}
	dispatcher := New(sender, openTestOutbox(t), nil, Config{MaxRetries: 2})

	require.NoError(t, dispatcher.Dispatch(context.Background(), testNotification("n1", domain.NotifyAppointmentCreated)))
	require.Equal(t, 1, dispatcher.Size())

	// First drain fails delivery and requeues with a bumped retry count.
	require.NoError(t, dispatcher.Drain(context.Background()))
	assert.Equal(t, 1, dispatcher.Size())

	// Second drain exhausts the budget and drops the entry.
	require.NoError(t, dispatcher.Drain(context.Background()))
	assert.Zero(t, dispatcher.Size())
	assert.Empty(t, sender.sent)
}

func TestDrainOrdersByPriority(t *testing.T) {
	sender := &flakySender{failures: 2}
	dispatcher := New(sender, openTestOutbox(t), nil, Config{})

	require.NoError(t, dispatcher.Dispatch(context.Background(), testNotification("routine", domain.NotifyAppointmentCreated)))
	sender.failures = 1
	require.NoError(t, dispatcher.Dispatch(context.Background(), testNotification("urgent", domain.NotifyAppointmentCancelled)))
	require.Equal(t, 2, dispatcher.Size())

	require.NoError(t, dispatcher.Drain(context.Background()))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "urgent", sender.sent[0].ID)
	assert.Equal(t, "routine", sender.sent[1].ID)
}

func TestNewFloorsSubSecondDrainInterval(t *testing.T) {
	dispatcher := New(&flakySender{}, openTestOutbox(t), nil, Config{DrainInterval: 200 * time.Millisecond})

	assert.Equal(t, time.Second, dispatcher.cfg.DrainInterval)
	// One scheduled entry for the drain; the rendered spec must be valid.
	assert.NotEmpty(t, dispatcher.cron.Entries())
}

func TestDispatchNilNotification(t *testing.T) {
	dispatcher := New(&flakySender{}, openTestOutbox(t), nil, Config{})

	err := dispatcher.Dispatch(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestDispatchWithoutStoreSurfacesSendError(t *testing.T) {
	sender := &flakySender{failures: 1}
	dispatcher := New(sender, nil, nil, Config{})

	err := dispatcher.Dispatch(context.Background(), testNotification("n1", domain.NotifyAppointmentCreated))

	assert.Error(t, err)
}
