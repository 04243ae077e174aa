package refresh

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/internal/infrastructure/eventbus"
)

func appointmentEvent(agentID string, keys ...string) domain.ChangeEvent {
	return domain.ChangeEvent{
		Table:      domain.TableAppointments,
		Op:         domain.ChangeUpdate,
		AgentID:    agentID,
		RecordID:   "a1",
		Keys:       keys,
		OccurredAt: time.Now(),
	}
}

func waitForRefetches(t *testing.T, counter *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if counter.Load() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, want, counter.Load())
}

func TestWatcherDebouncesBurst(t *testing.T) {
	bus := eventbus.NewMemoryBus()
	coordinator := New(bus, 30*time.Millisecond, nil)

	var refetches atomic.Int32
	watcher, err := coordinator.Watch(WatchSpec{
		AgentID:   "agent-1",
		ContactID: "c1",
		Keys:      []string{"u9", "c1", "a@b.com"},
	}, func() { refetches.Add(1) })
	require.NoError(t, err)
	defer watcher.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.PublishChange(context.Background(), appointmentEvent("agent-1", "u9")))
	}

	waitForRefetches(t, &refetches, 1)
	// The window has closed; no trailing refetch sneaks in.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), refetches.Load())
}

func TestWatcherRearmsAfterWindow(t *testing.T) {
	bus := eventbus.NewMemoryBus()
	coordinator := New(bus, 20*time.Millisecond, nil)

	var refetches atomic.Int32
	watcher, err := coordinator.Watch(WatchSpec{
		AgentID: "agent-1",
		Keys:    []string{"c1"},
	}, func() { refetches.Add(1) })
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, bus.PublishChange(context.Background(), appointmentEvent("agent-1", "c1")))
	waitForRefetches(t, &refetches, 1)

	require.NoError(t, bus.PublishChange(context.Background(), appointmentEvent("agent-1", "c1")))
	waitForRefetches(t, &refetches, 2)
}

func TestWatcherIgnoresUnrelatedEvents(t *testing.T) {
	bus := eventbus.NewMemoryBus()
	coordinator := New(bus, 10*time.Millisecond, nil)

	var refetches atomic.Int32
	watcher, err := coordinator.Watch(WatchSpec{
		AgentID: "agent-1",
		Keys:    []string{"u9", "c1"},
	}, func() { refetches.Add(1) })
	require.NoError(t, err)
	defer watcher.Close()

	// Wrong agent, wrong keys, and a table outside the refresh set.
	require.NoError(t, bus.PublishChange(context.Background(), appointmentEvent("agent-2", "u9")))
	require.NoError(t, bus.PublishChange(context.Background(), appointmentEvent("agent-1", "other-contact")))
	require.NoError(t, bus.PublishChange(context.Background(), domain.ChangeEvent{
		Table:   domain.TableNotes,
		AgentID: "agent-1",
		Keys:    []string{"c1"},
	}))

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, refetches.Load())
}

func TestWatcherInteractionEventsAlsoRefresh(t *testing.T) {
	bus := eventbus.NewMemoryBus()
	coordinator := New(bus, 10*time.Millisecond, nil)

	var refetches atomic.Int32
	watcher, err := coordinator.Watch(WatchSpec{
		AgentID: "agent-1",
		Keys:    []string{"c1"},
	}, func() { refetches.Add(1) })
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, bus.PublishChange(context.Background(), domain.ChangeEvent{
		Table:   domain.TableInteractions,
		Op:      domain.ChangeInsert,
		AgentID: "agent-1",
		Keys:    []string{"c1"},
	}))

	waitForRefetches(t, &refetches, 1)
}

func TestCloseCancelsPendingRefetch(t *testing.T) {
	bus := eventbus.NewMemoryBus()
	coordinator := New(bus, 50*time.Millisecond, nil)

	var refetches atomic.Int32
	watcher, err := coordinator.Watch(WatchSpec{
		AgentID: "agent-1",
		Keys:    []string{"c1"},
	}, func() { refetches.Add(1) })
	require.NoError(t, err)

	require.NoError(t, bus.PublishChange(context.Background(), appointmentEvent("agent-1", "c1")))
	watcher.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, refetches.Load())

	// Events after close never reach the handler.
	require.NoError(t, bus.PublishChange(context.Background(), appointmentEvent("agent-1", "c1")))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, refetches.Load())
}

func TestCloseIsIdempotent(t *testing.T) {
	bus := eventbus.NewMemoryBus()
	coordinator := New(bus, 10*time.Millisecond, nil)

	watcher, err := coordinator.Watch(WatchSpec{AgentID: "agent-1", Keys: []string{"c1"}}, func() {})
	require.NoError(t, err)

	watcher.Close()
	watcher.Close()
}

func TestWatchRequiresRefetch(t *testing.T) {
	coordinator := New(eventbus.NewMemoryBus(), 10*time.Millisecond, nil)

	_, err := coordinator.Watch(WatchSpec{AgentID: "agent-1"}, nil)

	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
