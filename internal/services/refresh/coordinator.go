// Package refresh keeps displayed timelines current. Each active view holds a
// watch on the change-event bus; matching events arm a debounce timer so a
// burst of writes collapses into a single refetch.
package refresh

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/internal/infrastructure/eventbus"
)

// WatchSpec describes what one view cares about: an agent's contact, matched
// via any of the contact's resolved keys.
type WatchSpec struct {
	AgentID   string
	ContactID string
	Keys      []string
}

// Coordinator creates watches against the change-event bus.
type Coordinator struct {
	bus      eventbus.Bus
	debounce time.Duration
	logger   *zap.Logger
}

func New(bus eventbus.Bus, debounce time.Duration, logger *zap.Logger) *Coordinator {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		bus:      bus,
		debounce: debounce,
		logger:   logger,
	}
}

// Watch subscribes for the spec and invokes refetch after the debounce window
// whenever a matching change arrives. The returned watcher is owned by the
// caller and must be closed on view teardown; leaking it leaves a standing
// listener refetching indefinitely.
func (c *Coordinator) Watch(spec WatchSpec, refetch func()) (*Watcher, error) {
	if refetch == nil {
		return nil, domain.ErrInvalidPayload
	}

	w := &Watcher{
		spec:     spec,
		refetch:  refetch,
		debounce: c.debounce,
		logger:   c.logger,
	}

	sub, err := c.bus.Subscribe(w.onEvent)
	if err != nil {
		return nil, err
	}
	w.sub = sub
	return w, nil
}

// Watcher is one view's standing subscription.
type Watcher struct {
	spec     WatchSpec
	refetch  func()
	debounce time.Duration
	logger   *zap.Logger
	sub      eventbus.Subscription

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// onEvent filters by ownership and contact relevance, then arms the debounce
// timer. Events during an armed window collapse into the pending refetch.
func (w *Watcher) onEvent(event domain.ChangeEvent) {
	if !relevantTable(event.Table) {
		return
	}
	if !event.Matches(w.spec.AgentID, w.spec.Keys) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		// Window already armed; this event rides the pending refetch.
		return
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

// fire runs the refetch unless the watcher closed while the timer was
// pending. The refetch executes under the mutex so Close cannot return while
// a refetch is mid-flight; refetch callbacks must not call Close.
func (w *Watcher) fire() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.timer = nil
	w.refetch()
}

// Close stops the watcher. No refetch fires after Close returns, even for
// events already in flight.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if w.sub != nil {
		w.sub.Unsubscribe()
	}
	w.logger.Debug("timeline watch closed",
		zap.String("agent_id", w.spec.AgentID),
		zap.String("contact_id", w.spec.ContactID))
}

// Appointment and interaction writes drive live refresh; contact and note
// changes surface on the next explicit load.
func relevantTable(table string) bool {
	return table == domain.TableAppointments || table == domain.TableInteractions
}
