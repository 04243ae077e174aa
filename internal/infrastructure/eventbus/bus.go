// Package eventbus carries change notifications between the stores' write
// paths and live-refresh listeners.
package eventbus

import (
	"context"
	"sync"

	"github.com/agentbook/backend/domain"
)

// Handler receives change events. Handlers must not block; long work belongs
// behind a debounce or a queue.
type Handler func(event domain.ChangeEvent)

// Subscription is a standing listener registration. Unsubscribe is idempotent
// and guarantees the handler is never invoked afterwards.
type Subscription interface {
	Unsubscribe()
}

// Bus is the change-event fan-out contract.
type Bus interface {
	PublishChange(ctx context.Context, event domain.ChangeEvent) error
	Subscribe(handler Handler) (Subscription, error)
	Close() error
}

// MemoryBus is an in-process bus used in tests and single-node deployments.
type MemoryBus struct {
	mu       sync.RWMutex
	closed   bool
	nextID   int
	handlers map[int]Handler
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[int]Handler)}
}

func (b *MemoryBus) PublishChange(_ context.Context, event domain.ChangeEvent) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

func (b *MemoryBus) Subscribe(handler Handler) (Subscription, error) {
	if handler == nil {
		return nil, domain.ErrInvalidPayload
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	return &memorySubscription{bus: b, id: id}, nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[int]Handler)
	return nil
}

type memorySubscription struct {
	bus  *MemoryBus
	id   int
	once sync.Once
}

func (s *memorySubscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.handlers, s.id)
		s.bus.mu.Unlock()
	})
}
