package refresh

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/internal/infrastructure/eventbus"
	"github.com/agentbook/backend/repository"
)

// Invalidator is a standing bus subscriber that drops an agent's cached
// timelines whenever one of their stores changes, so a plain read right after
// a write never serves the pre-write snapshot. It runs independently of any
// open stream.
type Invalidator struct {
	cache  repository.TimelineCache
	logger *zap.Logger
	sub    eventbus.Subscription
}

func NewInvalidator(bus eventbus.Bus, cache repository.TimelineCache, logger *zap.Logger) (*Invalidator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	inv := &Invalidator{
		cache:  cache,
		logger: logger,
	}
	sub, err := bus.Subscribe(inv.onEvent)
	if err != nil {
		return nil, err
	}
	inv.sub = sub
	return inv, nil
}

// onEvent invalidates per agent. Events carry resolution keys, not contact
// record ids, so the whole agent scope is dropped; timelines rebuild lazily
// on the next read.
func (i *Invalidator) onEvent(event domain.ChangeEvent) {
	if i.cache == nil || event.AgentID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := i.cache.InvalidateAgent(ctx, event.AgentID); err != nil {
		i.logger.Warn("timeline cache invalidation failed",
			zap.String("agent_id", event.AgentID),
			zap.String("table", event.Table),
			zap.Error(err))
	}
}

// Close releases the bus subscription.
func (i *Invalidator) Close() {
	if i.sub != nil {
		i.sub.Unsubscribe()
	}
}
