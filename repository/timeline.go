package repository

import (
	"context"

	"github.com/agentbook/backend/domain"
)

// TimelineCache holds recently aggregated timelines. All methods are
// best-effort: a cache miss or failure never fails the read path.
// InvalidateAgent drops every cached view for one agent; change events carry
// resolution keys rather than contact record ids, so per-contact targeting is
// not possible from the write side.
type TimelineCache interface {
	Get(ctx context.Context, agentID, contactID string) (*domain.Timeline, error)
	Set(ctx context.Context, agentID, contactID string, timeline *domain.Timeline) error
	Invalidate(ctx context.Context, agentID, contactID string) error
	InvalidateAgent(ctx context.Context, agentID string) error
}
