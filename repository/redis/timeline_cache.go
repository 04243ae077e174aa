package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/agentbook/backend/domain"
	"github.com/agentbook/backend/repository"
)

type timelineCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewTimelineCache creates a Redis-backed cache for aggregated timelines.
func NewTimelineCache(client *redislib.Client, ttl time.Duration) repository.TimelineCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &timelineCache{
		client: client,
		prefix: "timeline:",
		ttl:    ttl,
	}
}

func (c *timelineCache) Get(ctx context.Context, agentID, contactID string) (*domain.Timeline, error) {
	result, err := c.client.Get(ctx, c.key(agentID, contactID)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, nil
		}
		return nil, err
	}

	var timeline domain.Timeline
	if err := json.Unmarshal([]byte(result), &timeline); err != nil {
		return nil, err
	}
	return &timeline, nil
}

func (c *timelineCache) Set(ctx context.Context, agentID, contactID string, timeline *domain.Timeline) error {
	if timeline == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(timeline)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(agentID, contactID), payload, c.ttl).Err()
}

func (c *timelineCache) Invalidate(ctx context.Context, agentID, contactID string) error {
	return c.client.Del(ctx, c.key(agentID, contactID)).Err()
}

// InvalidateAgent scans out every cached timeline for the agent.
func (c *timelineCache) InvalidateAgent(ctx context.Context, agentID string) error {
	if agentID == "" {
		return domain.ErrInvalidPayload
	}
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("%s%s:*", c.prefix, agentID), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *timelineCache) key(agentID, contactID string) string {
	return fmt.Sprintf("%s%s:%s", c.prefix, agentID, contactID)
}
