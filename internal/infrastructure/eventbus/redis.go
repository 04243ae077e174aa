package eventbus

import (
	"context"
	"encoding/json"
	"sync"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agentbook/backend/domain"
)

// RedisBus fans change events out across processes via a pub/sub channel.
type RedisBus struct {
	client  *redislib.Client
	channel string
	logger  *zap.Logger
}

func NewRedisBus(client *redislib.Client, channel string, logger *zap.Logger) *RedisBus {
	if channel == "" {
		channel = "relationship_changes"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBus{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (b *RedisBus) PublishChange(ctx context.Context, event domain.ChangeEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, raw).Err()
}

// Subscribe starts a dedicated pub/sub listener for the handler. The
// goroutine drains until Unsubscribe closes the underlying subscription;
// messages arriving after Unsubscribe are dropped, not queued.
func (b *RedisBus) Subscribe(handler Handler) (Subscription, error) {
	if handler == nil {
		return nil, domain.ErrInvalidPayload
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := b.client.Subscribe(ctx, b.channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{pubsub: pubsub, cancel: cancel}

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok || msg == nil {
					return
				}
				var event domain.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn("bad change event payload", zap.Error(err))
					continue
				}
				if sub.active() {
					handler(event)
				}
			}
		}
	}()

	return sub, nil
}

func (b *RedisBus) Close() error {
	return nil
}

type redisSubscription struct {
	pubsub *redislib.PubSub
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func (s *redisSubscription) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *redisSubscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	_ = s.pubsub.Close()
}
