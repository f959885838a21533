package redis

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

type EventBus struct {
	client *goredis.Client
}

func NewEventBus(client *goredis.Client) *EventBus {
	return &EventBus{client: client}
}

func (b *EventBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if b.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(channel) == "" {
		return fmt.Errorf("channel is required")
	}
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return wrapErr("publish event", err)
	}
	return nil
}

type Subscription struct {
	pubsub *goredis.PubSub
}

// Subscribe returns once the server has confirmed the subscription, so any
// message published afterwards is delivered.
func (b *EventBus) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	if b.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(channel) == "" {
		return nil, fmt.Errorf("channel is required")
	}

	pubsub := b.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, wrapErr("subscribe", err)
	}
	return &Subscription{pubsub: pubsub}, nil
}

func (s *Subscription) Messages() <-chan *goredis.Message {
	return s.pubsub.Channel()
}

func (s *Subscription) Close() error {
	return s.pubsub.Close()
}
