package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/heartsync/internal/domain/enums"
	"github.com/ivankudzin/heartsync/internal/domain/model"
)

const DefaultChannel = "heartsync:events"

var ErrNotConfigured = errors.New("publisher is not configured")

type Publisher interface {
	Publish(ctx context.Context, evt model.Event) error
}

// NewEvent builds an event addressed to userID. payload is JSON encoded; a nil
// payload is omitted.
func NewEvent(eventType enums.EventType, userID, matchID, actorID int64, payload any, at time.Time) (model.Event, error) {
	evt := model.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		MatchID:    matchID,
		ActorID:    actorID,
		OccurredAt: at.UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return model.Event{}, fmt.Errorf("encode event payload: %w", err)
		}
		evt.Payload = raw
	}
	return evt, nil
}

// LocalPublisher delivers straight into the hub of this instance.
type LocalPublisher struct {
	hub *Hub
}

func NewLocalPublisher(hub *Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

func (p *LocalPublisher) Publish(_ context.Context, evt model.Event) error {
	if p == nil || p.hub == nil {
		return ErrNotConfigured
	}
	p.hub.Deliver(evt)
	return nil
}

type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisPublisher pushes events onto the shared channel; every instance's Relay
// (this one included) delivers them to local subscribers.
type RedisPublisher struct {
	bus     Bus
	channel string
}

func NewRedisPublisher(bus Bus, channel string) *RedisPublisher {
	if strings.TrimSpace(channel) == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{bus: bus, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt model.Event) error {
	if p == nil || p.bus == nil {
		return ErrNotConfigured
	}
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.bus.Publish(ctx, p.channel, raw); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
