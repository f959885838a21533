package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ivankudzin/heartsync/internal/domain/model"
	redrepo "github.com/ivankudzin/heartsync/internal/repo/redis"
)

// Relay feeds events from the shared Redis channel into the local hub.
type Relay struct {
	bus     *redrepo.EventBus
	hub     *Hub
	channel string
	log     *zap.Logger
}

func NewRelay(bus *redrepo.EventBus, hub *Hub, channel string, log *zap.Logger) *Relay {
	if strings.TrimSpace(channel) == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{bus: bus, hub: hub, channel: channel, log: log}
}

// Subscribe confirms the channel subscription and returns a function that
// pumps messages until ctx is done. Splitting the two lets callers start
// publishing only after the relay is listening.
func (r *Relay) Subscribe(ctx context.Context) (func() error, error) {
	if r.bus == nil || r.hub == nil {
		return nil, ErrNotConfigured
	}
	sub, err := r.bus.Subscribe(ctx, r.channel)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	run := func() error {
		defer sub.Close()
		messages := sub.Messages()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-messages:
				if !ok {
					return nil
				}
				r.handle(msg.Payload)
			}
		}
	}
	return run, nil
}

func (r *Relay) Run(ctx context.Context) error {
	run, err := r.Subscribe(ctx)
	if err != nil {
		return err
	}
	return run()
}

func (r *Relay) handle(payload string) {
	var evt model.Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		r.log.Warn("skip malformed event", zap.Error(err))
		return
	}
	if evt.UserID <= 0 {
		r.log.Warn("skip event without recipient", zap.String("event_id", evt.ID))
		return
	}
	r.hub.Deliver(evt)
}
