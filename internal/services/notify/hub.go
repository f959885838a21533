package notify

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/heartsync/internal/domain/enums"
	"github.com/ivankudzin/heartsync/internal/domain/model"
)

const defaultBuffer = 32

// Subscription receives the events addressed to one user. A non-zero MatchID
// narrows it to events of that match.
type Subscription struct {
	ID      string
	UserID  int64
	MatchID int64

	events chan model.Event
	once   sync.Once
}

func (s *Subscription) Events() <-chan model.Event {
	return s.events
}

func (s *Subscription) wants(evt model.Event) bool {
	if evt.UserID != s.UserID {
		return false
	}
	if s.MatchID > 0 {
		return evt.MatchID == s.MatchID
	}
	// Global listeners are not told about their own messages.
	if evt.Type == enums.EventMessageCreated && evt.ActorID == s.UserID {
		return false
	}
	return true
}

// Hub is the per-instance connection manager. Connections attach when they
// open and detach when they close; Deliver never blocks on a slow reader.
type Hub struct {
	mu     sync.RWMutex
	byUser map[int64]map[string]*Subscription
	buffer int
	log    *zap.Logger
}

func NewHub(log *zap.Logger, buffer int) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		byUser: make(map[int64]map[string]*Subscription),
		buffer: buffer,
		log:    log,
	}
}

func (h *Hub) Attach(userID, matchID int64) *Subscription {
	sub := &Subscription{
		ID:      uuid.NewString(),
		UserID:  userID,
		MatchID: matchID,
		events:  make(chan model.Event, h.buffer),
	}

	h.mu.Lock()
	subs, ok := h.byUser[userID]
	if !ok {
		subs = make(map[string]*Subscription)
		h.byUser[userID] = subs
	}
	subs[sub.ID] = sub
	h.mu.Unlock()

	h.log.Debug("subscription attached",
		zap.String("subscription_id", sub.ID),
		zap.Int64("user_id", userID),
		zap.Int64("match_id", matchID),
	)
	return sub
}

// Detach removes the subscription and closes its channel. Safe to call twice.
func (h *Hub) Detach(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	if subs, ok := h.byUser[sub.UserID]; ok {
		delete(subs, sub.ID)
		if len(subs) == 0 {
			delete(h.byUser, sub.UserID)
		}
	}
	sub.once.Do(func() { close(sub.events) })
	h.mu.Unlock()

	h.log.Debug("subscription detached",
		zap.String("subscription_id", sub.ID),
		zap.Int64("user_id", sub.UserID),
	)
}

// Deliver hands evt to every matching subscription on this instance and
// reports how many accepted it. Full buffers drop the event.
func (h *Hub) Deliver(evt model.Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.byUser[evt.UserID] {
		if !sub.wants(evt) {
			continue
		}
		select {
		case sub.events <- evt:
			delivered++
		default:
			h.log.Warn("subscription buffer full, event dropped",
				zap.String("subscription_id", sub.ID),
				zap.String("event_type", string(evt.Type)),
			)
		}
	}
	return delivered
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.byUser {
		total += len(subs)
	}
	return total
}

// Close detaches every subscription, ending their event streams.
func (h *Hub) Close() {
	h.mu.Lock()
	closed := 0
	for userID, subs := range h.byUser {
		for _, sub := range subs {
			sub.once.Do(func() { close(sub.events) })
			closed++
		}
		delete(h.byUser, userID)
	}
	h.mu.Unlock()

	if closed > 0 {
		h.log.Info("hub closed", zap.Int("subscriptions", closed))
	}
}
