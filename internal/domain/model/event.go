package model

import (
	"encoding/json"
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/enums"
)

type Event struct {
	ID         string          `json:"id"`
	Type       enums.EventType `json:"type"`
	UserID     int64           `json:"user_id"`
	MatchID    int64           `json:"match_id,omitempty"`
	ActorID    int64           `json:"actor_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}
