package model

import (
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/enums"
)

type Swipe struct {
	ID         int64                `json:"id"`
	FromUserID int64                `json:"from_user_id"`
	ToUserID   int64                `json:"to_user_id"`
	Direction  enums.SwipeDirection `json:"direction"`
	CreatedAt  time.Time            `json:"created_at"`
}
