package dto

import "time"

type LastMessageResponse struct {
	ID        int64     `json:"id"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type MatchItemResponse struct {
	ID          int64                `json:"id"`
	OtherUserID int64                `json:"other_user_id"`
	DisplayName string               `json:"display_name"`
	Age         int                  `json:"age"`
	Bio         *string              `json:"bio"`
	PhotoURL    *string              `json:"photo_url"`
	Interests   []string             `json:"interests"`
	CreatedAt   time.Time            `json:"created_at"`
	LastMessage *LastMessageResponse `json:"last_message"`
}

type MatchesResponse struct {
	Items []MatchItemResponse `json:"items"`
}
