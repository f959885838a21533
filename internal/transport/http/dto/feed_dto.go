package dto

type FeedItemResponse struct {
	UserID      int64    `json:"user_id"`
	ProfileID   int64    `json:"profile_id"`
	DisplayName string   `json:"display_name"`
	Age         int      `json:"age"`
	Bio         *string  `json:"bio"`
	PhotoURL    *string  `json:"photo_url"`
	Interests   []string `json:"interests"`
}

type FeedResponse struct {
	Items      []FeedItemResponse `json:"items"`
	NextCursor *string            `json:"next_cursor"`
}
