package dto

import "time"

type ProfileResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Age         int       `json:"age"`
	Bio         *string   `json:"bio"`
	PhotoURL    *string   `json:"photo_url"`
	Interests   []string  `json:"interests"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	DisplayName *string   `json:"display_name,omitempty"`
	Age         *int      `json:"age,omitempty"`
	Bio         *string   `json:"bio,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Interests   *[]string `json:"interests,omitempty"`
}

type PhotoUploadResponse struct {
	URL     string          `json:"url"`
	Profile ProfileResponse `json:"profile"`
}
