package model

import "time"

type Profile struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Age         int       `json:"age"`
	Bio         *string   `json:"bio"`
	ImageRef    *string   `json:"image_ref"`
	Interests   []string  `json:"interests"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfilePatch carries a partial profile update; nil fields are left untouched.
type ProfilePatch struct {
	DisplayName *string
	Age         *int
	Bio         *string
	ImageRef    *string
	Interests   *[]string
}

func (p ProfilePatch) Empty() bool {
	return p.DisplayName == nil && p.Age == nil && p.Bio == nil && p.ImageRef == nil && p.Interests == nil
}
