package dto

type SwipeRequest struct {
	TargetID  int64  `json:"target_id"`
	Direction string `json:"direction"`
}

type SwipeResponse struct {
	OK      bool   `json:"ok"`
	IsMatch bool   `json:"is_match"`
	MatchID *int64 `json:"match_id,omitempty"`
}
