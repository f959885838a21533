package model

import "time"

type Match struct {
	ID        int64     `json:"id"`
	UserAID   int64     `json:"user_a_id"`
	UserBID   int64     `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (m Match) Has(userID int64) bool {
	return userID > 0 && (m.UserAID == userID || m.UserBID == userID)
}

func (m Match) Other(userID int64) int64 {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}

type MatchSummary struct {
	Match        Match
	OtherProfile Profile
	LastMessage  *Message
}
