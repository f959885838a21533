package matches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/model"
	mediasvc "github.com/ivankudzin/heartsync/internal/services/media"
)

const (
	defaultLimit = 100
	maxLimit     = 200
	photoURLTTL  = 5 * time.Minute
)

var ErrValidation = errors.New("validation error")

type MatchStore interface {
	ListForUser(ctx context.Context, userID int64, limit int) ([]model.MatchSummary, error)
}

type Service struct {
	matchStore MatchStore
	photoSign  mediasvc.URLSigner
}

type LastMessage struct {
	ID        int64
	SenderID  int64
	Content   string
	CreatedAt time.Time
}

type MatchItem struct {
	ID          int64
	OtherUserID int64
	DisplayName string
	Age         int
	Bio         *string
	PhotoURL    *string
	Interests   []string
	CreatedAt   time.Time
	LastMessage *LastMessage
}

func NewService(matchStore MatchStore) *Service {
	return &Service{matchStore: matchStore}
}

func (s *Service) AttachPhotoSigner(signer mediasvc.URLSigner) {
	s.photoSign = signer
}

// List returns the user's matches, newest first, each with the other
// participant's profile and the latest message if there is one.
func (s *Service) List(ctx context.Context, userID int64, limit int) ([]MatchItem, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.matchStore == nil {
		return nil, fmt.Errorf("match store is nil")
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rows, err := s.matchStore.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	items := make([]MatchItem, 0, len(rows))
	for _, row := range rows {
		item := MatchItem{
			ID:          row.Match.ID,
			OtherUserID: row.Match.Other(userID),
			DisplayName: row.OtherProfile.DisplayName,
			Age:         row.OtherProfile.Age,
			Bio:         row.OtherProfile.Bio,
			PhotoURL:    mediasvc.ResolvePhotoURL(ctx, s.photoSign, row.OtherProfile.ImageRef, photoURLTTL),
			Interests:   row.OtherProfile.Interests,
			CreatedAt:   row.Match.CreatedAt,
		}
		if msg := row.LastMessage; msg != nil {
			item.LastMessage = &LastMessage{
				ID:        msg.ID,
				SenderID:  msg.SenderID,
				Content:   msg.Content,
				CreatedAt: msg.CreatedAt,
			}
		}
		items = append(items, item)
	}
	return items, nil
}
