package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ivankudzin/heartsync/internal/domain/enums"
	"github.com/ivankudzin/heartsync/internal/domain/model"
	"github.com/ivankudzin/heartsync/internal/domain/rules"
	"github.com/ivankudzin/heartsync/internal/repo/repoerr"
	"github.com/ivankudzin/heartsync/internal/services/notify"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

var (
	ErrValidation    = errors.New("validation error")
	ErrEmptyMessage  = fmt.Errorf("%w: message is empty", ErrValidation)
	ErrMessageLength = fmt.Errorf("%w: message is too long", ErrValidation)
	ErrMatchNotFound = errors.New("match not found")
	ErrForbidden     = errors.New("not a participant of this match")
)

type MatchStore interface {
	GetByID(ctx context.Context, matchID int64) (model.Match, error)
}

type MessageStore interface {
	Create(ctx context.Context, matchID, senderID int64, content string, at time.Time) (model.Message, error)
	ListByMatch(ctx context.Context, matchID int64, limit int) ([]model.Message, error)
}

type Publisher interface {
	Publish(ctx context.Context, evt model.Event) error
}

type Dependencies struct {
	Matches   MatchStore
	Messages  MessageStore
	Publisher Publisher
	Logger    *zap.Logger
}

type Service struct {
	matches   MatchStore
	messages  MessageStore
	publisher Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		matches:   deps.Matches,
		messages:  deps.Messages,
		publisher: deps.Publisher,
		log:       log,
		now:       time.Now,
	}
}

// Participant loads the match and checks that userID belongs to it.
func (s *Service) Participant(ctx context.Context, userID, matchID int64) (model.Match, error) {
	if userID <= 0 || matchID <= 0 {
		return model.Match{}, ErrValidation
	}
	if s.matches == nil {
		return model.Match{}, fmt.Errorf("match store is not configured")
	}

	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repoerr.ErrNotFound) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("load match: %w", err)
	}
	if !match.Has(userID) {
		return model.Match{}, ErrForbidden
	}
	return match, nil
}

func (s *Service) Send(ctx context.Context, userID, matchID int64, content string) (model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Message{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > rules.MaxMessageLen {
		return model.Message{}, ErrMessageLength
	}
	if s.messages == nil {
		return model.Message{}, fmt.Errorf("message store is not configured")
	}

	match, err := s.Participant(ctx, userID, matchID)
	if err != nil {
		return model.Message{}, err
	}

	msg, err := s.messages.Create(ctx, match.ID, userID, content, s.now().UTC())
	if err != nil {
		return model.Message{}, fmt.Errorf("create message: %w", err)
	}

	s.notifyMessage(ctx, match, msg)
	return msg, nil
}

func (s *Service) List(ctx context.Context, userID, matchID int64, limit int) ([]model.Message, error) {
	if s.messages == nil {
		return nil, fmt.Errorf("message store is not configured")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	match, err := s.Participant(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}

	items, err := s.messages.ListByMatch(ctx, match.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return items, nil
}

// Both participants get the event, the sender included, so that the sender's
// other open connections stay in sync.
func (s *Service) notifyMessage(ctx context.Context, match model.Match, msg model.Message) {
	if s.publisher == nil {
		return
	}
	for _, userID := range []int64{match.UserAID, match.UserBID} {
		evt, err := notify.NewEvent(enums.EventMessageCreated, userID, match.ID, msg.SenderID, msg, msg.CreatedAt)
		if err != nil {
			s.log.Warn("build message event failed", zap.Int64("message_id", msg.ID), zap.Error(err))
			continue
		}
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.log.Warn("publish message event failed",
				zap.Int64("message_id", msg.ID),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}
}
