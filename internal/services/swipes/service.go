package swipes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/heartsync/internal/domain/enums"
	"github.com/ivankudzin/heartsync/internal/domain/model"
	"github.com/ivankudzin/heartsync/internal/domain/rules"
	"github.com/ivankudzin/heartsync/internal/repo/repoerr"
	"github.com/ivankudzin/heartsync/internal/services/notify"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrSelfSwipe            = fmt.Errorf("%w: cannot swipe on yourself", ErrValidation)
	ErrUnsupportedDirection = fmt.Errorf("%w: direction must be left or right", ErrValidation)
	ErrTargetNotFound       = fmt.Errorf("%w: target user not found", ErrValidation)
)

type SwipeStore interface {
	Upsert(ctx context.Context, fromUserID, toUserID int64, direction enums.SwipeDirection, at time.Time) (model.Swipe, error)
	HasReciprocalRight(ctx context.Context, fromUserID, toUserID int64) (bool, error)
}

type MatchStore interface {
	CreateIfAbsent(ctx context.Context, userID, targetID int64, at time.Time) (model.Match, bool, error)
	GetByPair(ctx context.Context, userID, targetID int64) (model.Match, error)
}

type ProfileChecker interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

type Publisher interface {
	Publish(ctx context.Context, evt model.Event) error
}

type SwipeResult struct {
	IsMatch      bool
	MatchCreated bool
	MatchID      int64
	Swipe        model.Swipe
}

type Dependencies struct {
	Swipes    SwipeStore
	Matches   MatchStore
	Profiles  ProfileChecker
	Publisher Publisher
	Logger    *zap.Logger
}

type Service struct {
	swipes    SwipeStore
	matches   MatchStore
	profiles  ProfileChecker
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
		swipes:    deps.Swipes,
		matches:   deps.Matches,
		profiles:  deps.Profiles,
		publisher: deps.Publisher,
		log:       log,
		now:       time.Now,
	}
}

// Swipe records the acting user's decision on target and, on a right swipe
// answered by an earlier right swipe, makes sure the pair's single match
// exists.
//
// The swipe write must commit before the reciprocity read so that two
// opposing swipes running together cannot both miss each other.
func (s *Service) Swipe(ctx context.Context, actingUserID, targetUserID int64, direction string) (SwipeResult, error) {
	if actingUserID <= 0 || targetUserID <= 0 {
		return SwipeResult{}, ErrValidation
	}
	if actingUserID == targetUserID {
		return SwipeResult{}, ErrSelfSwipe
	}
	dir := enums.SwipeDirection(strings.ToLower(strings.TrimSpace(direction)))
	if !dir.Valid() {
		return SwipeResult{}, ErrUnsupportedDirection
	}
	if s.swipes == nil || s.matches == nil || s.profiles == nil {
		return SwipeResult{}, fmt.Errorf("swipe dependencies are not configured")
	}

	exists, err := s.profiles.Exists(ctx, targetUserID)
	if err != nil {
		return SwipeResult{}, fmt.Errorf("check target profile: %w", err)
	}
	if !exists {
		return SwipeResult{}, ErrTargetNotFound
	}

	now := s.now().UTC()
	swipe, err := s.swipes.Upsert(ctx, actingUserID, targetUserID, dir, now)
	if err != nil {
		return SwipeResult{}, fmt.Errorf("record swipe: %w", err)
	}

	result := SwipeResult{Swipe: swipe}
	if dir != enums.SwipeDirectionRight {
		return result, nil
	}

	reciprocal, err := s.swipes.HasReciprocalRight(ctx, actingUserID, targetUserID)
	if err != nil {
		return SwipeResult{}, fmt.Errorf("check reciprocal swipe: %w", err)
	}
	if !reciprocal {
		return result, nil
	}

	match, created, err := s.matches.CreateIfAbsent(ctx, actingUserID, targetUserID, now)
	if err != nil {
		if !errors.Is(err, repoerr.ErrConflict) {
			return SwipeResult{}, fmt.Errorf("create match: %w", err)
		}
		// Another request inserted the pair first; the match exists either way.
		match, err = s.matches.GetByPair(ctx, actingUserID, targetUserID)
		if err != nil {
			return SwipeResult{}, fmt.Errorf("load existing match: %w", err)
		}
		created = false
	}

	result.IsMatch = true
	result.MatchCreated = created
	result.MatchID = match.ID

	if created {
		s.log.Info("match created",
			zap.Int64("match_id", match.ID),
			zap.Int64("user_a_id", match.UserAID),
			zap.Int64("user_b_id", match.UserBID),
		)
		s.notifyMatch(ctx, match, now)
	}
	return result, nil
}

type matchCreatedPayload struct {
	MatchID     int64 `json:"match_id"`
	OtherUserID int64 `json:"other_user_id"`
}

func (s *Service) notifyMatch(ctx context.Context, match model.Match, at time.Time) {
	if s.publisher == nil {
		return
	}
	a, b := rules.CanonicalPair(match.UserAID, match.UserBID)
	for _, userID := range []int64{a, b} {
		other := match.Other(userID)
		evt, err := notify.NewEvent(enums.EventMatchCreated, userID, match.ID, other, matchCreatedPayload{
			MatchID:     match.ID,
			OtherUserID: other,
		}, at)
		if err != nil {
			s.log.Warn("build match event failed", zap.Int64("match_id", match.ID), zap.Error(err))
			continue
		}
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.log.Warn("publish match event failed",
				zap.Int64("match_id", match.ID),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}
}
