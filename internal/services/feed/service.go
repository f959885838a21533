package feed

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/model"
	mediasvc "github.com/ivankudzin/heartsync/internal/services/media"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	feedPhotoURLTTL = 5 * time.Minute
)

var (
	ErrValidation    = errors.New("validation error")
	ErrInvalidCursor = fmt.Errorf("%w: invalid cursor", ErrValidation)
)

type Repository interface {
	ListCandidates(ctx context.Context, viewerID, afterProfileID int64, limit int) ([]model.Profile, error)
}

type Config struct {
	DefaultLimit int
	MaxLimit     int
}

type Service struct {
	repo      Repository
	cfg       Config
	photoSign mediasvc.URLSigner
}

type Item struct {
	UserID      int64
	ProfileID   int64
	DisplayName string
	Age         int
	Bio         *string
	PhotoURL    *string
	Interests   []string
}

type Result struct {
	Items      []Item
	NextCursor string
}

type pageCursor struct {
	ProfileID int64 `json:"p"`
}

func NewService(repo Repository, cfg Config) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultPageSize
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = maxPageSize
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}
	return &Service{repo: repo, cfg: cfg}
}

func (s *Service) AttachPhotoSigner(signer mediasvc.URLSigner) {
	s.photoSign = signer
}

// Get returns the next page of profiles the user has not swiped on yet.
// Both left and right swipes hide a profile; the viewer never sees their own.
func (s *Service) Get(ctx context.Context, userID int64, cursor string, limit int) (Result, error) {
	if userID <= 0 {
		return Result{}, ErrValidation
	}
	if s.repo == nil {
		return Result{}, fmt.Errorf("feed repository is not configured")
	}

	after, err := decodeCursor(cursor)
	if err != nil {
		return Result{}, err
	}
	limit = s.normalizeLimit(limit)

	profiles, err := s.repo.ListCandidates(ctx, userID, after.ProfileID, limit)
	if err != nil {
		return Result{}, fmt.Errorf("list feed candidates: %w", err)
	}

	result := Result{Items: make([]Item, 0, len(profiles))}
	for _, p := range profiles {
		if p.UserID == userID {
			continue
		}
		result.Items = append(result.Items, Item{
			UserID:      p.UserID,
			ProfileID:   p.ID,
			DisplayName: p.DisplayName,
			Age:         p.Age,
			Bio:         p.Bio,
			PhotoURL:    mediasvc.ResolvePhotoURL(ctx, s.photoSign, p.ImageRef, feedPhotoURLTTL),
			Interests:   p.Interests,
		})
	}

	if len(profiles) == limit {
		next, err := encodeCursor(pageCursor{ProfileID: profiles[len(profiles)-1].ID})
		if err != nil {
			return Result{}, err
		}
		result.NextCursor = next
	}
	return result, nil
}

func (s *Service) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

func decodeCursor(raw string) (pageCursor, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return pageCursor{}, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return pageCursor{}, ErrInvalidCursor
	}

	var cursor pageCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return pageCursor{}, ErrInvalidCursor
	}
	if cursor.ProfileID <= 0 {
		return pageCursor{}, ErrInvalidCursor
	}
	return cursor, nil
}

func encodeCursor(cursor pageCursor) (string, error) {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("marshal feed cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}
