package profiles

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/model"
	"github.com/ivankudzin/heartsync/internal/domain/rules"
	"github.com/ivankudzin/heartsync/internal/repo/repoerr"
	mediasvc "github.com/ivankudzin/heartsync/internal/services/media"
)

const photoURLTTL = 15 * time.Minute

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("profile not found")
	ErrImageURL   = errors.New("image url must be an absolute http(s) url")
)

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (model.Profile, error)
	Update(ctx context.Context, userID int64, patch model.ProfilePatch, now time.Time) (model.Profile, error)
}

type Service struct {
	store     ProfileStore
	photoSign mediasvc.URLSigner
	now       func() time.Time
}

type View struct {
	Profile  model.Profile
	PhotoURL *string
}

// UpdateInput is a partial update. Nil fields stay as they are; an empty
// Bio or ImageURL clears the field.
type UpdateInput struct {
	DisplayName *string
	Age         *int
	Bio         *string
	ImageURL    *string
	Interests   *[]string
}

func NewService(store ProfileStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

func (s *Service) AttachPhotoSigner(signer mediasvc.URLSigner) {
	s.photoSign = signer
}

func (s *Service) Get(ctx context.Context, userID int64) (View, error) {
	if userID <= 0 {
		return View{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.store == nil {
		return View{}, fmt.Errorf("profile store is nil")
	}

	profile, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repoerr.ErrNotFound) {
			return View{}, ErrNotFound
		}
		return View{}, fmt.Errorf("get profile: %w", err)
	}
	return s.view(ctx, profile), nil
}

func (s *Service) Update(ctx context.Context, userID int64, in UpdateInput) (View, error) {
	if userID <= 0 {
		return View{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.store == nil {
		return View{}, fmt.Errorf("profile store is nil")
	}

	patch, err := normalizeInput(in)
	if err != nil {
		return View{}, err
	}
	if patch.Empty() {
		return s.Get(ctx, userID)
	}

	profile, err := s.store.Update(ctx, userID, patch, s.now().UTC())
	if err != nil {
		if errors.Is(err, repoerr.ErrNotFound) {
			return View{}, ErrNotFound
		}
		return View{}, fmt.Errorf("update profile: %w", err)
	}
	return s.view(ctx, profile), nil
}

func (s *Service) view(ctx context.Context, profile model.Profile) View {
	return View{
		Profile:  profile,
		PhotoURL: mediasvc.ResolvePhotoURL(ctx, s.photoSign, profile.ImageRef, photoURLTTL),
	}
}

func normalizeInput(in UpdateInput) (model.ProfilePatch, error) {
	var patch model.ProfilePatch

	if in.DisplayName != nil {
		name, err := rules.NormalizeDisplayName(*in.DisplayName)
		if err != nil {
			return model.ProfilePatch{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		patch.DisplayName = &name
	}
	if in.Age != nil {
		if err := rules.ValidateAge(*in.Age); err != nil {
			return model.ProfilePatch{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		age := *in.Age
		patch.Age = &age
	}
	if in.Bio != nil {
		bio, err := rules.NormalizeBio(*in.Bio)
		if err != nil {
			return model.ProfilePatch{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		value := ""
		if bio != nil {
			value = *bio
		}
		patch.Bio = &value
	}
	if in.ImageURL != nil {
		value := strings.TrimSpace(*in.ImageURL)
		if value != "" && !isAbsoluteHTTPURL(value) {
			return model.ProfilePatch{}, fmt.Errorf("%w: %w", ErrValidation, ErrImageURL)
		}
		patch.ImageRef = &value
	}
	if in.Interests != nil {
		items, err := rules.NormalizeInterests(*in.Interests)
		if err != nil {
			return model.ProfilePatch{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		patch.Interests = &items
	}
	return patch, nil
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
