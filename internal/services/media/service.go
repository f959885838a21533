package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/heartsync/internal/domain/model"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnsupportedType = fmt.Errorf("%w: unsupported content type", ErrValidation)
	ErrPhotoTooLarge   = fmt.Errorf("%w: photo is too large", ErrValidation)
)

const (
	signedURLTTL = 5 * time.Minute
	MaxPhotoSize = 5 << 20
)

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (model.Profile, error)
	Update(ctx context.Context, userID int64, patch model.ProfilePatch, now time.Time) (model.Profile, error)
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutPhoto(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Service struct {
	profiles ProfileStore
	storage  ObjectStorage
	log      *zap.Logger
	now      func() time.Time
}

type Photo struct {
	ObjectKey string
	URL       string
	Profile   model.Profile
}

func NewService(profiles ProfileStore, storage ObjectStorage, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		profiles: profiles,
		storage:  storage,
		log:      log,
		now:      time.Now,
	}
}

// UploadPhoto stores the photo and makes it the profile image. The previous
// object, if any, is removed after the profile points at the new one.
func (s *Service) UploadPhoto(ctx context.Context, userID int64, fileName, contentType string, body io.Reader, size int64) (Photo, error) {
	if userID <= 0 || body == nil || size <= 0 {
		return Photo{}, ErrValidation
	}
	if size > MaxPhotoSize {
		return Photo{}, ErrPhotoTooLarge
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if _, ok := allowedContentTypes[contentType]; !ok {
		return Photo{}, ErrUnsupportedType
	}
	if s.profiles == nil || s.storage == nil {
		return Photo{}, fmt.Errorf("media dependencies are not configured")
	}

	current, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return Photo{}, fmt.Errorf("load profile: %w", err)
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Photo{}, fmt.Errorf("ensure bucket: %w", err)
	}

	objectKey, err := buildPhotoObjectKey(userID, fileName, contentType, s.now())
	if err != nil {
		return Photo{}, fmt.Errorf("build object key: %w", err)
	}
	if err := s.storage.PutPhoto(ctx, objectKey, body, size, contentType); err != nil {
		return Photo{}, fmt.Errorf("put object: %w", err)
	}

	updated, err := s.profiles.Update(ctx, userID, model.ProfilePatch{ImageRef: &objectKey}, s.now().UTC())
	if err != nil {
		_ = s.storage.Delete(ctx, objectKey)
		return Photo{}, fmt.Errorf("set profile image: %w", err)
	}

	if prev := current.ImageRef; prev != nil && isObjectKey(*prev) && *prev != objectKey {
		if err := s.storage.Delete(ctx, *prev); err != nil {
			s.log.Warn("delete previous photo failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	url, err := s.storage.PresignGet(ctx, objectKey, signedURLTTL)
	if err != nil {
		return Photo{}, fmt.Errorf("presign photo url: %w", err)
	}

	return Photo{ObjectKey: objectKey, URL: url, Profile: updated}, nil
}

// ResolvePhotoURL turns a stored image reference into something a client can
// load. Absolute URLs pass through; object keys are presigned.
func ResolvePhotoURL(ctx context.Context, signer URLSigner, ref *string, ttl time.Duration) *string {
	if ref == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ref)
	if trimmed == "" {
		return nil
	}
	if !isObjectKey(trimmed) {
		value := trimmed
		return &value
	}
	if signer == nil {
		return nil
	}

	url, err := signer.PresignGet(ctx, trimmed, ttl)
	if err != nil {
		return nil
	}
	value := strings.TrimSpace(url)
	if value == "" {
		return nil
	}
	return &value
}

func isObjectKey(ref string) bool {
	return !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://")
}

func buildPhotoObjectKey(userID int64, fileName, contentType string, now time.Time) (string, error) {
	rnd := make([]byte, 8)
	if _, err := rand.Read(rnd); err != nil {
		return "", err
	}

	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" || len(ext) > 6 {
		ext = allowedContentTypes[contentType]
	}

	stamp := now.UTC().Format("20060102T150405")
	return fmt.Sprintf("users/%d/photos/%s_%s%s", userID, stamp, hex.EncodeToString(rnd), ext), nil
}
