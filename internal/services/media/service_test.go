package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/model"
)

type fakeProfiles struct {
	profile   model.Profile
	updateErr error
}

func (f *fakeProfiles) GetByUserID(_ context.Context, userID int64) (model.Profile, error) {
	p := f.profile
	p.UserID = userID
	return p, nil
}

func (f *fakeProfiles) Update(_ context.Context, _ int64, patch model.ProfilePatch, _ time.Time) (model.Profile, error) {
	if f.updateErr != nil {
		return model.Profile{}, f.updateErr
	}
	if patch.ImageRef != nil {
		ref := *patch.ImageRef
		f.profile.ImageRef = &ref
	}
	return f.profile, nil
}

type fakeStorage struct {
	puts    []string
	deleted []string
}

func (f *fakeStorage) EnsureBucket(_ context.Context) error {
	return nil
}

func (f *fakeStorage) PutPhoto(_ context.Context, key string, _ io.Reader, _ int64, _ string) error {
	f.puts = append(f.puts, key)
	return nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.local/" + key, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func TestUploadPhotoReplacesProfileImage(t *testing.T) {
	prev := "users/1/photos/old.jpg"
	profiles := &fakeProfiles{profile: model.Profile{ID: 1, ImageRef: &prev}}
	storage := &fakeStorage{}
	svc := NewService(profiles, storage, nil)

	photo, err := svc.UploadPhoto(context.Background(), 1, "me.JPG", "image/jpeg", strings.NewReader("abc"), 3)
	if err != nil {
		t.Fatalf("upload photo: %v", err)
	}
	if !strings.HasPrefix(photo.ObjectKey, "users/1/photos/") || !strings.HasSuffix(photo.ObjectKey, ".jpg") {
		t.Fatalf("unexpected object key %q", photo.ObjectKey)
	}
	if photo.URL != "https://signed.local/"+photo.ObjectKey {
		t.Fatalf("unexpected url %q", photo.URL)
	}
	if photo.Profile.ImageRef == nil || *photo.Profile.ImageRef != photo.ObjectKey {
		t.Fatalf("profile image ref not updated: %+v", photo.Profile)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != prev {
		t.Fatalf("previous photo should be removed, deleted=%v", storage.deleted)
	}
}

func TestUploadPhotoCleansUpWhenProfileUpdateFails(t *testing.T) {
	profiles := &fakeProfiles{updateErr: errors.New("db down")}
	storage := &fakeStorage{}
	svc := NewService(profiles, storage, nil)

	if _, err := svc.UploadPhoto(context.Background(), 1, "me.png", "image/png", strings.NewReader("abc"), 3); err == nil {
		t.Fatalf("expected error")
	}
	if len(storage.puts) != 1 || len(storage.deleted) != 1 || storage.deleted[0] != storage.puts[0] {
		t.Fatalf("uploaded object should be removed, puts=%v deleted=%v", storage.puts, storage.deleted)
	}
}

func TestUploadPhotoValidation(t *testing.T) {
	svc := NewService(&fakeProfiles{}, &fakeStorage{}, nil)
	ctx := context.Background()

	if _, err := svc.UploadPhoto(ctx, 1, "a.gif", "image/gif", strings.NewReader("abc"), 3); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := svc.UploadPhoto(ctx, 1, "a.jpg", "image/jpeg", strings.NewReader("abc"), MaxPhotoSize+1); !errors.Is(err, ErrPhotoTooLarge) {
		t.Fatalf("expected ErrPhotoTooLarge, got %v", err)
	}
	if _, err := svc.UploadPhoto(ctx, 0, "a.jpg", "image/jpeg", strings.NewReader("abc"), 3); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestResolvePhotoURL(t *testing.T) {
	ctx := context.Background()
	signer := &fakeStorage{}
	key := "users/2/photos/a.jpg"
	absolute := "https://cdn.example.com/a.jpg"
	blank := "  "

	if got := ResolvePhotoURL(ctx, signer, &key, time.Minute); got == nil || *got != "https://signed.local/"+key {
		t.Fatalf("object key should be presigned, got %v", got)
	}
	if got := ResolvePhotoURL(ctx, signer, &absolute, time.Minute); got == nil || *got != absolute {
		t.Fatalf("absolute url should pass through, got %v", got)
	}
	if got := ResolvePhotoURL(ctx, nil, &key, time.Minute); got != nil {
		t.Fatalf("no signer means no url, got %v", *got)
	}
	if got := ResolvePhotoURL(ctx, signer, &blank, time.Minute); got != nil {
		t.Fatalf("blank ref should yield nil, got %v", *got)
	}
	if got := ResolvePhotoURL(ctx, signer, nil, time.Minute); got != nil {
		t.Fatalf("nil ref should yield nil, got %v", *got)
	}
}
