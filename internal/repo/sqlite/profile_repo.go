package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/model"
)

const (
	profileColumns   = `p.id, p.user_id, p.display_name, p.age, p.bio, p.image_ref, p.interests, p.created_at, p.updated_at`
	profileReturning = `id, user_id, display_name, age, bio, image_ref, interests, created_at, updated_at`
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) GetByUserID(ctx context.Context, userID int64) (model.Profile, error) {
	if r.db == nil {
		return model.Profile{}, fmt.Errorf("sqlite db is nil")
	}

	row := r.db.QueryRowContext(ctx, `
SELECT `+profileColumns+`
FROM profiles p
WHERE p.user_id = ?
`, userID)
	profile, err := scanProfile(row)
	if err != nil {
		return model.Profile{}, mapError("get profile", err)
	}
	return profile, nil
}

func (r *ProfileRepo) Exists(ctx context.Context, userID int64) (bool, error) {
	if r.db == nil {
		return false, fmt.Errorf("sqlite db is nil")
	}

	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM profiles WHERE user_id = ?)
`, userID).Scan(&exists)
	if err != nil {
		return false, mapError("check profile exists", err)
	}
	return exists, nil
}

func (r *ProfileRepo) Update(ctx context.Context, userID int64, patch model.ProfilePatch, now time.Time) (model.Profile, error) {
	if r.db == nil {
		return model.Profile{}, fmt.Errorf("sqlite db is nil")
	}

	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	if patch.DisplayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, *patch.DisplayName)
	}
	if patch.Age != nil {
		sets = append(sets, "age = ?")
		args = append(args, *patch.Age)
	}
	if patch.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, nullableString(*patch.Bio))
	}
	if patch.ImageRef != nil {
		sets = append(sets, "image_ref = ?")
		args = append(args, nullableString(*patch.ImageRef))
	}
	if patch.Interests != nil {
		encoded, err := encodeInterests(*patch.Interests)
		if err != nil {
			return model.Profile{}, err
		}
		sets = append(sets, "interests = ?")
		args = append(args, encoded)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, toMillis(now), userID)

	row := r.db.QueryRowContext(ctx, `
UPDATE profiles
SET `+strings.Join(sets, ", ")+`
WHERE user_id = ?
RETURNING `+profileReturning, args...)
	profile, err := scanProfile(row)
	if err != nil {
		return model.Profile{}, mapError("update profile", err)
	}
	return profile, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner, extra ...any) (model.Profile, error) {
	var (
		p         model.Profile
		bio       sql.NullString
		imageRef  sql.NullString
		interests string
		createdAt int64
		updatedAt int64
	)
	dest := append([]any{
		&p.ID,
		&p.UserID,
		&p.DisplayName,
		&p.Age,
		&bio,
		&imageRef,
		&interests,
		&createdAt,
		&updatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.Profile{}, err
	}

	if bio.Valid {
		p.Bio = &bio.String
	}
	if imageRef.Valid {
		p.ImageRef = &imageRef.String
	}
	decoded, err := decodeInterests(interests)
	if err != nil {
		return model.Profile{}, err
	}
	p.Interests = decoded
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

func encodeInterests(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode interests: %w", err)
	}
	return string(raw), nil
}

func decodeInterests(raw string) ([]string, error) {
	items := []string{}
	if strings.TrimSpace(raw) == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode interests: %w", err)
	}
	return items, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
