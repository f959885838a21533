package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/heartsync/internal/domain/model"
)

const (
	profileColumns   = `p.id, p.user_id, p.display_name, p.age, p.bio, p.image_ref, p.interests, p.created_at, p.updated_at`
	profileReturning = `id, user_id, display_name, age, bio, image_ref, interests, created_at, updated_at`
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) GetByUserID(ctx context.Context, userID int64) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}

	profile, err := scanProfile(r.pool.QueryRow(ctx, `
SELECT `+profileColumns+`
FROM profiles p
WHERE p.user_id = $1
`, userID))
	if err != nil {
		return model.Profile{}, mapError("get profile", err)
	}
	return profile, nil
}

func (r *ProfileRepo) Exists(ctx context.Context, userID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM profiles WHERE user_id = $1)
`, userID).Scan(&exists); err != nil {
		return false, mapError("check profile exists", err)
	}
	return exists, nil
}

func (r *ProfileRepo) Update(ctx context.Context, userID int64, patch model.ProfilePatch, now time.Time) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}

	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.DisplayName != nil {
		add("display_name", *patch.DisplayName)
	}
	if patch.Age != nil {
		add("age", *patch.Age)
	}
	if patch.Bio != nil {
		add("bio", nullableString(*patch.Bio))
	}
	if patch.ImageRef != nil {
		add("image_ref", nullableString(*patch.ImageRef))
	}
	if patch.Interests != nil {
		interests := *patch.Interests
		if interests == nil {
			interests = []string{}
		}
		add("interests", interests)
	}
	add("updated_at", now.UTC())
	args = append(args, userID)

	profile, err := scanProfile(r.pool.QueryRow(ctx, `
UPDATE profiles
SET `+strings.Join(sets, ", ")+`
WHERE user_id = $`+fmt.Sprint(len(args))+`
RETURNING `+profileReturning, args...))
	if err != nil {
		return model.Profile{}, mapError("update profile", err)
	}
	return profile, nil
}

func scanProfile(row pgx.Row, extra ...any) (model.Profile, error) {
	var p model.Profile
	dest := append([]any{
		&p.ID,
		&p.UserID,
		&p.DisplayName,
		&p.Age,
		&p.Bio,
		&p.ImageRef,
		&p.Interests,
		&p.CreatedAt,
		&p.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.Profile{}, err
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
