package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/heartsync/internal/domain/model"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) CreateWithProfile(ctx context.Context, email, passwordHash string, profile model.Profile, now time.Time) (model.User, model.Profile, error) {
	if r.pool == nil {
		return model.User{}, model.Profile{}, fmt.Errorf("postgres pool is nil")
	}

	interests := profile.Interests
	if interests == nil {
		interests = []string{}
	}

	var (
		user    model.User
		created model.Profile
	)
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(txCtx, `
INSERT INTO users (email, password_hash, created_at)
VALUES ($1, $2, $3)
RETURNING id, email, password_hash, created_at
`, email, passwordHash, now.UTC()).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
			return mapError("create user", err)
		}
		user.CreatedAt = user.CreatedAt.UTC()

		p, err := scanProfile(tx.QueryRow(txCtx, `
INSERT INTO profiles (user_id, display_name, age, bio, image_ref, interests, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
RETURNING `+profileReturning,
			user.ID,
			profile.DisplayName,
			profile.Age,
			profile.Bio,
			profile.ImageRef,
			interests,
			now.UTC(),
		))
		if err != nil {
			return mapError("create profile", err)
		}
		created = p
		return nil
	})
	if err != nil {
		return model.User{}, model.Profile{}, err
	}
	return user, created, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
SELECT id, email, password_hash, created_at
FROM users
WHERE email = $1
`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return model.User{}, mapError("get user by email", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}
