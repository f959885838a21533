package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/model"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// CreateWithProfile inserts the user and its default profile in one transaction.
func (r *UserRepo) CreateWithProfile(ctx context.Context, email, passwordHash string, profile model.Profile, now time.Time) (model.User, model.Profile, error) {
	if r.db == nil {
		return model.User{}, model.Profile{}, fmt.Errorf("sqlite db is nil")
	}

	interests, err := encodeInterests(profile.Interests)
	if err != nil {
		return model.User{}, model.Profile{}, err
	}

	var (
		user    model.User
		created model.Profile
	)
	err = WithTx(ctx, r.db, func(txCtx context.Context, tx *sql.Tx) error {
		var createdAt int64
		if err := tx.QueryRowContext(txCtx, `
INSERT INTO users (email, password_hash, created_at)
VALUES (?, ?, ?)
RETURNING id, email, password_hash, created_at
`, email, passwordHash, toMillis(now)).Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt); err != nil {
			return mapError("create user", err)
		}
		user.CreatedAt = fromMillis(createdAt)

		row := tx.QueryRowContext(txCtx, `
INSERT INTO profiles (user_id, display_name, age, bio, image_ref, interests, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+profileReturning,
			user.ID,
			profile.DisplayName,
			profile.Age,
			nullableStringPtr(profile.Bio),
			nullableStringPtr(profile.ImageRef),
			interests,
			toMillis(now),
			toMillis(now),
		)
		p, err := scanProfile(row)
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
	if r.db == nil {
		return model.User{}, fmt.Errorf("sqlite db is nil")
	}

	var (
		user      model.User
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, created_at
FROM users
WHERE email = ?
`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt)
	if err != nil {
		return model.User{}, mapError("get user by email", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

func nullableStringPtr(value *string) any {
	if value == nil {
		return nil
	}
	return nullableString(*value)
}
