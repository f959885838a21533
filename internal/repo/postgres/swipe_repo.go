package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/heartsync/internal/domain/enums"
	"github.com/ivankudzin/heartsync/internal/domain/model"
)

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

func (r *SwipeRepo) Upsert(ctx context.Context, fromUserID, toUserID int64, direction enums.SwipeDirection, at time.Time) (model.Swipe, error) {
	if fromUserID <= 0 || toUserID <= 0 || !direction.Valid() {
		return model.Swipe{}, fmt.Errorf("invalid swipe payload")
	}
	if r.pool == nil {
		return model.Swipe{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		rec model.Swipe
		dir string
	)
	err := r.pool.QueryRow(ctx, `
INSERT INTO swipes (
	from_user_id,
	to_user_id,
	direction,
	created_at
) VALUES ($1, $2, $3, $4)
ON CONFLICT (from_user_id, to_user_id) DO UPDATE SET
	direction = EXCLUDED.direction,
	created_at = EXCLUDED.created_at
RETURNING id, from_user_id, to_user_id, direction, created_at
`, fromUserID, toUserID, string(direction), at.UTC()).Scan(
		&rec.ID,
		&rec.FromUserID,
		&rec.ToUserID,
		&dir,
		&rec.CreatedAt,
	)
	if err != nil {
		return model.Swipe{}, mapError("upsert swipe", err)
	}
	rec.Direction = enums.SwipeDirection(dir)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func (r *SwipeRepo) HasReciprocalRight(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM swipes
	WHERE from_user_id = $1 AND to_user_id = $2 AND direction = 'right'
)
`, toUserID, fromUserID).Scan(&exists)
	if err != nil {
		return false, mapError("lookup reciprocal swipe", err)
	}
	return exists, nil
}

func (r *SwipeRepo) Get(ctx context.Context, fromUserID, toUserID int64) (model.Swipe, error) {
	if r.pool == nil {
		return model.Swipe{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		rec model.Swipe
		dir string
	)
	err := r.pool.QueryRow(ctx, `
SELECT id, from_user_id, to_user_id, direction, created_at
FROM swipes
WHERE from_user_id = $1 AND to_user_id = $2
`, fromUserID, toUserID).Scan(&rec.ID, &rec.FromUserID, &rec.ToUserID, &dir, &rec.CreatedAt)
	if err != nil {
		return model.Swipe{}, mapError("get swipe", err)
	}
	rec.Direction = enums.SwipeDirection(dir)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}
