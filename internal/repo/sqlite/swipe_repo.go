package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/enums"
	"github.com/ivankudzin/heartsync/internal/domain/model"
)

type SwipeRepo struct {
	db *sql.DB
}

func NewSwipeRepo(db *sql.DB) *SwipeRepo {
	return &SwipeRepo{db: db}
}

func (r *SwipeRepo) Upsert(ctx context.Context, fromUserID, toUserID int64, direction enums.SwipeDirection, at time.Time) (model.Swipe, error) {
	if fromUserID <= 0 || toUserID <= 0 || !direction.Valid() {
		return model.Swipe{}, fmt.Errorf("invalid swipe payload")
	}
	if r.db == nil {
		return model.Swipe{}, fmt.Errorf("sqlite db is nil")
	}

	var (
		rec       model.Swipe
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
INSERT INTO swipes (from_user_id, to_user_id, direction, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (from_user_id, to_user_id) DO UPDATE SET
	direction = excluded.direction,
	created_at = excluded.created_at
RETURNING id, from_user_id, to_user_id, direction, created_at
`, fromUserID, toUserID, string(direction), toMillis(at)).Scan(
		&rec.ID,
		&rec.FromUserID,
		&rec.ToUserID,
		&rec.Direction,
		&createdAt,
	)
	if err != nil {
		return model.Swipe{}, mapError("upsert swipe", err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

func (r *SwipeRepo) HasReciprocalRight(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	if r.db == nil {
		return false, fmt.Errorf("sqlite db is nil")
	}

	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM swipes
	WHERE from_user_id = ? AND to_user_id = ? AND direction = 'right'
)
`, toUserID, fromUserID).Scan(&exists)
	if err != nil {
		return false, mapError("lookup reciprocal swipe", err)
	}
	return exists, nil
}

func (r *SwipeRepo) Get(ctx context.Context, fromUserID, toUserID int64) (model.Swipe, error) {
	if r.db == nil {
		return model.Swipe{}, fmt.Errorf("sqlite db is nil")
	}

	var (
		rec       model.Swipe
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, from_user_id, to_user_id, direction, created_at
FROM swipes
WHERE from_user_id = ? AND to_user_id = ?
`, fromUserID, toUserID).Scan(&rec.ID, &rec.FromUserID, &rec.ToUserID, &rec.Direction, &createdAt)
	if err != nil {
		return model.Swipe{}, mapError("get swipe", err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}
