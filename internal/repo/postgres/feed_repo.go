package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/heartsync/internal/domain/model"
)

type FeedRepo struct {
	pool *pgxpool.Pool
}

func NewFeedRepo(pool *pgxpool.Pool) *FeedRepo {
	return &FeedRepo{pool: pool}
}

func (r *FeedRepo) ListCandidates(ctx context.Context, viewerID, afterProfileID int64, limit int) ([]model.Profile, error) {
	if viewerID <= 0 {
		return nil, fmt.Errorf("invalid viewer id")
	}
	if limit <= 0 || r.pool == nil {
		return []model.Profile{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+profileColumns+`
FROM profiles p
WHERE
	p.user_id <> $1
	AND p.id > $2
	AND NOT EXISTS (
		SELECT 1
		FROM swipes s
		WHERE s.from_user_id = $1 AND s.to_user_id = p.user_id
	)
ORDER BY p.id ASC
LIMIT $3
`, viewerID, afterProfileID, limit)
	if err != nil {
		return nil, mapError("list feed candidates", err)
	}
	defer rows.Close()

	items := make([]model.Profile, 0, limit)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, mapError("scan feed candidate", err)
		}
		items = append(items, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate feed candidates", err)
	}
	return items, nil
}
