package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ivankudzin/heartsync/internal/domain/model"
)

type FeedRepo struct {
	db *sql.DB
}

func NewFeedRepo(db *sql.DB) *FeedRepo {
	return &FeedRepo{db: db}
}

// ListCandidates returns profiles the viewer has never swiped on, excluding the
// viewer, ordered by profile id and starting after afterProfileID.
func (r *FeedRepo) ListCandidates(ctx context.Context, viewerID, afterProfileID int64, limit int) ([]model.Profile, error) {
	if viewerID <= 0 {
		return nil, fmt.Errorf("invalid viewer id")
	}
	if limit <= 0 {
		return []model.Profile{}, nil
	}
	if r.db == nil {
		return []model.Profile{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+profileColumns+`
FROM profiles p
WHERE
	p.user_id <> ?
	AND p.id > ?
	AND NOT EXISTS (
		SELECT 1
		FROM swipes s
		WHERE s.from_user_id = ? AND s.to_user_id = p.user_id
	)
ORDER BY p.id ASC
LIMIT ?
`, viewerID, afterProfileID, viewerID, limit)
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
