package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/heartsync/internal/domain/model"
	"github.com/ivankudzin/heartsync/internal/domain/rules"
)

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

func (r *MatchRepo) CreateIfAbsent(ctx context.Context, userID, targetID int64, at time.Time) (model.Match, bool, error) {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return model.Match{}, false, fmt.Errorf("invalid match payload")
	}
	if r.pool == nil {
		return model.Match{}, false, fmt.Errorf("postgres pool is nil")
	}

	userA, userB := rules.CanonicalPair(userID, targetID)

	var m model.Match
	err := r.pool.QueryRow(ctx, `
INSERT INTO matches (
	user_a_id,
	user_b_id,
	created_at
) VALUES ($1, $2, $3)
ON CONFLICT (user_a_id, user_b_id) DO NOTHING
RETURNING id, user_a_id, user_b_id, created_at
`, userA, userB, at.UTC()).Scan(&m.ID, &m.UserAID, &m.UserBID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			existing, getErr := r.GetByPair(ctx, userA, userB)
			if getErr != nil {
				return model.Match{}, false, getErr
			}
			return existing, false, nil
		}
		return model.Match{}, false, mapError("create match", err)
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return m, true, nil
}

func (r *MatchRepo) GetByPair(ctx context.Context, userID, targetID int64) (model.Match, error) {
	if r.pool == nil {
		return model.Match{}, fmt.Errorf("postgres pool is nil")
	}

	userA, userB := rules.CanonicalPair(userID, targetID)
	return r.getOne(ctx, "get match by pair", `
SELECT id, user_a_id, user_b_id, created_at
FROM matches
WHERE user_a_id = $1 AND user_b_id = $2
`, userA, userB)
}

func (r *MatchRepo) GetByID(ctx context.Context, matchID int64) (model.Match, error) {
	if r.pool == nil {
		return model.Match{}, fmt.Errorf("postgres pool is nil")
	}

	return r.getOne(ctx, "get match", `
SELECT id, user_a_id, user_b_id, created_at
FROM matches
WHERE id = $1
`, matchID)
}

func (r *MatchRepo) getOne(ctx context.Context, op, query string, args ...any) (model.Match, error) {
	var m model.Match
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&m.ID, &m.UserAID, &m.UserBID, &m.CreatedAt); err != nil {
		return model.Match{}, mapError(op, err)
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}

func (r *MatchRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]model.MatchSummary, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return []model.MatchSummary{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	m.id,
	m.user_a_id,
	m.user_b_id,
	m.created_at,
	`+profileColumns+`,
	lm.id,
	lm.sender_id,
	lm.content,
	lm.created_at
FROM matches m
JOIN profiles p ON p.user_id = CASE WHEN m.user_a_id = $1 THEN m.user_b_id ELSE m.user_a_id END
LEFT JOIN LATERAL (
	SELECT id, sender_id, content, created_at
	FROM messages
	WHERE match_id = m.id
	ORDER BY created_at DESC, id DESC
	LIMIT 1
) lm ON TRUE
WHERE m.user_a_id = $1 OR m.user_b_id = $1
ORDER BY m.created_at DESC, m.id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, mapError("list matches", err)
	}
	defer rows.Close()

	items := make([]model.MatchSummary, 0)
	for rows.Next() {
		var (
			item         model.MatchSummary
			msgID        *int64
			msgSender    *int64
			msgContent   *string
			msgCreatedAt *time.Time
		)
		head := []any{&item.Match.ID, &item.Match.UserAID, &item.Match.UserBID, &item.Match.CreatedAt}
		profile, err := scanProfile(prefixRow{row: rows, head: head}, &msgID, &msgSender, &msgContent, &msgCreatedAt)
		if err != nil {
			return nil, mapError("scan match", err)
		}
		item.Match.CreatedAt = item.Match.CreatedAt.UTC()
		item.OtherProfile = profile
		if msgID != nil && msgSender != nil && msgContent != nil && msgCreatedAt != nil {
			item.LastMessage = &model.Message{
				ID:        *msgID,
				MatchID:   item.Match.ID,
				SenderID:  *msgSender,
				Content:   *msgContent,
				CreatedAt: msgCreatedAt.UTC(),
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate matches", err)
	}
	return items, nil
}

type prefixRow struct {
	row  pgx.Row
	head []any
}

func (p prefixRow) Scan(dest ...any) error {
	return p.row.Scan(append(append([]any{}, p.head...), dest...)...)
}
