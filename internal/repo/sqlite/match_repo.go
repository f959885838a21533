package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/model"
	"github.com/ivankudzin/heartsync/internal/domain/rules"
)

type MatchRepo struct {
	db *sql.DB
}

func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// CreateIfAbsent inserts the match for the pair unless one already exists.
// The boolean reports whether this call created the row.
func (r *MatchRepo) CreateIfAbsent(ctx context.Context, userID, targetID int64, at time.Time) (model.Match, bool, error) {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return model.Match{}, false, fmt.Errorf("invalid match payload")
	}
	if r.db == nil {
		return model.Match{}, false, fmt.Errorf("sqlite db is nil")
	}

	userA, userB := rules.CanonicalPair(userID, targetID)

	var (
		m         model.Match
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
INSERT INTO matches (user_a_id, user_b_id, created_at)
VALUES (?, ?, ?)
ON CONFLICT (user_a_id, user_b_id) DO NOTHING
RETURNING id, user_a_id, user_b_id, created_at
`, userA, userB, toMillis(at)).Scan(&m.ID, &m.UserAID, &m.UserBID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			existing, getErr := r.GetByPair(ctx, userA, userB)
			if getErr != nil {
				return model.Match{}, false, getErr
			}
			return existing, false, nil
		}
		return model.Match{}, false, mapError("create match", err)
	}
	m.CreatedAt = fromMillis(createdAt)
	return m, true, nil
}

func (r *MatchRepo) GetByPair(ctx context.Context, userID, targetID int64) (model.Match, error) {
	if r.db == nil {
		return model.Match{}, fmt.Errorf("sqlite db is nil")
	}

	userA, userB := rules.CanonicalPair(userID, targetID)
	return r.getOne(ctx, "get match by pair", `
SELECT id, user_a_id, user_b_id, created_at
FROM matches
WHERE user_a_id = ? AND user_b_id = ?
`, userA, userB)
}

func (r *MatchRepo) GetByID(ctx context.Context, matchID int64) (model.Match, error) {
	if r.db == nil {
		return model.Match{}, fmt.Errorf("sqlite db is nil")
	}

	return r.getOne(ctx, "get match", `
SELECT id, user_a_id, user_b_id, created_at
FROM matches
WHERE id = ?
`, matchID)
}

func (r *MatchRepo) getOne(ctx context.Context, op, query string, args ...any) (model.Match, error) {
	var (
		m         model.Match
		createdAt int64
	)
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&m.ID, &m.UserAID, &m.UserBID, &createdAt); err != nil {
		return model.Match{}, mapError(op, err)
	}
	m.CreatedAt = fromMillis(createdAt)
	return m, nil
}

func (r *MatchRepo) CountForPair(ctx context.Context, userID, targetID int64) (int, error) {
	if r.db == nil {
		return 0, fmt.Errorf("sqlite db is nil")
	}

	userA, userB := rules.CanonicalPair(userID, targetID)
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM matches
WHERE user_a_id = ? AND user_b_id = ?
`, userA, userB).Scan(&n)
	if err != nil {
		return 0, mapError("count matches", err)
	}
	return n, nil
}

func (r *MatchRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]model.MatchSummary, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.db == nil {
		return []model.MatchSummary{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
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
JOIN profiles p ON p.user_id = CASE WHEN m.user_a_id = ? THEN m.user_b_id ELSE m.user_a_id END
LEFT JOIN messages lm ON lm.id = (
	SELECT id
	FROM messages
	WHERE match_id = m.id
	ORDER BY created_at DESC, id DESC
	LIMIT 1
)
WHERE m.user_a_id = ? OR m.user_b_id = ?
ORDER BY m.created_at DESC, m.id DESC
LIMIT ?
`, userID, userID, userID, limit)
	if err != nil {
		return nil, mapError("list matches", err)
	}
	defer rows.Close()

	items := make([]model.MatchSummary, 0)
	for rows.Next() {
		var (
			item           model.MatchSummary
			matchCreatedAt int64
			msgID          sql.NullInt64
			msgSender      sql.NullInt64
			msgContent     sql.NullString
			msgCreatedAt   sql.NullInt64
		)
		head := []any{&item.Match.ID, &item.Match.UserAID, &item.Match.UserBID, &matchCreatedAt}
		profile, err := scanProfile(prefixScanner{row: rows, head: head}, &msgID, &msgSender, &msgContent, &msgCreatedAt)
		if err != nil {
			return nil, mapError("scan match", err)
		}
		item.Match.CreatedAt = fromMillis(matchCreatedAt)
		item.OtherProfile = profile
		if msgID.Valid {
			item.LastMessage = &model.Message{
				ID:        msgID.Int64,
				MatchID:   item.Match.ID,
				SenderID:  msgSender.Int64,
				Content:   msgContent.String,
				CreatedAt: fromMillis(msgCreatedAt.Int64),
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate matches", err)
	}
	return items, nil
}

// prefixScanner lets scanProfile read a row whose profile columns follow other fields.
type prefixScanner struct {
	row  rowScanner
	head []any
}

func (s prefixScanner) Scan(dest ...any) error {
	return s.row.Scan(append(append([]any{}, s.head...), dest...)...)
}
