package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/heartsync/internal/domain/model"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, matchID, senderID int64, content string, at time.Time) (model.Message, error) {
	if matchID <= 0 || senderID <= 0 || content == "" {
		return model.Message{}, fmt.Errorf("invalid message payload")
	}
	if r.pool == nil {
		return model.Message{}, fmt.Errorf("postgres pool is nil")
	}

	var msg model.Message
	err := r.pool.QueryRow(ctx, `
INSERT INTO messages (match_id, sender_id, content, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id, match_id, sender_id, content, created_at
`, matchID, senderID, content, at.UTC()).Scan(&msg.ID, &msg.MatchID, &msg.SenderID, &msg.Content, &msg.CreatedAt)
	if err != nil {
		return model.Message{}, mapError("create message", err)
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	return msg, nil
}

func (r *MessageRepo) ListByMatch(ctx context.Context, matchID int64, limit int) ([]model.Message, error) {
	if matchID <= 0 {
		return nil, fmt.Errorf("invalid match id")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return []model.Message{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, match_id, sender_id, content, created_at
FROM (
	SELECT id, match_id, sender_id, content, created_at
	FROM messages
	WHERE match_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2
) latest
ORDER BY created_at ASC, id ASC
`, matchID, limit)
	if err != nil {
		return nil, mapError("list messages", err)
	}
	defer rows.Close()

	items := make([]model.Message, 0)
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.MatchID, &msg.SenderID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, mapError("scan message", err)
		}
		msg.CreatedAt = msg.CreatedAt.UTC()
		items = append(items, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate messages", err)
	}
	return items, nil
}
