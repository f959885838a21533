package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/model"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Create(ctx context.Context, matchID, senderID int64, content string, at time.Time) (model.Message, error) {
	if matchID <= 0 || senderID <= 0 || content == "" {
		return model.Message{}, fmt.Errorf("invalid message payload")
	}
	if r.db == nil {
		return model.Message{}, fmt.Errorf("sqlite db is nil")
	}

	var (
		msg       model.Message
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
INSERT INTO messages (match_id, sender_id, content, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, match_id, sender_id, content, created_at
`, matchID, senderID, content, toMillis(at)).Scan(&msg.ID, &msg.MatchID, &msg.SenderID, &msg.Content, &createdAt)
	if err != nil {
		return model.Message{}, mapError("create message", err)
	}
	msg.CreatedAt = fromMillis(createdAt)
	return msg, nil
}

// ListByMatch returns the latest limit messages of a match in ascending order.
func (r *MessageRepo) ListByMatch(ctx context.Context, matchID int64, limit int) ([]model.Message, error) {
	if matchID <= 0 {
		return nil, fmt.Errorf("invalid match id")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.db == nil {
		return []model.Message{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, match_id, sender_id, content, created_at
FROM (
	SELECT id, match_id, sender_id, content, created_at
	FROM messages
	WHERE match_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?
)
ORDER BY created_at ASC, id ASC
`, matchID, limit)
	if err != nil {
		return nil, mapError("list messages", err)
	}
	defer rows.Close()

	items := make([]model.Message, 0)
	for rows.Next() {
		var (
			msg       model.Message
			createdAt int64
		)
		if err := rows.Scan(&msg.ID, &msg.MatchID, &msg.SenderID, &msg.Content, &createdAt); err != nil {
			return nil, mapError("scan message", err)
		}
		msg.CreatedAt = fromMillis(createdAt)
		items = append(items, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate messages", err)
	}
	return items, nil
}
