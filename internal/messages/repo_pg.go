package messages

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new message.
func (r *PGRepo) Create(ctx context.Context, msg Message) error {
	const query = `
INSERT INTO messages (id, conversation_id, sender_type, content, analysis, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	analysisPayload, err := marshalJSONB(msg.Analysis)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.SenderType,
		msg.Content,
		analysisPayload,
		msg.CreatedAt,
	)
	return err
}

// GetByID returns a message by ID.
func (r *PGRepo) GetByID(ctx context.Context, messageID string) (Message, error) {
	const query = `
SELECT id, conversation_id, sender_type, content, analysis, created_at
FROM messages
WHERE id = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, messageID)
	msg, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	return msg, err
}

// ListByConversation returns a conversation's messages ordered oldest first.
func (r *PGRepo) ListByConversation(ctx context.Context, conversationID string) ([]Message, error) {
	const query = `
SELECT id, conversation_id, sender_type, content, analysis, created_at
FROM messages
WHERE conversation_id = $1
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// UpdateAnalysis writes only the analysis column for the given message.
func (r *PGRepo) UpdateAnalysis(ctx context.Context, messageID string, analysis map[string]any) error {
	const query = `UPDATE messages SET analysis = $2 WHERE id = $1`
	analysisPayload, err := marshalJSONB(analysis)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, messageID, analysisPayload)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUnanalyzed returns user messages without analysis, newest first.
func (r *PGRepo) ListUnanalyzed(ctx context.Context, limit int) ([]Message, error) {
	const query = `
SELECT id, conversation_id, sender_type, content, analysis, created_at
FROM messages
WHERE sender_type = 'user' AND (analysis IS NULL OR analysis = '{}'::jsonb)
ORDER BY created_at DESC
LIMIT $1`
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (Message, error) {
	var msg Message
	var analysis sql.NullString
	if err := row.Scan(&msg.ID, &msg.ConversationID, &msg.SenderType, &msg.Content, &analysis, &msg.CreatedAt); err != nil {
		return Message{}, err
	}
	if analysis.Valid && analysis.String != "" {
		if err := json.Unmarshal([]byte(analysis.String), &msg.Analysis); err != nil {
			return Message{}, fmt.Errorf("decode message analysis: %w", err)
		}
	}
	return msg, nil
}

func marshalJSONB(payload map[string]any) (any, error) {
	if payload == nil {
		return nil, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}
	return string(data), nil
}

var _ Repo = (*PGRepo)(nil)
