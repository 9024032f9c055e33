package conversations

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

// Create inserts a new conversation.
func (r *PGRepo) Create(ctx context.Context, conv Conversation) error {
	const query = `
INSERT INTO conversations (id, user_id, title, total_messages, analysis, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	analysisPayload, err := marshalJSONB(conv.Analysis)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		conv.ID,
		conv.UserID,
		conv.Title,
		conv.TotalMessages,
		analysisPayload,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	return err
}

// GetByID returns a conversation by ID.
func (r *PGRepo) GetByID(ctx context.Context, conversationID string) (Conversation, error) {
	const query = `
SELECT id, user_id, title, total_messages, analysis, created_at, updated_at
FROM conversations
WHERE id = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, conversationID)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	return conv, err
}

// IncrementMessages bumps the message counter and returns the new total.
func (r *PGRepo) IncrementMessages(ctx context.Context, conversationID string) (int, error) {
	const query = `
UPDATE conversations
SET total_messages = total_messages + 1, updated_at = now()
WHERE id = $1
RETURNING total_messages`
	var total int
	err := r.DB.QueryRowContext(ctx, query, conversationID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return total, err
}

// UpdateAnalysis writes only the analysis column for the given conversation.
func (r *PGRepo) UpdateAnalysis(ctx context.Context, conversationID string, analysis map[string]any) error {
	const query = `UPDATE conversations SET analysis = $2, updated_at = now() WHERE id = $1`
	analysisPayload, err := marshalJSONB(analysis)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, conversationID, analysisPayload)
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

// ListUnanalyzed returns unanalyzed conversations with enough messages,
// most recently updated first.
func (r *PGRepo) ListUnanalyzed(ctx context.Context, minMessages, limit int) ([]Conversation, error) {
	const query = `
SELECT id, user_id, title, total_messages, analysis, created_at, updated_at
FROM conversations
WHERE total_messages >= $1 AND (analysis IS NULL OR analysis = '{}'::jsonb)
ORDER BY updated_at DESC
LIMIT $2`
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, query, minMessages, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (Conversation, error) {
	var conv Conversation
	var analysis sql.NullString
	if err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.TotalMessages, &analysis, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return Conversation{}, err
	}
	if analysis.Valid && analysis.String != "" {
		if err := json.Unmarshal([]byte(analysis.String), &conv.Analysis); err != nil {
			return Conversation{}, fmt.Errorf("decode conversation analysis: %w", err)
		}
	}
	return conv, nil
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
